package readcache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/circulatehq/library-lending-go/shell"
)

const defaultTTL = 5 * time.Second

var (
	// ErrNilBaseHandler is returned when no base handler is provided.
	ErrNilBaseHandler = errors.New("base handler must not be nil")

	// ErrNilCache is returned when no cache is provided.
	ErrNilCache = errors.New("cache must not be nil")

	// ErrInvalidTTL is returned when the TTL is not positive.
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// Cache is the minimal contract the wrapper needs from a cache backend.
// Get reports a miss with found=false rather than an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Wrapper provides read-through caching for any query handler.
// It wraps a base handler, serving cached projections while they are fresh
// and falling back to the base handler on a miss or cache failure.
type Wrapper[Q shell.Query, R any] struct {
	baseHandler      shell.QueryHandler[Q, R]
	cache            Cache
	ttl              time.Duration
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Wrapper.
type Option[Q shell.Query, R any] func(*Wrapper[Q, R]) error

// WithTTL sets how long cached projections stay fresh.
func WithTTL[Q shell.Query, R any](ttl time.Duration) Option[Q, R] {
	return func(w *Wrapper[Q, R]) error {
		if ttl <= 0 {
			return ErrInvalidTTL
		}

		w.ttl = ttl

		return nil
	}
}

// WithLogger sets the logger for cache fallback diagnostics.
func WithLogger[Q shell.Query, R any](logger shell.Logger) Option[Q, R] {
	return func(w *Wrapper[Q, R]) error {
		w.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for cache fallback diagnostics.
func WithContextualLogger[Q shell.Query, R any](logger shell.ContextualLogger) Option[Q, R] {
	return func(w *Wrapper[Q, R]) error {
		w.contextualLogger = logger
		return nil
	}
}

// NewWrapper creates a read-through cache wrapper around the base query handler.
func NewWrapper[Q shell.Query, R any](
	baseHandler shell.QueryHandler[Q, R],
	cache Cache,
	options ...Option[Q, R],
) (*Wrapper[Q, R], error) {

	if baseHandler == nil {
		return nil, ErrNilBaseHandler
	}

	if cache == nil {
		return nil, ErrNilCache
	}

	wrapper := &Wrapper[Q, R]{
		baseHandler: baseHandler,
		cache:       cache,
		ttl:         defaultTTL,
	}

	for _, option := range options {
		if err := option(wrapper); err != nil {
			return nil, err
		}
	}

	return wrapper, nil
}

// Handle executes the read-through workflow: serve from cache when fresh,
// otherwise delegate to the base handler and store the result.
// Cache failures degrade to the base handler and never fail the query.
func (w *Wrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	key := query.CacheKey()

	cached, found, getErr := w.cache.Get(ctx, key)
	if getErr == nil && found {
		var result R
		if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(cached, &result); unmarshalErr == nil {
			w.logCache(ctx, shell.LogMsgCacheHit, key)
			return result, nil
		}
	}

	w.logCache(ctx, shell.LogMsgCacheMiss, key)

	result, err := w.baseHandler.Handle(ctx, query)
	if err != nil {
		return result, err
	}

	if data, marshalErr := jsoniter.ConfigFastest.Marshal(result); marshalErr == nil {
		if setErr := w.cache.Set(ctx, key, data, w.ttl); setErr != nil {
			w.logCacheError(ctx, shell.LogMsgCacheSaveError, key, setErr)
		}
	}

	return result, nil
}

func (w *Wrapper[Q, R]) logCache(ctx context.Context, msg string, key string) {
	if w.contextualLogger != nil {
		w.contextualLogger.DebugContext(ctx, msg, shell.LogAttrCacheKey, key)
		return
	}

	if w.logger != nil {
		w.logger.Debug(msg, shell.LogAttrCacheKey, key)
	}
}

func (w *Wrapper[Q, R]) logCacheError(ctx context.Context, msg string, key string, err error) {
	if w.contextualLogger != nil {
		w.contextualLogger.WarnContext(ctx, msg, shell.LogAttrCacheKey, key, shell.LogAttrError, err.Error())
		return
	}

	if w.logger != nil {
		w.logger.Warn(msg, shell.LogAttrCacheKey, key, shell.LogAttrError, err.Error())
	}
}
