package readcache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/shell/readcache"
)

type countQuery struct {
	key string
}

func (q countQuery) QueryType() string { return "CountQuery" }
func (q countQuery) CacheKey() string  { return q.key }

type countResult struct {
	Count int `json:"count"`
}

type countingHandler struct {
	calls int
}

func (h *countingHandler) Handle(_ context.Context, _ countQuery) (countResult, error) {
	h.calls++
	return countResult{Count: h.calls}, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, found := c.entries[key]

	return value, found, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setErr != nil {
		return c.setErr
	}

	c.entries[key] = value

	return nil
}

func Test_Wrapper_ServesFromCache_OnSecondCall(t *testing.T) {
	// arrange
	handler := &countingHandler{}
	cache := newFakeCache()
	wrapper, err := readcache.NewWrapper[countQuery, countResult](handler, cache)
	assert.NoError(t, err)

	ctx := context.Background()
	query := countQuery{key: "loans:user:42"}

	// act
	first, firstErr := wrapper.Handle(ctx, query)
	second, secondErr := wrapper.Handle(ctx, query)

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.Equal(t, 1, handler.calls, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func Test_Wrapper_FallsBackToBaseHandler_OnCacheMiss(t *testing.T) {
	// arrange
	handler := &countingHandler{}
	cache := newFakeCache()
	wrapper, err := readcache.NewWrapper[countQuery, countResult](handler, cache)
	assert.NoError(t, err)

	ctx := context.Background()

	// act - different keys never share entries
	_, firstErr := wrapper.Handle(ctx, countQuery{key: "loans:user:1"})
	_, secondErr := wrapper.Handle(ctx, countQuery{key: "loans:user:2"})

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.Equal(t, 2, handler.calls)
}

func Test_Wrapper_CacheSaveFailure_DoesNotFailTheQuery(t *testing.T) {
	// arrange
	handler := &countingHandler{}
	cache := newFakeCache()
	cache.setErr = assert.AnError
	wrapper, err := readcache.NewWrapper[countQuery, countResult](handler, cache)
	assert.NoError(t, err)

	// act
	result, handleErr := wrapper.Handle(context.Background(), countQuery{key: "loans:user:3"})

	// assert
	assert.NoError(t, handleErr)
	assert.Equal(t, 1, result.Count)
}

func Test_NewWrapper_ValidatesInputs(t *testing.T) {
	handler := &countingHandler{}
	cache := newFakeCache()

	_, err := readcache.NewWrapper[countQuery, countResult](nil, cache)
	assert.ErrorIs(t, err, readcache.ErrNilBaseHandler)

	_, err = readcache.NewWrapper[countQuery, countResult](handler, nil)
	assert.ErrorIs(t, err, readcache.ErrNilCache)

	_, err = readcache.NewWrapper[countQuery, countResult](handler, cache, readcache.WithTTL[countQuery, countResult](0))
	assert.ErrorIs(t, err, readcache.ErrInvalidTTL)
}
