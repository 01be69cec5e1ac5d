// Package readcache provides a read-through cache decorator for query handlers.
//
// The wrapper serves projections from a cache when a fresh entry exists and
// falls back to the base handler on a miss, storing the result with a TTL.
// Cache failures never fail the query: the wrapper degrades to the base
// handler and logs the reason.
//
// The Cache interface is dependency-free; RedisCache adapts it to Redis.
package readcache
