// Package cache implements the brewery store on Redis.
//
// Layout, with the default "brewery" prefix:
//
//	brewery:{id}                 JSON encoded Entry
//	brewery:type:{type}          sorted set of ids, every score 0
//	brewery:freshness:{type}     hash page number -> epoch milliseconds
//
// All members of a type index share score 0, so ZRANGE returns them in
// lexicographic id order and a page is a plain index range. This matches the
// ORDER BY id of the SQL store.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewStore(redisClient)
//
//	source := pagination.NewSource(store, apiClient, brewery.TypeMicro)
//
// # Metrics
//
//   - brewery_store_hits_total{layer="redis"} - Brewery and freshness lookups that hit
//   - brewery_store_misses_total - Lookups that missed
//   - brewery_store_errors_total{operation} - Redis operation errors
package cache
