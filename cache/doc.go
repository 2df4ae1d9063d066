/*
Package cache is the cache-aside layer handlers use.

Values round-trip through JSON under colon-delimited keys ("user:profile:<id>",
"daily:macros:<user_id>:<date>"). The Service is fail-soft: an unreachable store reads as a miss
and writes or invalidations become no-ops, so a cache outage never fails a request. The only error
it lets through is an attempt to cache a value JSON cannot represent.

ReadThrough, AutoKeyed and InvalidateOnWrite decorate plain handler functions with read-through
caching and write-triggered invalidation.
*/
package cache
