// Package cachestore provides ports.CacheStore backends for the host:
// an in-process store on bigcache and a shared store on Redis.
//
// Both report a miss as an error matching domain/errors.ErrNotFound, which
// the host turns into the not-found sentinel.
package cachestore
