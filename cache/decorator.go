package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Func is the shape of a decorated call: one argument (usually a command or query struct) and a result.
type Func[A any, R any] func(ctx context.Context, arg A) (R, error)

type readConfig struct {
	ttl      time.Duration
	cacheNil bool
}

// ReadOption tunes ReadThrough and AutoKeyed.
type ReadOption func(*readConfig)

// TTL overrides the service default ttl for the decorated call.
func TTL(d time.Duration) ReadOption { return func(c *readConfig) { c.ttl = d } }

// CacheNil makes nil results cacheable. By default they are not stored.
func CacheNil(on bool) ReadOption { return func(c *readConfig) { c.cacheNil = on } }

// ReadThrough consults the cache under keyFn(arg) before calling fn and stores fn's result afterwards.
// Cache problems are logged and never reach the caller; errors from fn are returned unchanged.
func ReadThrough[A any, R any](s *Service, keyFn func(A) string, fn Func[A, R], opts ...ReadOption) Func[A, R] {
	var cfg readConfig
	for _, o := range opts {
		o(&cfg)
	}

	return func(ctx context.Context, arg A) (R, error) {
		key := keyFn(arg)

		if v, ok := readCached[R](ctx, s, key, cfg.cacheNil); ok {
			return v, nil
		}

		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}

		if isNil(res) && !cfg.cacheNil {
			return res, nil
		}

		if _, serr := s.SetJSON(ctx, key, res, cfg.ttl); serr != nil {
			s.logger.WarnContext(ctx, "read-through store skipped", "key", key, "err", serr)
		}

		return res, nil
	}
}

// AutoKeyed is ReadThrough with the key derived from a hash of the argument under prefix.
func AutoKeyed[A any, R any](s *Service, prefix string, fn Func[A, R], opts ...ReadOption) Func[A, R] {
	return ReadThrough(s, func(arg A) string { return HashKey(prefix, arg) }, fn, opts...)
}

// PatternSource yields the keys or globs a write invalidates.
type PatternSource[A any] func(arg A) []string

// StaticPatterns invalidates the same keys or globs after every write.
func StaticPatterns[A any](patterns ...string) PatternSource[A] {
	return func(A) []string { return patterns }
}

// InvalidateOnWrite runs fn and, only when it succeeds, invalidates every key or glob the source yields.
// Entries containing glob characters go through InvalidatePattern. Invalidation problems are logged only.
func InvalidateOnWrite[A any, R any](s *Service, src PatternSource[A], fn Func[A, R]) Func[A, R] {
	return func(ctx context.Context, arg A) (R, error) {
		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}

		invalidate(ctx, s, src, arg)

		return res, nil
	}
}

func invalidate[A any](ctx context.Context, s *Service, src PatternSource[A], arg A) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "cache invalidation panicked", "panic", r)
		}
	}()

	for _, p := range src(arg) {
		if IsPattern(p) {
			n := s.InvalidatePattern(ctx, p)
			s.logger.DebugContext(ctx, "cache invalidated", "pattern", p, "removed", n)

			continue
		}

		s.Invalidate(ctx, p)
	}
}

// readCached is Get, except that a cached JSON null counts as a hit when nil results are cacheable.
func readCached[R any](ctx context.Context, s *Service, key string, cacheNil bool) (R, bool) {
	var zero R

	if !cacheNil {
		return Get[R](ctx, s, key)
	}

	raw, ok := s.lookup(ctx, key)
	if !ok {
		s.recordMiss(key)
		return zero, false
	}

	var v R
	if err := json.Unmarshal(raw, &v); err != nil {
		s.recordMiss(key)
		return zero, false
	}

	s.recordHit(key)

	return v, true
}
