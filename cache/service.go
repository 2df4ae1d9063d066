package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"
)

// DefaultTTL is used when Options.DefaultTTL is zero.
const DefaultTTL = 5 * time.Minute

// Options configures a Service.
type Options struct {
	// Enabled switches caching globally. A disabled Service misses every read and skips every write.
	Enabled bool
	// DefaultTTL applies when a write passes a ttl of zero.
	DefaultTTL time.Duration
	// Monitor, when set, is told about every hit and miss.
	Monitor Monitor
	Logger  *slog.Logger
}

// Service is the cache-aside facade over a Store.
type Service struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// New builds a Service. A nil store disables caching.
func New(store Store, opts Options) *Service {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, opts: opts, logger: logger}
}

// Disabled returns a Service that never caches anything.
func Disabled() *Service { return New(nil, Options{}) }

// Enabled reports whether reads and writes reach the store.
func (s *Service) Enabled() bool { return s != nil && s.opts.Enabled && s.store != nil }

// DefaultTTL returns the ttl applied to writes that do not pass one.
func (s *Service) DefaultTTL() time.Duration { return s.opts.DefaultTTL }

// GetJSON decodes the value cached under key into dst and reports whether it was a hit.
// Store failures and malformed JSON count as a miss; dst is unspecified after a miss.
func (s *Service) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := s.lookup(ctx, key)
	if !ok || isJSONNull(raw) {
		s.recordMiss(key)
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.DebugContext(ctx, "cache entry malformed", "key", key, "err", err)
		s.recordMiss(key)

		return false
	}

	s.recordHit(key)

	return true
}

// Get is the typed form of GetJSON.
func Get[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var v T
	if !s.GetJSON(ctx, key, &v) {
		var zero T
		return zero, false
	}

	return v, true
}

// SetJSON caches value under key for ttl (DefaultTTL when ttl is zero).
//
// It returns false without an error when caching is disabled or the store is unreachable.
// A value JSON cannot represent yields ErrSerializationFailed.
func (s *Service) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}

	b, err := encode(value)
	if err != nil {
		return false, err
	}

	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}

	if err := s.store.Set(ctx, key, b, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache set failed", "key", key, "err", err)
		s.recordError("set")

		return false, nil
	}

	return true, nil
}

// GetOrSet returns the value cached under key, or calls factory once, caches a non-nil
// result and returns it. Nil results are never cached, so the next call runs factory again.
// Factory errors are returned unchanged and nothing is cached.
func GetOrSet[T any](
	ctx context.Context,
	s *Service,
	key string,
	factory func(ctx context.Context) (T, error),
	ttl time.Duration,
) (T, error) {
	if v, ok := Get[T](ctx, s, key); ok {
		return v, nil
	}

	v, err := factory(ctx)
	if err != nil {
		return v, err
	}

	if isNil(v) {
		return v, nil
	}

	if _, err := s.SetJSON(ctx, key, v, ttl); err != nil {
		return v, err
	}

	return v, nil
}

// Invalidate deletes key. It reports whether an entry was removed; disabled or failing stores give false.
func (s *Service) Invalidate(ctx context.Context, key string) bool {
	if !s.Enabled() {
		return false
	}

	n, err := s.store.Del(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed", "key", key, "err", err)
		s.recordError("invalidate")

		return false
	}

	return n > 0
}

// InvalidatePattern deletes every key matching the glob and returns how many were removed.
func (s *Service) InvalidatePattern(ctx context.Context, pattern string) int {
	if !s.Enabled() {
		return 0
	}

	keys, err := s.store.Keys(ctx, pattern)
	if err != nil {
		s.logger.WarnContext(ctx, "cache pattern scan failed", "pattern", pattern, "err", err)
		s.recordError("scan")

		return 0
	}

	if len(keys) == 0 {
		return 0
	}

	n, err := s.store.Del(ctx, keys...)
	if err != nil {
		s.logger.WarnContext(ctx, "cache pattern invalidate failed", "pattern", pattern, "err", err)
		s.recordError("invalidate")

		return 0
	}

	return n
}

// lookup returns the raw bytes under key. ok is false on a miss, when disabled, or on store failure.
func (s *Service) lookup(ctx context.Context, key string) ([]byte, bool) {
	if !s.Enabled() {
		return nil, false
	}

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		s.recordError("get")

		return nil, false
	}

	return raw, ok
}

func (s *Service) recordHit(key string) {
	if s.Enabled() && s.opts.Monitor != nil {
		s.opts.Monitor.RecordHit(key)
	}
}

func (s *Service) recordMiss(key string) {
	if s.Enabled() && s.opts.Monitor != nil {
		s.opts.Monitor.RecordMiss(key)
	}
}

func (s *Service) recordError(op string) {
	if s.opts.Monitor != nil {
		s.opts.Monitor.RecordError(op)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
