package cache

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "forever", []byte("2"), 0))

	_, ok, err := m.Get(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Second)

	_, ok, _ = m.Get(ctx, "short")
	assert.False(t, ok, "entry expires at its deadline")

	keys, err := m.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
	assert.Equal(t, 1, m.Len())

	n, err := m.Del(ctx, "short", "forever", "absent")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expired entries do not count as removed")
}

func TestMemoryStoreKeys(t *testing.T) {
	ctx := t.Context()
	m := NewMemoryStore()

	for _, k := range []string{"user:profile:1", "user:profile:2", "user:prefs:1", "daily:macros:1:2026-10-19"} {
		require.NoError(t, m.Set(ctx, k, []byte(`"v"`), 0))
	}

	keys, err := m.Keys(ctx, "user:profile:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"user:profile:1", "user:profile:2"}, keys)

	keys, err = m.Keys(ctx, "daily:macros:1:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"daily:macros:1:2026-10-19"}, keys)

	_, err = m.Keys(ctx, "user:[")
	assert.Error(t, err, "malformed glob")
}

func TestMemoryStoreKeysMatchAcrossSlashes(t *testing.T) {
	ctx := t.Context()
	m := NewMemoryStore()

	for _, k := range []string{"user:profile:team/a", "user:profile:team/a/b", "user:profile:9", "user:prefs:x/y", "a.b"} {
		require.NoError(t, m.Set(ctx, k, []byte(`"v"`), 0))
	}

	cases := map[string][]string{
		"user:profile:*":       {"user:profile:9", "user:profile:team/a", "user:profile:team/a/b"},
		"user:*:team/?":        {"user:profile:team/a"},
		"user:pr[eo]f*:*/*":    {"user:prefs:x/y", "user:profile:team/a", "user:profile:team/a/b"},
		"user:profile:[^t]":    {"user:profile:9"},
		"user:profile:[0-9]":   {"user:profile:9"},
		`user:profile:team\/a`: {"user:profile:team/a"},
		"a?b":                  {"a.b"},
		`a\.b`:                 {"a.b"},
		"b.*":                  nil,
	}

	for pattern, want := range cases {
		keys, err := m.Keys(ctx, pattern)
		require.NoError(t, err, pattern)
		sort.Strings(keys)
		assert.Equal(t, want, keys, pattern)
	}

	_, err := m.Keys(ctx, "user:[]")
	assert.Error(t, err)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := t.Context()
	m := NewMemoryStore()

	val := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", val, 0))
	val[0] = 'X'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}
