// Package cache defines the time-boxed key/value contract shared by the
// SQLite store and the in-process store, plus periodic housekeeping.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a persistent key/value mapping with per-entry TTL.
//
// Values are encoded as JSON on Set and decoded into dst on Get. Get returns
// false for missing and expired entries; an expired entry is removed as a side
// effect. A payload that no longer decodes is reported as a miss and left in
// place. Errors are only returned for storage failures.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dst any) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// Lookup is the typed form of Store.Get.
func Lookup[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	ok, err := s.Get(ctx, key, &v)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Entry is a stored value with its validity window.
type Entry struct {
	Key       string
	Value     string
	CreatedAt time.Time
	TTL       time.Duration
}

// NewEntry encodes value and stamps it with now. Any string, including the
// empty one, is a valid key.
func NewEntry(key string, value any, ttl time.Duration, now time.Time) (Entry, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, Value: string(data), CreatedAt: now, TTL: ttl}, nil
}

// ExpiresAt is CreatedAt + TTL.
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// ValidAt reports whether now is within the validity window (inclusive).
func (e Entry) ValidAt(now time.Time) bool {
	return !now.After(e.ExpiresAt())
}

// Decode unmarshals the stored value into dst.
func (e Entry) Decode(dst any) error {
	return json.Unmarshal([]byte(e.Value), dst)
}

// Clock returns the current time. Stores take one so expiry can be tested.
type Clock func() time.Time
