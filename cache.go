package track

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/track/change"
	"github.com/syssam/track/schema"
)

// Cache is the interface for storing entity snapshots between requests.
// Users may implement it with their preferred caching solution
// (e.g., Redis, Memcached); NewMemoryCache returns an in-memory one.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// SnapshotStore keeps the snapshots of saved entities in a Cache, keyed by
// table and primary-key values. Snapshots of tables without a primary key
// are not stored.
type SnapshotStore struct {
	cache Cache
	ttl   time.Duration
}

// NewSnapshotStore returns a store backed by the given cache. A zero ttl
// keeps snapshots until they are evicted.
func NewSnapshotStore(c Cache, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{cache: c, ttl: ttl}
}

// Key returns the cache key of the row, and false if the table has no
// primary key.
func (s *SnapshotStore) Key(d *schema.Descriptor, row []any) (string, bool, error) {
	pks := d.PrimaryKeys()
	if len(pks) == 0 {
		return "", false, nil
	}
	key := make([]any, len(pks))
	for i, c := range pks {
		if c.Ordinal < len(row) {
			key[i] = change.Value(row[c.Ordinal])
		}
	}
	b, err := msgpack.Marshal(key)
	if err != nil {
		return "", false, fmt.Errorf("track: encoding snapshot key: %w", err)
	}
	return d.Table() + ":" + base64.RawURLEncoding.EncodeToString(b), true, nil
}

// Put stores the snapshot of the given row.
func (s *SnapshotStore) Put(ctx context.Context, d *schema.Descriptor, row []any) error {
	key, ok, err := s.Key(d, row)
	if err != nil || !ok {
		return err
	}
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = change.Value(v)
	}
	b, err := msgpack.Marshal(values)
	if err != nil {
		return fmt.Errorf("track: encoding snapshot of %s: %w", d.Table(), err)
	}
	return s.cache.Set(ctx, key, b, s.ttl)
}

// Get returns the snapshot stored for the key of the given row.
func (s *SnapshotStore) Get(ctx context.Context, d *schema.Descriptor, row []any) ([]any, bool, error) {
	key, ok, err := s.Key(d, row)
	if err != nil || !ok {
		return nil, false, err
	}
	b, err := s.cache.Get(ctx, key)
	if err != nil || b == nil {
		return nil, false, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, false, fmt.Errorf("track: decoding snapshot of %s: %w", d.Table(), err)
	}
	if len(values) != d.Len() {
		// Stale entry written for another version of the schema.
		return nil, false, nil
	}
	// Values are decoded as int64, uint64, float64, string, []byte and
	// time.Time; convert them back to the Go types of their columns.
	for i, c := range d.Columns() {
		values[i] = c.Type.MustConvert(values[i])
	}
	return values, true, nil
}

// Evict removes the snapshot stored for the key of the given row.
func (s *SnapshotStore) Evict(ctx context.Context, d *schema.Descriptor, row []any) error {
	key, ok, err := s.Key(d, row)
	if err != nil || !ok {
		return err
	}
	return s.cache.Delete(ctx, key)
}

// EvictTable removes all snapshots of the given table.
func (s *SnapshotStore) EvictTable(ctx context.Context, d *schema.Descriptor) error {
	return s.cache.DeletePrefix(ctx, d.Table()+":")
}

// MemoryCache is an in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time // zero for no expiry.
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements the Cache interface.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

// Set implements the Cache interface.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements the Cache interface.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeletePrefix implements the Cache interface.
func (m *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Clear implements the Cache interface.
func (m *MemoryCache) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Cache = (*MemoryCache)(nil)
