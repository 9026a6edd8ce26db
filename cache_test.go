package track

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/track/change"
	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCache()
	m.now = func() time.Time { return now }

	v, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, m.Set(ctx, "users:a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "users:b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "pets:a", []byte("3"), 0))
	assert.Equal(t, 3, m.Len())

	v, err = m.Get(ctx, "users:b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	// Returned values do not alias the stored ones.
	v[0] = 'x'
	v, _ = m.Get(ctx, "users:b")
	assert.Equal(t, []byte("2"), v)

	now = now.Add(time.Minute)
	v, _ = m.Get(ctx, "users:b")
	assert.Nil(t, v, "expired")

	require.NoError(t, m.DeletePrefix(ctx, "users:"))
	assert.Equal(t, 1, m.Len())
	require.NoError(t, m.Delete(ctx, "pets:a"))
	assert.Zero(t, m.Len())

	require.NoError(t, m.Set(ctx, "k", nil, 0))
	require.NoError(t, m.Clear(ctx))
	assert.Zero(t, m.Len())
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	d := schema.MustNew("documents",
		field.UUID("id").PrimaryKey(),
		field.Int("version").PrimaryKey(),
		field.String("title"),
		field.Bytes("body"),
		field.Float("score"),
		field.Bool("draft"),
		field.Time("updated_at"),
		field.String("note"),
	)
	id := uuid.New()
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	row := []any{id, 3, "title", []byte("body"), 0.5, true, at, nil}

	store := NewSnapshotStore(NewMemoryCache(), 0)
	key, ok, err := store.Key(d, row)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "documents:"))

	// Keys are stable across equal representations of the primary key.
	key2, _, err := store.Key(d, []any{id.String(), int64(3), nil, nil, nil, nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, key, key2)

	require.NoError(t, store.Put(ctx, d, row))
	got, ok, err := store.Get(ctx, d, row)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, len(row))
	// Values come back with the Go types of their columns.
	assert.Equal(t, id, got[0])
	assert.Equal(t, 3, got[1])
	assert.Equal(t, "title", got[2])
	assert.Equal(t, []byte("body"), got[3])
	assert.Equal(t, 0.5, got[4])
	assert.Equal(t, true, got[5])
	assert.IsType(t, time.Time{}, got[6])
	assert.True(t, at.Equal(got[6].(time.Time)))
	assert.Nil(t, got[7])
	// Decoded values compare equal to the live values they were saved from.
	assert.True(t, change.Compute(d, got, row).Empty(), "%v", change.Compute(d, got, row))

	require.NoError(t, store.Evict(ctx, d, row))
	_, ok, err = store.Get(ctx, d, row)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, d, row))
	require.NoError(t, store.EvictTable(ctx, d))
	_, ok, _ = store.Get(ctx, d, row)
	assert.False(t, ok)
}

func TestSnapshotStore_NoPrimaryKey(t *testing.T) {
	ctx := context.Background()
	d := schema.MustNew("logs", field.String("line"))
	c := NewMemoryCache()
	store := NewSnapshotStore(c, time.Hour)
	_, ok, err := store.Key(d, []any{"x"})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Put(ctx, d, []any{"x"}))
	assert.Zero(t, c.Len())
	_, ok, err = store.Get(ctx, d, []any{"x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotStore_StaleEntry(t *testing.T) {
	ctx := context.Background()
	v1 := schema.MustNew("users", field.Int64("id").PrimaryKey(), field.String("name"))
	v2 := schema.MustNew("users", field.Int64("id").PrimaryKey(), field.String("name"), field.String("email"))
	store := NewSnapshotStore(NewMemoryCache(), 0)
	require.NoError(t, store.Put(ctx, v1, []any{int64(1), "a8m"}))
	_, ok, err := store.Get(ctx, v2, []any{int64(1), "a8m", nil})
	require.NoError(t, err)
	assert.False(t, ok)
}
