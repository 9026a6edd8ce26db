package track_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/track"
	"github.com/syssam/track/change"
	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"
)

var (
	foo = schema.MustNamed("Foo", "bar_table",
		field.Int("foo1").StorageKey("foo_column").PrimaryKey(),
		field.Int("foo2").StorageKey("bar_column").PrimaryKey(),
	)
	xxxx = schema.MustNew("xxxx",
		field.Int64("id").PrimaryKey(),
		field.String("some_field"),
		field.String("some_other_field"),
	)
)

func TestEntity_New(t *testing.T) {
	t.Parallel()
	e := track.New(xxxx)
	assert.Same(t, xxxx, e.Schema())
	assert.Equal(t, track.Unsaved, e.State())
	assert.Equal(t, []any{nil, nil, nil}, e.Values())
	_, ok := e.Snapshot()
	assert.False(t, ok)
	assert.True(t, e.Changes().IsInsert())

	// Reset is a no-op for unsaved entities.
	require.NoError(t, e.Set("some_field", "a"))
	e.Reset()
	v, err := e.Get("some_field")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestEntity_Load(t *testing.T) {
	t.Parallel()
	values := []any{1, 2}
	e, err := track.Load(foo, values)
	require.NoError(t, err)
	assert.Equal(t, track.Loaded, e.State())
	assert.True(t, e.Changes().Empty())

	// The entity does not alias the given slice.
	values[1] = 100
	assert.Equal(t, []any{1, 2}, e.Values())

	s, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.At(1))

	_, err = track.Load(foo, []any{1})
	var countErr *track.ValueCountError
	require.True(t, errors.As(err, &countErr))
	assert.Equal(t, 2, countErr.Want)
	assert.Equal(t, 1, countErr.Got)
}

func TestEntity_Dirty(t *testing.T) {
	t.Parallel()
	e, err := track.Load(foo, []any{1, 2})
	require.NoError(t, err)

	require.NoError(t, e.Set("foo2", 3))
	assert.Equal(t, track.Dirty, e.State())
	assert.Equal(t, []change.Record{
		{Field: "foo2", Column: "bar_column", Value: 3, Old: 2, HasOld: true},
	}, e.Changes().Records())

	// Mutations never touch the snapshot.
	s, _ := e.Snapshot()
	assert.Equal(t, []any{1, 2}, s.Values())

	// Setting the stored value back makes the entity clean again.
	require.NoError(t, e.Set("foo2", int64(2)))
	assert.Equal(t, track.Loaded, e.State())

	require.NoError(t, e.Set("foo1", 9))
	e.Reset()
	assert.Equal(t, track.Loaded, e.State())
	assert.Equal(t, []any{1, 2}, e.Values())
}

func TestEntity_Misuse(t *testing.T) {
	t.Parallel()
	e := track.New(foo)
	err := e.Set("foo_column", 1)
	assert.True(t, errors.Is(err, track.ErrUnknownField), "columns are not field identifiers")
	_, err = e.Get("nope")
	assert.True(t, errors.Is(err, track.ErrUnknownField))
	assert.True(t, errors.Is(e.SetValues([]any{1, 2, 3}), track.ErrValueCount))
	require.NoError(t, e.SetValues([]any{1, 2}))
	assert.Equal(t, []any{1, 2}, e.Values())
}

func TestEntity_ValuesAreCopies(t *testing.T) {
	t.Parallel()
	e, err := track.Load(foo, []any{1, 2})
	require.NoError(t, err)
	v := e.Values()
	v[0] = 5
	assert.Equal(t, track.Loaded, e.State())
	s, _ := e.Snapshot()
	sv := s.Values()
	sv[0] = 5
	s, _ = e.Snapshot()
	assert.Equal(t, 1, s.At(0))
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unsaved", track.Unsaved.String())
	assert.Equal(t, "loaded", track.Loaded.String())
	assert.Equal(t, "dirty", track.Dirty.String())
	assert.Equal(t, "State(7)", track.State(7).String())
}
