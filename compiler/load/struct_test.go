package load

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/track/schema/field"
)

type Base struct {
	ID      int64     `track:"id,pk"`
	Created time.Time `track:"created_at"`
}

type UserProfile struct {
	Base
	Name     string `track:"name"`
	Nickname *string
	Avatar   []byte `track:"avatar"`
	Owner    uuid.UUID
	Score    float32 `track:"score"`
	Ignored  string  `track:"-"`
	internal int
}

type Pet struct {
	Owner int64  `track:"owner_id,pk"`
	Name  string `track:"name,pk"`
}

func (*Pet) TableName() string { return "animals" }

func TestStruct(t *testing.T) {
	d, err := Struct(UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, "UserProfile", d.Name())
	assert.Equal(t, "user_profiles", d.Table())
	assert.Equal(t, []string{"id", "created_at", "name", "nickname", "avatar", "owner", "score"}, d.ColumnNames())

	pks := d.PrimaryKeys()
	require.Len(t, pks, 1)
	assert.Equal(t, "id", pks[0].Field)

	types := make([]field.Type, 0, d.Len())
	for _, c := range d.Columns() {
		types = append(types, c.Type)
	}
	assert.Equal(t, []field.Type{
		field.TypeInt64, field.TypeTime, field.TypeString, field.TypeString,
		field.TypeBytes, field.TypeUUID, field.TypeFloat64,
	}, types)

	created, ok := d.Column("created_at")
	require.True(t, ok)
	assert.Equal(t, field.TypeTime, created.Type)
}

func TestStruct_TableName(t *testing.T) {
	for _, v := range []any{Pet{}, &Pet{}} {
		d, err := Struct(v)
		require.NoError(t, err)
		assert.Equal(t, "animals", d.Table())
		assert.Len(t, d.PrimaryKeys(), 2)
		c, ok := d.Column("owner_id")
		require.True(t, ok)
		assert.True(t, c.PrimaryKey)
	}
}

func TestStruct_Errors(t *testing.T) {
	_, err := Struct(1)
	assert.EqualError(t, err, "load: expect struct, got int")

	type bad struct {
		ID int `track:"id,primary"`
	}
	_, err = Struct(bad{})
	assert.Error(t, err)

	type empty struct {
		hidden int
	}
	_, err = Struct(empty{})
	assert.Error(t, err)
}

func TestValues(t *testing.T) {
	now := time.Now()
	nick := "a8m"
	owner := uuid.New()
	u := &UserProfile{
		Base:     Base{ID: 1, Created: now},
		Name:     "ariel",
		Nickname: &nick,
		Owner:    owner,
		Score:    1.5,
	}
	values, err := Values(u)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), now, "ariel", &nick, []byte(nil), owner, float32(1.5)}, values)

	u.Nickname = nil
	values, err = Values(*u)
	require.NoError(t, err)
	assert.Nil(t, values[3])

	_, err = Values((*UserProfile)(nil))
	assert.Error(t, err)
}

func TestAssign(t *testing.T) {
	var p Pet
	require.NoError(t, Assign(&p, []any{int32(7), "pedro"}))
	assert.Equal(t, Pet{Owner: 7, Name: "pedro"}, p)

	var u UserProfile
	require.NoError(t, Assign(&u, []any{int64(3), nil, "ariel", "a8m", nil, uuid.Nil, 2.5}))
	assert.Equal(t, int64(3), u.ID)
	require.NotNil(t, u.Nickname)
	assert.Equal(t, "a8m", *u.Nickname)
	assert.Equal(t, float32(2.5), u.Score)

	assert.Error(t, Assign(p, []any{1, "x"}), "not a pointer")
	assert.Error(t, Assign(&p, []any{1}), "value count")
	assert.Error(t, Assign(&p, []any{"x", "y"}), "incompatible type")
}
