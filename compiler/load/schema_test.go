package load

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"
)

func TestConfig_Load(t *testing.T) {
	cfg := &Config{Path: "testdata/valid"}
	schemas, err := cfg.Load()
	require.NoError(t, err)
	require.Len(t, schemas, 3)
	// pets.yml sorts before schema.yaml.
	assert.Equal(t, "pets", schemas[0].Table)
	assert.Equal(t, "testdata/valid/pets.yml:0", schemas[0].Pos)
	assert.Equal(t, "User", schemas[1].Name)
	assert.Equal(t, "Token", schemas[2].Name)

	cfg.Names = []string{"Token"}
	schemas, err = cfg.Load()
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "tokens", schemas[0].Table)

	cfg.Names = []string{"pets"}
	schemas, err = cfg.Load()
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Empty(t, schemas[0].Name)

	_, err = (&Config{Path: "testdata/valid", Names: []string{"Nope"}}).Load()
	assert.EqualError(t, err, "load: no schemas found in testdata/valid")

	_, err = (&Config{Path: "testdata/missing"}).Load()
	assert.Error(t, err)

	_, err = (&Config{Path: "testdata/failure/schema.yaml"}).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field: unknown type "decimal"`)
}

func TestConfig_Descriptors(t *testing.T) {
	ds, err := (&Config{Path: "testdata/valid/schema.yaml"}).Descriptors()
	require.NoError(t, err)
	require.Len(t, ds, 2)

	users := ds[0]
	assert.Equal(t, "User", users.Name())
	assert.Equal(t, "users", users.Table())
	assert.Equal(t, []string{"id", "user_name", "age", "score"}, users.ColumnNames())
	require.Len(t, users.PrimaryKeys(), 1)
	name, ok := users.Column("name")
	require.True(t, ok)
	assert.Equal(t, "display name", name.Comment())
	age, _ := users.Column("age")
	def, ok := age.Default()
	require.True(t, ok)
	assert.Equal(t, 18, def)
	score, _ := users.Column("score")
	def, _ = score.Default()
	assert.Equal(t, 1.0, def)

	tokens := ds[1]
	id, _ := tokens.Column("id")
	v1, _ := id.Default()
	v2, _ := id.Default()
	assert.IsType(t, uuid.UUID{}, v1)
	assert.NotEqual(t, v1, v2, "generated on every call")
	created, _ := tokens.Column("created_at")
	v, _ := created.Default()
	assert.IsType(t, time.Time{}, v)
	expires, _ := tokens.Column("expires_at")
	v, _ = expires.Default()
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestSchema_Descriptor(t *testing.T) {
	s := &Schema{Table: "pets", Fields: []*Field{
		{Name: "owner_id", Type: "int64", PrimaryKey: true},
		{Name: "payload", Type: "bytes", Default: "{}"},
	}}
	d, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "pets", d.Name())
	payload, _ := d.Column("payload")
	def, _ := payload.Default()
	assert.Equal(t, []byte("{}"), def)

	// Invalid schemas fail the same way as declared ones.
	_, err = (&Schema{Table: "pets"}).Descriptor()
	assert.True(t, schema.IsSchemaError(err))
}

func TestField_Default(t *testing.T) {
	tests := []struct {
		typ     string
		value   any
		want    any
		wantErr bool
	}{
		{typ: "int", value: 1, want: 1},
		{typ: "int64", value: 1, want: int64(1)},
		{typ: "uint64", value: 1, want: uint64(1)},
		{typ: "float64", value: 2, want: 2.0},
		{typ: "int", value: 1.5, wantErr: true},
		{typ: "int64", value: 2.0, want: int64(2)},
		{typ: "string", value: "x", want: "x"},
		{typ: "string", value: 1, wantErr: true},
		{typ: "bool", value: true, want: true},
		{typ: "bool", value: "true", wantErr: true},
		{typ: "uuid", value: "not-a-uuid", wantErr: true},
		{typ: "uuid", value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", want: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{typ: "time", value: "yesterday", wantErr: true},
		{typ: "other", value: map[string]any{"a": 1}, want: map[string]any{"a": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			f := &Field{Name: "f", Type: tt.typ, Default: tt.value}
			b, err := f.builder()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			v, ok := b.Descriptor().DefaultValue()
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestMarshalSchema(t *testing.T) {
	d := schema.MustNamed("Token", "tokens",
		field.UUID("id").PrimaryKey().Default(uuid.New),
		field.String("scope").StorageKey("token_scope").Default("read").Comment("oauth scope"),
		field.Time("created_at").Default(time.Now),
	)
	buf, err := MarshalSchema(d)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "default: uuid")
	assert.Contains(t, string(buf), "column: token_scope")

	s, err := UnmarshalSchema(buf)
	require.NoError(t, err)
	got, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, d.Name(), got.Name())
	assert.Equal(t, d.ColumnNames(), got.ColumnNames())
	scope, _ := got.Column("scope")
	v, _ := scope.Default()
	assert.Equal(t, "read", v)
	assert.Equal(t, "oauth scope", scope.Comment())

	// Arbitrary funcs have no declarative form.
	d = schema.MustNew("t", field.Int("n").Default(func() int { return 1 }))
	_, err = MarshalSchema(d)
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	schemas, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, schemas)

	_, err = Read(strings.NewReader("schemas:\n  - table: t\n    unknown: 1\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestSchema_DefaultRange(t *testing.T) {
	tests := []struct {
		typ     string
		def     any
		wantErr string
	}{
		{"uint64", -1, "out of range"},
		{"int64", uint64(1 << 63), "out of range"},
		{"int", 2.5, "not an integer"},
		{"uint64", 7, ""},
		{"int64", -7, ""},
	}
	for _, tt := range tests {
		s := &Schema{Table: "t", Fields: []*Field{{Name: "n", Type: tt.typ, Default: tt.def}}}
		d, err := s.Descriptor()
		if tt.wantErr != "" {
			assert.ErrorContains(t, err, tt.wantErr, "%s %v", tt.typ, tt.def)
			continue
		}
		require.NoError(t, err)
		v, ok := d.At(0).Default()
		require.True(t, ok)
		assert.EqualValues(t, tt.def, v)
	}

	_, err := Read(strings.NewReader("schemas:\n  - table: t\n    fields:\n      - {name: n, type: uint64, default: -1}\n"))
	assert.ErrorContains(t, err, "out of range")
}
