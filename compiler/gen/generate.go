package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/track/compiler/load"
	"github.com/syssam/track/schema/field"
)

const (
	trackPkg  = "github.com/syssam/track"
	schemaPkg = "github.com/syssam/track/schema"
	fieldPkg  = "github.com/syssam/track/schema/field"
	uuidPkg   = "github.com/google/uuid"
)

// Generate writes the package of the given schemas to the configured
// target: one file per schema, and schemas.go listing all descriptors.
//
//	schemas, err := (&load.Config{Path: "./schema"}).Load()
//	...
//	err = gen.Generate(ctx, schemas, gen.WithTarget("./model"))
func Generate(ctx context.Context, schemas []*load.Schema, opts ...Option) error {
	c, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	g, err := NewGraph(c, schemas...)
	if err != nil {
		return err
	}
	return NewGenerator(g).Generate(ctx)
}

// Generator renders the files of a graph with jennifer.
type Generator struct {
	graph *Graph
}

// NewGenerator creates a new generator of the given graph.
func NewGenerator(g *Graph) *Generator {
	return &Generator{graph: g}
}

// Files returns the generated files by name.
func (g *Generator) Files() (map[string]*jen.File, error) {
	files := make(map[string]*jen.File, len(g.graph.Nodes)+1)
	for _, t := range g.graph.Nodes {
		f, err := g.entity(t)
		if err != nil {
			return nil, err
		}
		files[t.FileName()] = f
	}
	files["schemas.go"] = g.schemas()
	return files, nil
}

// Generate renders and writes all files in parallel.
func (g *Generator) Generate(ctx context.Context) error {
	files, err := g.Files()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(g.graph.Target, 0o755); err != nil {
		return fmt.Errorf("gen: create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.graph.Workers)
	for name, f := range files {
		name, f := name, f
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.writeFile(f, name)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders the file and writes it to the target directory. Files
// are rendered before writing, so a failure never leaves a partial file.
func (g *Generator) writeFile(f *jen.File, name string) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("gen: render %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(g.graph.Target, name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("gen: write %s: %w", name, err)
	}
	return nil
}

func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.graph.Package)
	if g.graph.Header != "" {
		f.HeaderComment(g.graph.Header)
	}
	return f
}

// schemas generates the file listing the descriptors of all types.
func (g *Generator) schemas() *jen.File {
	f := g.newFile()
	vars := make([]jen.Code, len(g.graph.Nodes))
	for i, t := range g.graph.Nodes {
		vars[i] = jen.Id(t.SchemaVar())
	}
	f.Comment("Schemas holds the schema descriptors of all entities, in declaration order.")
	f.Var().Id("Schemas").Op("=").Index().Op("*").Qual(schemaPkg, "Descriptor").Custom(multi("{", "}"), vars...)
	return f
}

// entity generates the file of a single type: the field constants, the
// schema descriptor and the typed entity wrapper.
func (g *Generator) entity(t *Type) (*jen.File, error) {
	f := g.newFile()
	f.Commentf("Field identifiers of the %s entity.", t.Name)
	f.Const().DefsFunc(func(grp *jen.Group) {
		for _, fd := range t.Fields {
			grp.Id(fd.Constant(t)).Op("=").Lit(fd.Name)
		}
	})

	builders := make([]jen.Code, 0, len(t.Fields)+1)
	builders = append(builders, jen.Lit(t.Entity).Op(",").Lit(t.Table))
	for _, fd := range t.Fields {
		b, err := fieldBuilder(t, fd)
		if err != nil {
			return nil, err
		}
		builders = append(builders, b)
	}
	f.Commentf("%s is the schema descriptor of the %s entity.", t.SchemaVar(), t.Name)
	f.Var().Id(t.SchemaVar()).Op("=").Qual(schemaPkg, "MustNamed").Custom(multi("(", ")"), builders...)

	r := t.Receiver()
	f.Commentf("%s is a tracked %s entity.", t.Name, t.Name)
	f.Type().Id(t.Name).Struct(jen.Op("*").Qual(trackPkg, "Entity"))

	f.Commentf("New%s returns an unsaved %s.", t.Name, t.Name)
	f.Func().Id("New"+t.Name).Params().Op("*").Id(t.Name).Block(
		jen.Return(jen.Op("&").Id(t.Name).Values(jen.Dict{
			jen.Id("Entity"): jen.Qual(trackPkg, "New").Call(jen.Id(t.SchemaVar())),
		})),
	)

	f.Commentf("Load%s returns a %s loaded with the given column values.", t.Name, t.Name)
	f.Func().Id("Load"+t.Name).Params(jen.Id("values").Op("...").Any()).Params(jen.Op("*").Id(t.Name), jen.Error()).Block(
		jen.List(jen.Id("e"), jen.Err()).Op(":=").Qual(trackPkg, "Load").Call(jen.Id(t.SchemaVar()), jen.Id("values")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Op("&").Id(t.Name).Values(jen.Dict{jen.Id("Entity"): jen.Id("e")}), jen.Nil()),
	)

	for _, fd := range t.Fields {
		name, typ := fd.StructField(), goType(fd.Type)
		get := []jen.Code{
			jen.List(jen.Id("v"), jen.Id("_")).Op(":=").Id(r).Dot("Get").Call(jen.Id(fd.Constant(t))),
		}
		if fd.Type == field.TypeOther {
			get = append(get, jen.Return(jen.Id("v")))
		} else {
			get = append(get,
				jen.List(jen.Id("x"), jen.Id("_")).Op(":=").Id("v").Assert(typ),
				jen.Return(jen.Id("x")),
			)
		}
		f.Commentf("%s returns the value of the %q field.", name, fd.Name)
		f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id(name).Params().Add(typ).Block(get...)

		f.Commentf("Set%s sets the value of the %q field.", name, fd.Name)
		f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("Set"+name).Params(jen.Id("v").Add(typ)).Op("*").Id(t.Name).Block(
			jen.Id("_").Op("=").Id(r).Dot("Set").Call(jen.Id(fd.Constant(t)), jen.Id("v")),
			jen.Return(jen.Id(r)),
		)
	}
	return f, nil
}

// fieldBuilder returns the field builder expression of a field.
func fieldBuilder(t *Type, fd *Field) (jen.Code, error) {
	c := jen.Qual(fieldPkg, builderFunc(fd.Type)).Call(jen.Lit(fd.Name))
	if fd.StorageKey != "" {
		c = c.Dot("StorageKey").Call(jen.Lit(fd.StorageKey))
	}
	if fd.PrimaryKey {
		c = c.Dot("PrimaryKey").Call()
	}
	if fd.Default != nil {
		def, err := defaultValue(fd)
		if err != nil {
			return nil, NewSchemaError(t.Entity, fd.Name, "unsupported default", err)
		}
		c = c.Dot("Default").Call(def)
	}
	if fd.Comment != "" {
		c = c.Dot("Comment").Call(jen.Lit(fd.Comment))
	}
	return c, nil
}

// multi returns the options of a list with one item per line.
func multi(opening, closing string) jen.Options {
	return jen.Options{Open: opening, Close: closing, Separator: ",", Multi: true}
}

func builderFunc(t field.Type) string {
	switch t {
	case field.TypeBool:
		return "Bool"
	case field.TypeInt:
		return "Int"
	case field.TypeInt64:
		return "Int64"
	case field.TypeUint64:
		return "Uint64"
	case field.TypeFloat64:
		return "Float"
	case field.TypeString:
		return "String"
	case field.TypeBytes:
		return "Bytes"
	case field.TypeTime:
		return "Time"
	case field.TypeUUID:
		return "UUID"
	default:
		return "Any"
	}
}

// defaultValue returns the expression of the default of a field.
func defaultValue(fd *Field) (jen.Code, error) {
	switch v := fd.Default.(type) {
	case bool, string, int, int64, uint64, float64:
		return jen.Lit(v), nil
	case []byte:
		return jen.Index().Byte().Call(jen.Lit(string(v))), nil
	case uuid.UUID:
		return jen.Qual(uuidPkg, "MustParse").Call(jen.Lit(v.String())), nil
	case time.Time:
		return jen.Qual("time", "Unix").Call(jen.Lit(v.Unix()), jen.Lit(int64(v.Nanosecond()))).Dot("UTC").Call(), nil
	}
	switch fd.Generator {
	case "uuid":
		return jen.Qual(uuidPkg, "New"), nil
	case "now":
		return jen.Qual("time", "Now"), nil
	}
	return nil, fmt.Errorf("default of type %T can not be generated", fd.Default)
}

// goType returns the Go type of a field type.
func goType(t field.Type) *jen.Statement {
	switch t {
	case field.TypeBool:
		return jen.Bool()
	case field.TypeInt:
		return jen.Int()
	case field.TypeInt64:
		return jen.Int64()
	case field.TypeUint64:
		return jen.Uint64()
	case field.TypeFloat64:
		return jen.Float64()
	case field.TypeString:
		return jen.String()
	case field.TypeBytes:
		return jen.Index().Byte()
	case field.TypeTime:
		return jen.Qual("time", "Time")
	case field.TypeUUID:
		return jen.Qual(uuidPkg, "UUID")
	default:
		return jen.Any()
	}
}
