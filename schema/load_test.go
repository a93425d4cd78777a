package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/internal/fixture"
)

func pointAndLine() *descriptorpb.FileDescriptorSet {
	return fixture.Set(
		fixture.File("geo/point.proto", "geo",
			fixture.Msg("Point",
				fixture.Doc(" A position on the plane.\n"),
				fixture.Scalar("x", 1, fixture.Int32),
				fixture.Scalar("y", 2, fixture.Int32))),
		fixture.File("geo/line.proto", "geo",
			fixture.Import("geo/point.proto"),
			fixture.Msg("Line",
				fixture.Ref("start", 1, ".geo.Point"),
				fixture.Ref("end", 2, ".geo.Point"))),
	)
}

func mustLoad(t *testing.T, set *descriptorpb.FileDescriptorSet) *Graph {
	t.Helper()
	g, err := FromFileDescriptorSet(set)
	require.NoError(t, err)
	return g
}

func lookup(t *testing.T, g *Graph, name string) *Node {
	t.Helper()
	id, ok := g.Lookup(name)
	require.True(t, ok, "missing %s", name)
	return g.Node(id)
}

func TestLoadCrossFileReference(t *testing.T) {
	g := mustLoad(t, pointAndLine())

	require.Len(t, g.Files(), 2)
	line := g.File("geo/line.proto")
	require.NotNil(t, line)
	assert.Equal(t, "geo", line.Package)
	assert.Equal(t, "proto3", line.Syntax)
	assert.Equal(t, []string{"geo/point.proto"}, line.Dependencies)

	point := lookup(t, g, ".geo.Point")
	assert.Equal(t, KindType, point.Kind)
	assert.Equal(t, "geo/point.proto", point.File)
	assert.Equal(t, " A position on the plane.\n", point.Comment)

	start := lookup(t, g, ".geo.Line.start")
	assert.Equal(t, ScalarMessage, start.Field.Scalar)
	assert.Equal(t, point.ID, start.Field.Ref)
	assert.Equal(t, ValueNull, start.Field.Default.Kind)
	assert.False(t, start.Field.Default.Declared)
}

func TestLoadUnresolvedImport(t *testing.T) {
	set := fixture.Set(
		fixture.File("geo/line.proto", "geo",
			fixture.Import("geo/point.proto"),
			fixture.Msg("Line", fixture.Ref("start", 1, ".geo.Point"))),
	)
	g := mustLoad(t, set)

	start := lookup(t, g, ".geo.Line.start")
	assert.Equal(t, NoNode, start.Field.Ref)
	assert.Equal(t, ".geo.Point", start.Field.RefName)
}

func TestLoadMapField(t *testing.T) {
	set := fixture.Set(fixture.File("m.proto", "pkg",
		fixture.Msg("Item", fixture.Scalar("id", 1, fixture.Int32)),
		fixture.Msg("Bag",
			fixture.Map("labels", 1, fixture.String, fixture.String, ""),
			fixture.Map("items", 2, fixture.Int64, fixture.Message, ".pkg.Item"))))
	g := mustLoad(t, set)

	labels := lookup(t, g, ".pkg.Bag.labels").Field
	assert.True(t, labels.Map)
	assert.False(t, labels.Repeated())
	assert.Equal(t, ScalarString, labels.Key)
	assert.Equal(t, ScalarString, labels.Scalar)
	assert.Equal(t, ValueMap, labels.Default.Kind)

	items := lookup(t, g, ".pkg.Bag.items").Field
	assert.Equal(t, ScalarInt64, items.Key)
	assert.Equal(t, ScalarMessage, items.Scalar)
	assert.Equal(t, lookup(t, g, ".pkg.Item").ID, items.Ref)

	_, ok := g.Lookup(".pkg.Bag.LabelsEntry")
	assert.False(t, ok, "map entries are folded into their field")
}

func TestLoadOneofsAndOptional(t *testing.T) {
	set := fixture.Set(fixture.File("s.proto", "pkg",
		fixture.Msg("Shape",
			fixture.Oneof("kind",
				fixture.Scalar("circle", 1, fixture.Double),
				fixture.Scalar("square", 2, fixture.Double)),
			fixture.Optional("nick", 3, fixture.String),
			fixture.Repeated("tags", 4, fixture.Int32))))
	g := mustLoad(t, set)

	shape := lookup(t, g, ".pkg.Shape")
	require.Len(t, shape.Type.Oneofs, 1, "synthetic oneofs are dropped")
	assert.Equal(t, "kind", shape.Type.Oneofs[0].Name)
	assert.Len(t, shape.Type.Oneofs[0].Fields, 2)

	nick := lookup(t, g, ".pkg.Shape.nick").Field
	assert.True(t, nick.Proto3Optional)
	assert.Equal(t, NoOneof, nick.Oneof)

	circle := lookup(t, g, ".pkg.Shape.circle").Field
	assert.Equal(t, 0, circle.Oneof)

	tags := lookup(t, g, ".pkg.Shape.tags").Field
	assert.True(t, tags.Repeated())
	assert.True(t, tags.Packed, "proto3 repeated scalars pack by default")
	assert.Equal(t, ValueList, tags.Default.Kind)
}

func TestLoadDefaults(t *testing.T) {
	set := fixture.Set(fixture.File("d.proto", "pkg", fixture.Proto2(),
		fixture.Msg("Defaults",
			fixture.WithDefault("count", 1, fixture.Int32, "7"),
			fixture.WithDefault("ratio", 2, fixture.Double, "inf"),
			fixture.WithDefault("name", 3, fixture.String, "hi"),
			fixture.WithDefault("flag", 4, fixture.Bool, "true"),
			fixture.WithDefault("big", 5, fixture.Int64, "-42"),
			fixture.Scalar("plain", 6, fixture.Uint32))))
	g := mustLoad(t, set)

	field := func(name string) Value { return lookup(t, g, ".pkg.Defaults."+name).Field.Default }

	assert.Equal(t, Value{Kind: ValueNumber, Text: "7", Declared: true}, field("count"))
	assert.Equal(t, Value{Kind: ValueNumber, Text: "Infinity", Declared: true}, field("ratio"))
	assert.Equal(t, Value{Kind: ValueString, Text: "hi", Declared: true}, field("name"))
	assert.Equal(t, Value{Kind: ValueBool, Bool: true, Declared: true}, field("flag"))
	assert.Equal(t, Value{Kind: ValueNumber, Text: "-42", Declared: true}, field("big"))
	assert.Equal(t, Value{Kind: ValueNumber, Text: "0"}, field("plain"))
}

func TestLoadEnumDefaultIsFirstValue(t *testing.T) {
	set := fixture.Set(fixture.File("e.proto", "pkg",
		fixture.EnumType("Color", "COLOR_UNSPECIFIED", "RED"),
		fixture.Msg("Paint", fixture.EnumRef("color", 1, ".pkg.Color"))))
	g := mustLoad(t, set)

	color := lookup(t, g, ".pkg.Paint.color").Field
	assert.Equal(t, ScalarEnum, color.Scalar)
	assert.Equal(t, Value{Kind: ValueEnum, Text: "COLOR_UNSPECIFIED"}, color.Default)

	enum := lookup(t, g, ".pkg.Color")
	assert.Equal(t, []EnumValue{{Name: "COLOR_UNSPECIFIED"}, {Name: "RED", Number: 1}}, enum.Enum.Values)
}

func TestLoadServiceAndExtension(t *testing.T) {
	set := fixture.Set(fixture.File("svc.proto", "pkg", fixture.Proto2(),
		fixture.Msg("Req", fixture.Extensions(100, 200)),
		fixture.Msg("Resp"),
		fixture.Service("Greeter",
			fixture.Method("SayHello", ".pkg.Req", ".pkg.Resp"),
			fixture.ServerStream(fixture.Method("Watch", ".pkg.Req", ".pkg.Resp"))),
		fixture.Extend(".pkg.Req", "trace", 100, fixture.String)))
	g := mustLoad(t, set)

	hello := lookup(t, g, ".pkg.Greeter.SayHello")
	assert.Equal(t, KindMethod, hello.Kind)
	assert.Equal(t, lookup(t, g, ".pkg.Req").ID, hello.Method.Request)
	assert.Equal(t, lookup(t, g, ".pkg.Resp").ID, hello.Method.Response)
	assert.False(t, hello.Method.ServerStreaming)
	assert.True(t, lookup(t, g, ".pkg.Greeter.Watch").Method.ServerStreaming)

	trace := lookup(t, g, ".pkg.trace")
	assert.Equal(t, ".pkg.Req", trace.Field.Extendee)
	assert.Equal(t, "trace", trace.Field.JSONName)
	assert.Contains(t, g.File("svc.proto").Decls, trace.ID)
	assert.Empty(t, lookup(t, g, ".pkg.Req").Type.Fields)
}

func TestLoadEmptySet(t *testing.T) {
	_, err := FromFileDescriptorSet(&descriptorpb.FileDescriptorSet{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSchema))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestLoadRejectsGroups(t *testing.T) {
	file := fixture.File("search.proto", "pkg", fixture.Proto2(),
		fixture.Msg("Search", fixture.Nested("Result", fixture.Scalar("url", 1, fixture.String))))
	search := file.MessageType[0]
	search.Field = append(search.Field, &descriptorpb.FieldDescriptorProto{
		Name:     proto.String("result"),
		Number:   proto.Int32(1),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_GROUP.Enum(),
		TypeName: proto.String(".pkg.Search.Result"),
	})

	_, err := FromFileDescriptorSet(fixture.Set(file))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSchema))
	assert.Contains(t, err.Error(), "pkg.Search.result is a group field")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestFromCodeGeneratorRequest(t *testing.T) {
	req := &pluginpb.CodeGeneratorRequest{ProtoFile: pointAndLine().GetFile()}
	g, err := FromCodeGeneratorRequest(req)
	require.NoError(t, err)
	assert.Len(t, g.Files(), 2)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	set := pointAndLine()

	write := func(name string, s *descriptorpb.FileDescriptorSet) string {
		data, err := proto.Marshal(s)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}
	full := write("full.pb", set)
	// overlaps the first set; the duplicate file is dropped
	partial := write("partial.pb", fixture.Set(set.GetFile()[0]))

	g, err := LoadFiles(full, partial)
	require.NoError(t, err)
	assert.Len(t, g.Files(), 2)

	garbage := filepath.Join(dir, "garbage.pb")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0o644))
	_, err = LoadFiles(garbage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSchema))

	_, err = LoadFiles(filepath.Join(dir, "missing.pb"))
	require.Error(t, err)
}
