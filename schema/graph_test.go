package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceChain(t *testing.T) {
	g := NewGraph()
	ns := g.Namespace("a.b.c")

	n := g.Node(ns)
	assert.Equal(t, KindNamespace, n.Kind)
	assert.Equal(t, ".a.b.c", n.FullName)
	assert.Equal(t, "c", n.Name)

	// same package twice reuses the chain
	assert.Equal(t, ns, g.Namespace("a.b.c"))
	assert.Equal(t, g.Root(), g.Namespace(""))

	parent, ok := g.Lookup("a.b")
	require.True(t, ok)
	assert.Equal(t, parent, n.Parent)
}

func TestAddDeclarations(t *testing.T) {
	g := NewGraph()
	f := g.AddFile("geo/line.proto", "geo")
	ns := g.Namespace("geo")

	line := g.AddType(ns, f, "Line", "A line.")
	seg := g.AddType(line, f, "Segment", "")
	color := g.AddEnum(ns, f, "Color", "", EnumInfo{Values: []EnumValue{{Name: "RED"}, {Name: "GREEN", Number: 1}}})
	start := g.AddField(line, f, "start", "", FieldInfo{Tag: 1, JSONName: "start", Scalar: ScalarMessage, RefName: ".geo.Segment"})
	c := g.AddField(line, f, "color", "", FieldInfo{Tag: 2, JSONName: "color", Scalar: ScalarEnum, RefName: ".geo.Color"})

	// only namespace-level declarations belong to the file
	assert.Equal(t, []NodeID{line, color}, f.Decls)
	assert.Equal(t, []NodeID{start, c}, g.Node(line).Type.Fields)
	assert.Equal(t, "geo/line.proto", g.Node(seg).File)
	assert.Equal(t, ".geo.Line.Segment", g.Node(seg).FullName)
	assert.Equal(t, line, g.Node(seg).Parent)

	assert.Equal(t, NoNode, g.Node(start).Field.Ref, "unresolved until Resolve")
	assert.Equal(t, NoOneof, g.Node(start).Field.Oneof)

	g.Resolve()
	assert.Equal(t, NoNode, g.Node(start).Field.Ref, ".geo.Segment does not exist")
	assert.Equal(t, color, g.Node(c).Field.Ref)
}

func TestResolveRejectsWrongKind(t *testing.T) {
	g := NewGraph()
	f := g.AddFile("a.proto", "")
	e := g.AddEnum(g.Root(), f, "E", "", EnumInfo{Values: []EnumValue{{Name: "ZERO"}}})
	m := g.AddType(g.Root(), f, "M", "")
	bad := g.AddField(m, f, "e", "", FieldInfo{Scalar: ScalarMessage, RefName: ".E"})
	good := g.AddField(m, f, "e2", "", FieldInfo{Scalar: ScalarEnum, RefName: ".E"})

	svc := g.AddService(g.Root(), f, "S", "")
	method := g.AddMethod(svc, "Do", "", MethodInfo{RequestName: ".M", ResponseName: ".Missing"})

	g.Resolve()
	assert.Equal(t, NoNode, g.Node(bad).Field.Ref)
	assert.Equal(t, e, g.Node(good).Field.Ref)
	assert.Equal(t, m, g.Node(method).Method.Request)
	assert.Equal(t, NoNode, g.Node(method).Method.Response)
	assert.NotContains(t, f.Decls, method)
}

func TestAddOneof(t *testing.T) {
	g := NewGraph()
	f := g.AddFile("a.proto", "pkg")
	m := g.AddType(g.Namespace("pkg"), f, "Shape", "")
	a := g.AddField(m, f, "circle", "", FieldInfo{Scalar: ScalarDouble})
	b := g.AddField(m, f, "square", "", FieldInfo{Scalar: ScalarDouble})
	plain := g.AddField(m, f, "name", "", FieldInfo{Scalar: ScalarString})

	idx := g.AddOneof(m, "kind", a, b)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, g.Node(a).Field.Oneof)
	assert.Equal(t, 0, g.Node(b).Field.Oneof)
	assert.Equal(t, NoOneof, g.Node(plain).Field.Oneof)
	assert.Equal(t, []Oneof{{Name: "kind", Fields: []NodeID{a, b}}}, g.Node(m).Type.Oneofs)
}

func TestExtensionNotInFieldList(t *testing.T) {
	g := NewGraph()
	f := g.AddFile("a.proto", "")
	m := g.AddType(g.Root(), f, "M", "")
	ext := g.AddField(m, f, "tag", "", FieldInfo{Scalar: ScalarString, Extendee: ".Other"})

	assert.Empty(t, g.Node(m).Type.Fields)
	assert.Contains(t, g.Node(m).Children, ext)
}

func TestAddFileIdempotent(t *testing.T) {
	g := NewGraph()
	a := g.AddFile("x.proto", "p")
	b := g.AddFile("x.proto", "p")
	assert.Same(t, a, b)
	assert.Len(t, g.Files(), 1)
	assert.Same(t, a, g.File("x.proto"))
	assert.Nil(t, g.File("missing.proto"))
}

func TestLookup(t *testing.T) {
	g := NewGraph()
	f := g.AddFile("a.proto", "p")
	id := g.AddType(g.Namespace("p"), f, "M", "")

	for _, name := range []string{"p.M", ".p.M"} {
		got, ok := g.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, id, got)
	}
	_, ok := g.Lookup("p.Missing")
	assert.False(t, ok)
	assert.True(t, g.Valid(id))
	assert.False(t, g.Valid(NoNode))
	assert.False(t, g.Valid(NodeID(g.Len())))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "type", KindType.String())
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, Value{Kind: ValueNumber, Text: "0"}, ZeroValue(ScalarInt64, nil))
	assert.Equal(t, Value{Kind: ValueBool}, ZeroValue(ScalarBool, nil))
	assert.Equal(t, Value{Kind: ValueNull}, ZeroValue(ScalarMessage, nil))
	assert.Equal(t, Value{Kind: ValueEnum, Text: "B", Number: 3},
		ZeroValue(ScalarEnum, []EnumValue{{Name: "B", Number: 3}, {Name: "A", Number: 0}}))
}

func TestFloatLiteral(t *testing.T) {
	assert.Equal(t, "1.5", FloatLiteral(1.5))
	assert.Equal(t, "-0.25", FloatLiteral(-0.25))
	assert.Equal(t, "1e+21", FloatLiteral(1e21))
}
