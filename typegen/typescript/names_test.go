package typescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/util"
)

type nestedGraph struct {
	graph             *schema.Graph
	outer, inner      schema.NodeID
	kind, keyword     schema.NodeID
	remote, remoteSub schema.NodeID
}

func buildNestedGraph() nestedGraph {
	g := schema.NewGraph()
	local := g.AddFile("pkg/outer.proto", "pkg")
	remote := g.AddFile("lib/other_file.proto", "pkg")
	ns := g.Namespace("pkg")

	var n nestedGraph
	n.graph = g
	n.outer = g.AddType(ns, local, "Outer", "")
	n.inner = g.AddType(n.outer, local, "Inner", "")
	n.kind = g.AddEnum(n.inner, local, "Kind", "", schema.EnumInfo{Values: []schema.EnumValue{{Name: "A"}}})
	n.keyword = g.AddType(ns, local, "class", "")
	n.remote = g.AddType(ns, remote, "Remote", "")
	n.remoteSub = g.AddType(n.remote, remote, "Sub", "")
	return n
}

func fieldRef(from string, target schema.NodeID, name string) Reference {
	return Reference{From: from, Role: RoleField, Target: target, Name: name}
}

func TestResolverLocalNames(t *testing.T) {
	n := buildNestedGraph()
	table := newTable("pkg/outer.ts")
	r := NewResolver(n.graph, "pkg/outer.proto", util.NamingPreserve, table)

	assert.Equal(t, "IOuter", r.TypeName(fieldRef("f", n.outer, ".pkg.Outer")))
	assert.Equal(t, "Outer", r.ClassName(fieldRef("f", n.outer, ".pkg.Outer")))
	assert.Equal(t, "Outer.IInner", r.TypeName(fieldRef("f", n.inner, ".pkg.Outer.Inner")))
	assert.Equal(t, "Outer.Inner", r.ClassName(fieldRef("f", n.inner, ".pkg.Outer.Inner")))
	assert.Equal(t, "Outer.Inner.Kind", r.TypeName(fieldRef("f", n.kind, ".pkg.Outer.Inner.Kind")))
	assert.Equal(t, "Outer.Inner.Kind", r.ClassName(fieldRef("f", n.kind, ".pkg.Outer.Inner.Kind")))
	assert.Equal(t, "class_", r.ClassName(fieldRef("f", n.keyword, ".pkg.class")))
	assert.Equal(t, "Iclass", r.TypeName(fieldRef("f", n.keyword, ".pkg.class")))

	assert.Zero(t, table.Len(), "local names need no import")
	assert.NoError(t, r.Err())
}

func TestResolverForeignNames(t *testing.T) {
	n := buildNestedGraph()
	table := newTable("pkg/outer.ts")
	r := NewResolver(n.graph, "pkg/outer.proto", util.NamingKebab, table)

	assert.Equal(t, "$other_file.Remote.ISub", r.TypeName(fieldRef("f", n.remoteSub, ".pkg.Remote.Sub")))
	assert.Equal(t, "$other_file.Remote", r.ClassName(fieldRef("g", n.remote, ".pkg.Remote")))
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "import * as $other_file from \"../lib/other-file\"\n", table.Render())
}

func TestResolverUnresolved(t *testing.T) {
	n := buildNestedGraph()
	r := NewResolver(n.graph, "pkg/outer.proto", util.NamingPreserve, newTable("pkg/outer.ts"))

	assert.Equal(t, Unresolved, r.TypeName(fieldRef(".pkg.Outer.a", schema.NoNode, ".pkg.Missing")))
	assert.Equal(t, Unresolved, r.ClassName(fieldRef(".pkg.Outer.a", schema.NoNode, ".pkg.Missing")))
	assert.Equal(t, Unresolved, r.ClassName(fieldRef(".pkg.Outer.b", schema.NoNode, ".pkg.Missing")))

	require.Len(t, r.Diagnostics(), 2, "one diagnostic per referencing declaration")
	err := r.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnresolvedReference))

	var ref *errors.UnresolvedReference
	require.True(t, errors.As(r.Diagnostics()[0], &ref))
	assert.Equal(t, ".pkg.Outer.a", ref.Referrer)
	assert.Equal(t, ".pkg.Missing", ref.Target)
}

func TestResolverUnresolvedPerRole(t *testing.T) {
	g := schema.NewGraph()
	f := g.AddFile("svc.proto", "pkg")
	svc := g.AddService(g.Namespace("pkg"), f, "Echo", "")
	m := g.AddMethod(svc, "Say", "", schema.MethodInfo{RequestName: ".pkg.Missing", ResponseName: ".pkg.Missing"})
	g.Resolve()
	method := g.Node(m)

	r := NewResolver(g, "svc.proto", util.NamingPreserve, newTable("svc.ts"))
	r.TypeName(RequestReference(method))
	r.ClassName(RequestReference(method))
	r.ClassName(ResponseReference(method))

	require.Len(t, r.Diagnostics(), 2, "request and response are separate occurrences")
	assert.True(t, errors.Is(r.Err(), errors.ErrUnresolvedReference))
}

func TestResolverShadowedLocalName(t *testing.T) {
	g := schema.NewGraph()
	f := g.AddFile("pkg/geo.proto", "pkg")
	ns := g.Namespace("pkg")
	g.AddType(ns, f, "Point", "")
	outer := g.AddType(ns, f, "Outer", "")
	g.AddType(outer, f, "Point", "")
	inner := g.AddType(outer, f, "Inner", "")
	field := g.AddField(inner, f, "p", "", schema.FieldInfo{Scalar: schema.ScalarMessage, RefName: ".pkg.Point"})
	top := g.AddField(outer, f, "q", "", schema.FieldInfo{Scalar: schema.ScalarMessage, RefName: ".pkg.Point"})
	g.Resolve()

	table := newTable("pkg/geo.ts")
	r := NewResolver(g, "pkg/geo.proto", util.NamingPreserve, table)

	assert.Equal(t, "$IPoint", r.TypeName(FieldReference(g.Node(field))))
	assert.Equal(t, "$Point", r.ClassName(FieldReference(g.Node(field))))
	assert.Equal(t, "$Point", r.ClassName(FieldReference(g.Node(field))), "alias is reused")
	assert.Equal(t, "Point", r.ClassName(FieldReference(g.Node(top))), "Outer's own fields are declared outside its namespace")

	aliases := r.LocalAliases()
	require.Len(t, aliases, 2)
	assert.Equal(t, LocalAlias{Alias: "$IPoint", Target: "IPoint", Value: false}, *aliases[0])
	assert.Equal(t, LocalAlias{Alias: "$Point", Target: "Point", Value: true}, *aliases[1])
	assert.Zero(t, table.Len(), "local aliases are not imports")
	assert.NoError(t, r.Err())
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		path   string
		naming util.Naming
		want   string
	}{
		{path: "geo/point.proto", naming: util.NamingPreserve, want: "geo/point.ts"},
		{path: "api/UserService.proto", naming: util.NamingKebab, want: "api/user-service.ts"},
		{path: "api/user_service.proto", naming: util.NamingCamel, want: "api/userService.ts"},
		{path: "api/user_service.proto", naming: util.NamingPascal, want: "api/UserService.ts"},
		{path: "root.proto", naming: util.NamingSnake, want: "root.ts"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.path, tt.naming), tt.path)
	}
}
