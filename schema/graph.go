// Package schema holds the resolved protocol schema graph that generators
// read. Every node lives in one arena owned by Graph; parents, children and
// references are NodeID indices into that arena.
package schema

import (
	"strings"

	"github.com/teranos/pbts/errors"
)

// NodeID indexes a node in its Graph.
type NodeID int32

// NoNode marks an absent parent or an unresolved reference.
const NoNode NodeID = -1

// Kind is the closed set of schema node kinds.
type Kind uint8

const (
	KindNamespace Kind = iota
	KindType
	KindEnum
	KindService
	KindField
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindType:
		return "type"
	case KindEnum:
		return "enum"
	case KindService:
		return "service"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Node is one declaration in the schema graph. Exactly one payload pointer
// matching Kind is set; namespaces and services carry none.
type Node struct {
	ID       NodeID
	Kind     Kind
	Name     string
	FullName string // leading dot, e.g. ".geo.Line.Segment"; "" for the root
	Parent   NodeID
	File     string // origin schema file; "" for namespaces
	Children []NodeID
	Comment  string

	Type   *TypeInfo
	Enum   *EnumInfo
	Field  *FieldInfo
	Method *MethodInfo
}

// TypeInfo is the payload of a message type.
type TypeInfo struct {
	Fields []NodeID // declared fields in order; excludes nested extensions
	Oneofs []Oneof
}

// Oneof groups mutually exclusive fields of one type.
type Oneof struct {
	Name   string
	Fields []NodeID
}

// EnumInfo is the payload of an enum.
type EnumInfo struct {
	Values     []EnumValue // declared order, aliases kept
	AllowAlias bool
}

// EnumValue is one enum member.
type EnumValue struct {
	Name    string
	Number  int32
	Comment string
}

// MethodInfo is the payload of a service method.
type MethodInfo struct {
	RequestName     string
	ResponseName    string
	Request         NodeID
	Response        NodeID
	ClientStreaming bool
	ServerStreaming bool
}

// File is one origin schema file and its top-level declarations.
type File struct {
	Path         string
	Package      string
	Syntax       string
	Dependencies []string
	Decls        []NodeID // declaration order
}

// Graph owns every schema node.
type Graph struct {
	nodes      []Node
	byName     map[string]NodeID
	files      []*File
	fileByPath map[string]*File
}

// NewGraph returns a graph holding only the root namespace.
func NewGraph() *Graph {
	g := &Graph{
		byName:     make(map[string]NodeID),
		fileByPath: make(map[string]*File),
	}
	g.add(Node{Kind: KindNamespace, Parent: NoNode})
	return g
}

// Root is the unnamed top-level namespace.
func (g *Graph) Root() NodeID { return 0 }

// Len reports the number of nodes, including the root.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node for id. The pointer stays valid until the next
// mutation of the graph.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Valid reports whether id names a node in this graph.
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Lookup finds a node by fully qualified name, with or without leading dot.
func (g *Graph) Lookup(fullName string) (NodeID, bool) {
	if fullName != "" && !strings.HasPrefix(fullName, ".") {
		fullName = "." + fullName
	}
	id, ok := g.byName[fullName]
	return id, ok
}

// Files returns the schema files in load order.
func (g *Graph) Files() []*File { return g.files }

// File returns the schema file with the given path, or nil.
func (g *Graph) File(path string) *File { return g.fileByPath[path] }

// Namespace returns the namespace for a dotted package name, creating the
// chain of namespaces as needed. An empty package is the root.
func (g *Graph) Namespace(pkg string) NodeID {
	id := g.Root()
	if pkg == "" {
		return id
	}
	for _, part := range strings.Split(pkg, ".") {
		full := g.nodes[id].FullName + "." + part
		if existing, ok := g.byName[full]; ok {
			id = existing
			continue
		}
		id = g.addChild(id, Node{Kind: KindNamespace, Name: part})
	}
	return id
}

// AddFile registers an origin schema file. Adding the same path twice
// returns the existing file.
func (g *Graph) AddFile(path, pkg string) *File {
	if f, ok := g.fileByPath[path]; ok {
		return f
	}
	f := &File{Path: path, Package: pkg}
	g.files = append(g.files, f)
	g.fileByPath[path] = f
	g.Namespace(pkg)
	return f
}

// AddType declares a message type under parent, which is a namespace or type.
func (g *Graph) AddType(parent NodeID, file *File, name, comment string) NodeID {
	return g.declare(parent, file, Node{Kind: KindType, Name: name, Comment: comment, Type: &TypeInfo{}})
}

// AddEnum declares an enum under parent.
func (g *Graph) AddEnum(parent NodeID, file *File, name, comment string, info EnumInfo) NodeID {
	return g.declare(parent, file, Node{Kind: KindEnum, Name: name, Comment: comment, Enum: &info})
}

// AddService declares a service under a namespace.
func (g *Graph) AddService(parent NodeID, file *File, name, comment string) NodeID {
	return g.declare(parent, file, Node{Kind: KindService, Name: name, Comment: comment})
}

// AddMethod declares a method on a service.
func (g *Graph) AddMethod(service NodeID, name, comment string, info MethodInfo) NodeID {
	info.Request, info.Response = NoNode, NoNode
	file := g.fileByPath[g.nodes[service].File]
	return g.declare(service, file, Node{Kind: KindMethod, Name: name, Comment: comment, Method: &info})
}

// AddField declares a field on a type, or an extension field when
// info.Extendee is set. Extensions are declared under a namespace or type
// but are never part of the type's field list.
func (g *Graph) AddField(parent NodeID, file *File, name, comment string, info FieldInfo) NodeID {
	info.Ref = NoNode
	info.Oneof = NoOneof
	id := g.declare(parent, file, Node{Kind: KindField, Name: name, Comment: comment, Field: &info})
	if info.Extendee == "" && g.nodes[parent].Kind == KindType {
		g.nodes[parent].Type.Fields = append(g.nodes[parent].Type.Fields, id)
	}
	return id
}

// AddOneof groups fields of a type under one oneof name and returns its index.
func (g *Graph) AddOneof(typ NodeID, name string, fields ...NodeID) int {
	info := g.nodes[typ].Type
	index := len(info.Oneofs)
	info.Oneofs = append(info.Oneofs, Oneof{Name: name, Fields: fields})
	for _, f := range fields {
		g.nodes[f].Field.Oneof = index
	}
	return index
}

// Resolve binds field and method references to nodes by full name.
// References that cannot be bound, or that bind to the wrong kind, stay
// NoNode; generators report them per occurrence.
func (g *Graph) Resolve() {
	for i := range g.nodes {
		n := &g.nodes[i]
		switch n.Kind {
		case KindField:
			f := n.Field
			if f.RefName == "" {
				continue
			}
			want := KindType
			if f.Scalar == ScalarEnum {
				want = KindEnum
			}
			f.Ref = g.bind(f.RefName, want)
		case KindMethod:
			n.Method.Request = g.bind(n.Method.RequestName, KindType)
			n.Method.Response = g.bind(n.Method.ResponseName, KindType)
		case KindNamespace, KindType, KindEnum, KindService:
		default:
			panic(errors.AssertionFailedf("unknown node kind %d", n.Kind))
		}
	}
}

func (g *Graph) bind(name string, want Kind) NodeID {
	id, ok := g.Lookup(name)
	if !ok || g.nodes[id].Kind != want {
		return NoNode
	}
	return id
}

func (g *Graph) declare(parent NodeID, file *File, n Node) NodeID {
	if file != nil {
		n.File = file.Path
	}
	id := g.addChild(parent, n)
	if file != nil && g.nodes[parent].Kind == KindNamespace {
		file.Decls = append(file.Decls, id)
	}
	return id
}

func (g *Graph) addChild(parent NodeID, n Node) NodeID {
	n.Parent = parent
	n.FullName = g.nodes[parent].FullName + "." + n.Name
	id := g.add(n)
	g.nodes[parent].Children = append(g.nodes[parent].Children, id)
	return id
}

func (g *Graph) add(n Node) NodeID {
	id := NodeID(len(g.nodes))
	n.ID = id
	g.nodes = append(g.nodes, n)
	if n.FullName != "" {
		g.byName[n.FullName] = id
	}
	return id
}
