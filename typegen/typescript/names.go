package typescript

import (
	"strings"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/util"
)

// Unresolved is the placeholder type emitted for references that could not
// be bound. The file is reported as failed, so the placeholder never ships.
const Unresolved = "any"

// Role tells apart the references a declaration holds.
type Role uint8

const (
	RoleField Role = iota
	RoleRequest
	RoleResponse
)

func (r Role) String() string {
	switch r {
	case RoleField:
		return "field"
	case RoleRequest:
		return "request"
	case RoleResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Reference is one occurrence of a type reference in the schema.
type Reference struct {
	From   string // full name of the referring field or method
	Role   Role
	Target schema.NodeID
	Name   string // expected full name of the target
}

// FieldReference is the message or enum reference of a field node.
func FieldReference(n *schema.Node) Reference {
	return Reference{From: n.FullName, Role: RoleField, Target: n.Field.Ref, Name: n.Field.RefName}
}

// RequestReference is the request type of a method node.
func RequestReference(m *schema.Node) Reference {
	return Reference{From: m.FullName, Role: RoleRequest, Target: m.Method.Request, Name: m.Method.RequestName}
}

// ResponseReference is the response type of a method node.
func ResponseReference(m *schema.Node) Reference {
	return Reference{From: m.FullName, Role: RoleResponse, Target: m.Method.Response, Name: m.Method.ResponseName}
}

// LocalAlias is a file-level name for a local declaration that is shadowed
// inside a type namespace.
type LocalAlias struct {
	Alias  string
	Target string // qualified name at file level
	Value  bool   // classes and enums need a value binding as well as a type
}

// Resolver turns schema references into TypeScript names as seen from one
// output file, importing foreign files on demand.
type Resolver struct {
	graph   *schema.Graph
	file    string
	naming  util.Naming
	imports *ImportTable
	diags   []error
	seen    map[string]bool
	locals  map[string]*LocalAlias
	order   []*LocalAlias
}

// NewResolver creates the resolver for declarations of the schema file at
// file, which are emitted into the output owning imports.
func NewResolver(g *schema.Graph, file string, naming util.Naming, imports *ImportTable) *Resolver {
	return &Resolver{
		graph:   g,
		file:    file,
		naming:  naming,
		imports: imports,
		seen:    make(map[string]bool),
		locals:  make(map[string]*LocalAlias),
	}
}

// TypeName returns the shape name of the referenced node: I-prefixed for
// messages, the plain name for enums.
func (r *Resolver) TypeName(ref Reference) string {
	return r.resolve(ref, true)
}

// ClassName returns the runtime class or enum name of the referenced node.
func (r *Resolver) ClassName(ref Reference) string {
	return r.resolve(ref, false)
}

// DeclName is the keyword-safe simple name a node is declared under.
func DeclName(n *schema.Node) string {
	return SafeName(n.Name)
}

// InterfaceName is the declared name of a message's shape interface.
func InterfaceName(n *schema.Node) string {
	return "I" + n.Name
}

func (r *Resolver) resolve(ref Reference, shape bool) string {
	if ref.Target == schema.NoNode || !r.graph.Valid(ref.Target) {
		r.report(ref, errors.NewUnresolvedReference(ref.From, ref.Name))
		return Unresolved
	}
	n := r.graph.Node(ref.Target)

	var segments []string
	for id := ref.Target; id != schema.NoNode; {
		node := r.graph.Node(id)
		if node.Kind == schema.KindNamespace {
			break
		}
		segments = append(segments, DeclName(node))
		id = node.Parent
		if id != schema.NoNode && r.graph.Node(id).Kind != schema.KindType {
			break
		}
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	if shape && n.Kind == schema.KindType {
		segments[len(segments)-1] = InterfaceName(n)
	}
	qualified := strings.Join(segments, ".")

	if n.File == r.file {
		if r.shadowed(ref.From, segments[0]) {
			return r.localAlias(ref, qualified, !(shape && n.Kind == schema.KindType))
		}
		return qualified
	}
	alias, err := r.imports.ImportFile(OutputPath(n.File, r.naming))
	if err != nil {
		r.report(ref, errors.Wrapf(err, "%s references %s", ref.From, ref.Name))
		return Unresolved
	}
	return alias + "." + qualified
}

// shadowed reports whether name, printed at the place the referrer is
// emitted, would bind to a declaration of an enclosing type namespace.
// Fields and methods are emitted inside the namespaces of their declaring
// type's ancestors; extensions inside the namespace of their declaring type.
func (r *Resolver) shadowed(from, name string) bool {
	id, ok := r.graph.Lookup(from)
	if !ok {
		return false
	}
	n := r.graph.Node(id)
	scope := n.Parent
	if n.Kind != schema.KindField || n.Field.Extendee == "" {
		scope = r.graph.Node(scope).Parent
	}
	for ; scope != schema.NoNode && r.graph.Node(scope).Kind == schema.KindType; scope = r.graph.Node(scope).Parent {
		if r.declares(scope, name) {
			return true
		}
	}
	return false
}

// declares reports whether the namespace merged with typ exports name.
func (r *Resolver) declares(typ schema.NodeID, name string) bool {
	for _, child := range r.graph.Node(typ).Children {
		c := r.graph.Node(child)
		switch c.Kind {
		case schema.KindType:
			if DeclName(c) == name || InterfaceName(c) == name {
				return true
			}
		case schema.KindEnum:
			if DeclName(c) == name {
				return true
			}
		case schema.KindField:
			if c.Field.Extendee != "" && DeclName(c) == name {
				return true
			}
		case schema.KindNamespace, schema.KindService, schema.KindMethod:
		default:
			panic(errors.AssertionFailedf("unknown node kind %d", c.Kind))
		}
	}
	return false
}

func (r *Resolver) localAlias(ref Reference, qualified string, value bool) string {
	if a, ok := r.locals[qualified]; ok {
		a.Value = a.Value || value
		return a.Alias
	}
	alias, err := r.imports.LocalAlias(strings.ReplaceAll(qualified, ".", "_"))
	if err != nil {
		r.report(ref, errors.Wrapf(err, "%s references %s", ref.From, ref.Name))
		return Unresolved
	}
	a := &LocalAlias{Alias: alias, Target: qualified, Value: value}
	r.locals[qualified] = a
	r.order = append(r.order, a)
	return alias
}

// LocalAliases returns the file-level aliases in first-use order.
func (r *Resolver) LocalAliases() []*LocalAlias {
	return r.order
}

// report records err once per referencing declaration, role and target; a
// field is rendered several times but is one occurrence.
func (r *Resolver) report(ref Reference, err error) {
	key := ref.From + "\x00" + ref.Role.String() + "\x00" + ref.Name
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.diags = append(r.diags, err)
}

// Err joins every diagnostic recorded so far, nil when there are none.
func (r *Resolver) Err() error {
	return errors.Join(r.diags...)
}

// Diagnostics returns the recorded diagnostics in order of occurrence.
func (r *Resolver) Diagnostics() []error {
	return r.diags
}
