// Package typescript renders schema files as TypeScript modules built on the
// protobufjs Reader and a message/client base runtime.
package typescript

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/util"
)

// Header is the first line of every generated file.
const Header = "/* eslint-disable */\n// Code generated by pbts. DO NOT EDIT.\n"

// Unit is one output file: the top-level declarations of one schema file,
// grouped by kind in declaration order.
type Unit struct {
	Source   *schema.File
	Output   string // output-root-relative, slash separated
	Enums    []schema.NodeID
	Types    []schema.NodeID
	Services []schema.NodeID
	Fields   []schema.NodeID // loose extension fields
}

// FileOptions controls the rendering of one file.
type FileOptions struct {
	Naming        util.Naming
	RuntimeModule string
	CoreModule    string
	StrictDecode  bool
}

// FileEmitter renders one Unit. An emitter owns its import table and buffer
// and only reads the graph, so emitters for different units run in parallel.
type FileEmitter struct {
	graph    *schema.Graph
	unit     Unit
	opts     FileOptions
	imports  *ImportTable
	resolver *Resolver
	types    typeContext
	out      CodeBuilder
	log      *zap.SugaredLogger
}

// NewFileEmitter prepares the emitter for unit.
func NewFileEmitter(g *schema.Graph, unit Unit, opts FileOptions) *FileEmitter {
	imports := NewImportTable(unit.Output, opts.RuntimeModule, opts.CoreModule)
	resolver := NewResolver(g, unit.Source.Path, opts.Naming, imports)
	return &FileEmitter{
		graph:    g,
		unit:     unit,
		opts:     opts,
		imports:  imports,
		resolver: resolver,
		types:    typeContext{resolver: resolver, imports: imports},
		log: logger.ChildLogger(logger.ComponentLogger("typegen.typescript"),
			logger.FieldFile, unit.Source.Path),
	}
}

// EmitFile renders unit to TypeScript source.
func EmitFile(g *schema.Graph, unit Unit, opts FileOptions) ([]byte, error) {
	return NewFileEmitter(g, unit, opts).Emit()
}

// Emit renders the unit. Every unresolved reference in the file is
// reported; no content is returned when any is found.
func (e *FileEmitter) Emit() ([]byte, error) {
	for _, id := range e.unit.Enums {
		e.out.Blank()
		e.enum(id)
	}
	for _, id := range e.unit.Types {
		e.out.Blank()
		e.message(id)
	}
	for _, id := range e.unit.Services {
		e.out.Blank()
		e.service(id)
	}
	if len(e.unit.Fields) > 0 {
		e.out.Blank()
		for _, id := range e.unit.Fields {
			e.extension(id)
		}
	}
	e.localAliases()

	if err := e.resolver.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to emit %s", e.unit.Source.Path)
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("// source: " + e.unit.Source.Path + "\n")
	if e.imports.Len() > 0 {
		b.WriteByte('\n')
		b.WriteString(e.imports.Render())
	}
	b.WriteByte('\n')
	b.WriteString(e.out.String())

	e.log.Debugw("Emitted file",
		logger.FieldOutput, e.unit.Output,
		logger.FieldSize, b.Len(),
		"imports", e.imports.Len())
	return []byte(b.String()), nil
}

// extension binds a loose extension field to its runtime metadata.
func (e *FileEmitter) extension(id schema.NodeID) {
	n := e.graph.Node(id)
	e.out.Doc(n.Comment)
	e.out.Linef("export const %s = %s.root.lookup(%s)", DeclName(n), e.imports.Reflection(), jsString(n.FullName))
}

// localAliases binds the file-level names used where a type namespace
// shadows them. They go last: every value use sits inside a function body,
// and class declarations are not hoisted.
func (e *FileEmitter) localAliases() {
	aliases := e.resolver.LocalAliases()
	if len(aliases) == 0 {
		return
	}
	e.out.Blank()
	for _, a := range aliases {
		e.out.Linef("type %s = %s", a.Alias, a.Target)
		if a.Value {
			e.out.Linef("const %s = %s", a.Alias, a.Target)
		}
	}
}

// nested emits the namespace merged with a type, holding its nested enums,
// types and extensions. Nothing is written when the type declares none.
func (e *FileEmitter) nested(id schema.NodeID) {
	n := e.graph.Node(id)
	var enums, types, extensions []schema.NodeID
	for _, child := range n.Children {
		c := e.graph.Node(child)
		switch c.Kind {
		case schema.KindEnum:
			enums = append(enums, child)
		case schema.KindType:
			types = append(types, child)
		case schema.KindField:
			if c.Field.Extendee != "" {
				extensions = append(extensions, child)
			}
		case schema.KindNamespace, schema.KindService, schema.KindMethod:
			panic(errors.AssertionFailedf("%s cannot be nested in type %s", c.Kind, n.FullName))
		default:
			panic(errors.AssertionFailedf("unknown node kind %d", c.Kind))
		}
	}
	if len(enums)+len(types)+len(extensions) == 0 {
		return
	}

	e.out.Blank()
	e.out.Block("export namespace "+DeclName(n), func() {
		for _, child := range enums {
			e.out.Blank()
			e.enum(child)
		}
		for _, child := range types {
			e.out.Blank()
			e.message(child)
		}
		if len(extensions) > 0 {
			e.out.Blank()
			for _, child := range extensions {
				e.extension(child)
			}
		}
	})
}

// OutputPath maps a schema file path onto its generated file: same
// directory, base name converted by naming, extension .ts.
func OutputPath(schemaPath string, naming util.Naming) string {
	dir, base := path.Split(strings.ReplaceAll(schemaPath, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	return dir + naming.Apply(base) + ".ts"
}
