package typegen

import (
	"path"
	"strings"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/typescript"
)

// Plan groups the top-level declarations of every selected schema file into
// one output unit, in graph file order. Files without declarations produce
// no unit.
func Plan(g *schema.Graph, opts Options) ([]typescript.Unit, error) {
	opts = opts.normalized()

	selected := make(map[string]bool, len(opts.Files))
	for _, path := range opts.Files {
		if g.File(path) == nil {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("file %s is not in the schema", path), errors.ErrInvalidSchema),
				"include the file and its imports in the descriptor set")
		}
		selected[path] = true
	}

	var units []typescript.Unit
	outputs := make(map[string]string)
	for _, f := range g.Files() {
		if len(selected) > 0 && !selected[f.Path] {
			continue
		}
		if len(f.Decls) == 0 {
			continue
		}

		unit := typescript.Unit{Source: f, Output: typescript.OutputPath(f.Path, opts.Naming)}
		if other, ok := outputs[unit.Output]; ok {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("%s and %s both map to %s", other, f.Path, unit.Output), errors.ErrInvalidSchema),
				"choose a naming convention that keeps the file names distinct")
		}
		outputs[unit.Output] = f.Path

		for _, id := range f.Decls {
			n := g.Node(id)
			switch n.Kind {
			case schema.KindEnum:
				unit.Enums = append(unit.Enums, id)
			case schema.KindType:
				unit.Types = append(unit.Types, id)
			case schema.KindService:
				unit.Services = append(unit.Services, id)
			case schema.KindField:
				unit.Fields = append(unit.Fields, id)
			case schema.KindNamespace, schema.KindMethod:
				return nil, errors.AssertionFailedf("%s %s cannot be a top-level declaration of %s", n.Kind, n.FullName, f.Path)
			default:
				return nil, errors.AssertionFailedf("unhandled node kind %d", n.Kind)
			}
		}
		units = append(units, unit)
	}

	companions := companionPaths(units, opts)
	for _, unit := range units {
		if what, ok := companions[unit.Output]; ok {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("%s maps to %s, which is reserved for %s", unit.Source.Path, unit.Output, what), errors.ErrInvalidSchema),
				"rename the schema file or disable the companion output")
		}
	}
	return units, nil
}

// companionPaths lists the files Emit adds next to the planned units,
// keyed by output path. Index files are listed for every package of the
// plan, whether or not its files emit successfully.
func companionPaths(units []typescript.Unit, opts Options) map[string]string {
	paths := make(map[string]string)
	if opts.EmitReflection {
		paths[typescript.ReflectionDocument] = "the reflection document"
		paths[typescript.ReflectionLoaderPath] = "the reflection loader"
	}
	if !opts.EmitIndex || len(units) == 0 {
		return paths
	}

	paths["index.ts"] = "the root index"
	for _, unit := range units {
		for pkg := unit.Source.Package; pkg != ""; pkg = parentPackage(pkg) {
			paths[path.Join(typescript.NamespaceDir(pkg), "index.ts")] = "the index of package " + pkg
		}
	}
	return paths
}

func parentPackage(pkg string) string {
	if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
		return pkg[:i]
	}
	return ""
}
