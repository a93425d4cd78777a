package typescript

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// PackageExport lists the generated files of one package for its index.
type PackageExport struct {
	PackageName string
	Files       []string // output-root-relative paths
}

// Rendered is a generated file that is not tied to one schema file.
type Rendered struct {
	Path    string
	Content []byte
}

// NamespaceDir is the output directory of a package's index: "a.b" -> "a/b",
// the root package -> "".
func NamespaceDir(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

// GenerateIndexFiles renders one index.ts per namespace directory. Each
// index re-exports the files of its package and its child namespaces, and
// binds the namespace metadata. Ancestor namespaces without files of their
// own still get an index so the chain of re-exports is unbroken.
func GenerateIndexFiles(exports []PackageExport) []Rendered {
	files := make(map[string][]string)
	children := make(map[string]map[string]bool)
	seen := map[string]bool{"": true}

	for _, exp := range exports {
		files[exp.PackageName] = append(files[exp.PackageName], exp.Files...)
		pkg := exp.PackageName
		for pkg != "" && !seen[pkg] {
			seen[pkg] = true
			parent, child := splitPackage(pkg)
			if children[parent] == nil {
				children[parent] = make(map[string]bool)
			}
			children[parent][child] = true
			pkg = parent
		}
	}

	// Sort packages for deterministic output
	packages := make([]string, 0, len(seen))
	for pkg := range seen {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	out := make([]Rendered, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, renderIndex(pkg, files[pkg], children[pkg]))
	}
	return out
}

func renderIndex(pkg string, files []string, children map[string]bool) Rendered {
	indexPath := path.Join(NamespaceDir(pkg), "index.ts")

	sortedFiles := append([]string(nil), files...)
	sort.Strings(sortedFiles)
	childNames := make([]string, 0, len(children))
	for child := range children {
		childNames = append(childNames, child)
	}
	sort.Strings(childNames)

	var sb strings.Builder
	sb.WriteString(Header)
	if pkg != "" {
		sb.WriteString("// package: " + pkg + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("import * as %s from %s\n\n", ReflectionAlias, jsString(relativeModule(indexPath, ReflectionModule))))

	for _, f := range sortedFiles {
		sb.WriteString(fmt.Sprintf("export * from %s\n", jsString(relativeModule(indexPath, strings.TrimSuffix(f, ".ts")))))
	}
	for _, child := range childNames {
		sb.WriteString(fmt.Sprintf("export * as %s from %s\n", SafeName(child), jsString("./"+child+"/index")))
	}
	if len(sortedFiles)+len(childNames) > 0 {
		sb.WriteString("\n")
	}

	if pkg == "" {
		sb.WriteString(fmt.Sprintf("export const $namespace = %s.root\n", ReflectionAlias))
	} else {
		sb.WriteString(fmt.Sprintf("export const $namespace = %s.root.lookup(%s)\n", ReflectionAlias, jsString("."+pkg)))
	}
	return Rendered{Path: indexPath, Content: []byte(sb.String())}
}

func splitPackage(pkg string) (parent, child string) {
	i := strings.LastIndexByte(pkg, '.')
	if i < 0 {
		return "", pkg
	}
	return pkg[:i], pkg[i+1:]
}
