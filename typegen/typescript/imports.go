package typescript

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/pbts/errors"
)

// Aliases of the runtime modules every generated file may need.
const (
	ProtobufAlias   = "$protobuf"
	CoreAlias       = "$core"
	ReflectionAlias = "$reflection"
)

// ReflectionModule is the output-root-relative module holding the runtime
// metadata root, without extension.
const ReflectionModule = "_reflection"

// MaxAliasSuffix bounds the numeric suffixes tried when aliases collide.
const MaxAliasSuffix = 99

type importEntry struct {
	alias string
	from  string
}

// ImportTable collects the module imports of one output file. Each target is
// imported once under a stable alias; aliases are handed out in first-use
// order and rendered in that order.
type ImportTable struct {
	self     string
	runtime  string
	core     string
	byTarget map[string]*importEntry
	taken    map[string]bool
	order    []*importEntry
}

// NewImportTable creates the table for the output file at self, a
// slash-separated path relative to the output root.
func NewImportTable(self, runtimeModule, coreModule string) *ImportTable {
	t := &ImportTable{
		self:     self,
		runtime:  runtimeModule,
		core:     coreModule,
		byTarget: make(map[string]*importEntry),
		taken:    make(map[string]bool),
	}
	// runtime aliases are spelled literally in generated code
	for _, alias := range []string{ProtobufAlias, CoreAlias, ReflectionAlias} {
		t.taken[alias] = true
	}
	return t
}

// Protobuf imports the wire runtime.
func (t *ImportTable) Protobuf() string {
	return t.reserved("module:"+t.runtime, ProtobufAlias, t.runtime)
}

// Core imports the message and client base runtime.
func (t *ImportTable) Core() string {
	return t.reserved("module:"+t.core, CoreAlias, t.core)
}

// Reflection imports the metadata loader at the output root.
func (t *ImportTable) Reflection() string {
	return t.reserved("file:"+ReflectionModule, ReflectionAlias, relativeModule(t.self, ReflectionModule))
}

func (t *ImportTable) reserved(key, alias, from string) string {
	if e, ok := t.byTarget[key]; ok {
		return e.alias
	}
	t.register(key, &importEntry{alias: alias, from: from})
	return alias
}

// ImportFile returns the alias under which the generated file at target (an
// output-root-relative path) is reachable, registering the import on first
// use. The file itself needs no import and yields "".
func (t *ImportTable) ImportFile(target string) (string, error) {
	if target == t.self {
		return "", nil
	}
	module := strings.TrimSuffix(target, ".ts")
	return t.importAs("file:"+module, identifier(path.Base(module)), relativeModule(t.self, module))
}

// ImportModule imports a bare module specifier under the suggested alias,
// suffixed when the alias is already used by another target.
func (t *ImportTable) ImportModule(module, suggested string) (string, error) {
	return t.importAs("module:"+module, identifier(strings.TrimPrefix(suggested, "$")), module)
}

// LocalAlias reserves a "$"-prefixed name for a file-level alias of a local
// declaration, so it never collides with an import alias. The alias is not
// rendered as an import.
func (t *ImportTable) LocalAlias(name string) (string, error) {
	key := "local:" + name
	if e, ok := t.byTarget[key]; ok {
		return e.alias, nil
	}
	alias, err := t.allocate("$"+identifier(name), name)
	if err != nil {
		return "", err
	}
	t.byTarget[key] = &importEntry{alias: alias}
	return alias, nil
}

func (t *ImportTable) importAs(key, base, from string) (string, error) {
	if e, ok := t.byTarget[key]; ok {
		return e.alias, nil
	}
	alias, err := t.allocate("$"+base, from)
	if err != nil {
		return "", err
	}
	t.register(key, &importEntry{alias: alias, from: from})
	return alias, nil
}

func (t *ImportTable) register(key string, e *importEntry) {
	t.byTarget[key] = e
	t.order = append(t.order, e)
}

func (t *ImportTable) allocate(base, from string) (string, error) {
	if !t.taken[base] {
		t.taken[base] = true
		return base, nil
	}
	for i := 2; i <= MaxAliasSuffix; i++ {
		candidate := base + strconv.Itoa(i)
		if !t.taken[candidate] {
			t.taken[candidate] = true
			return candidate, nil
		}
	}
	return "", errors.WithHint(
		errors.Wrapf(errors.ErrAliasExhausted, "no free alias for %s in %s", from, t.self),
		"more than "+strconv.Itoa(MaxAliasSuffix)+" imports share the alias "+base)
}

// Len reports the number of registered imports.
func (t *ImportTable) Len() int { return len(t.order) }

// Render writes the import block in first-use order.
func (t *ImportTable) Render() string {
	var b strings.Builder
	for _, e := range t.order {
		b.WriteString("import * as ")
		b.WriteString(e.alias)
		b.WriteString(" from ")
		b.WriteString(strconv.Quote(e.from))
		b.WriteByte('\n')
	}
	return b.String()
}

// relativeModule returns the module specifier that reaches target (output
// root relative, no extension) from the file at from.
func relativeModule(from, target string) string {
	rel, err := filepath.Rel(filepath.Dir(filepath.FromSlash(from)), filepath.FromSlash(target))
	if err != nil {
		// both paths are relative to the same root, Rel cannot fail
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "relative path from %s to %s", from, target))
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// identifier maps a file base name onto a JavaScript identifier.
func identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
