package typescript

import (
	"fmt"
	"strings"

	"github.com/teranos/pbts/typegen/util"
)

const indentUnit = "    "

// CodeBuilder accumulates generated source line by line with block
// indentation. Blank lines requested with Blank are collapsed and never
// written directly after an opening or before a closing brace.
type CodeBuilder struct {
	sb      strings.Builder
	depth   int
	blank   bool
	started bool
	opened  bool
}

// Line writes one indented line verbatim.
func (b *CodeBuilder) Line(s string) {
	if b.blank && b.started && !b.opened {
		b.sb.WriteByte('\n')
	}
	b.blank = false
	b.opened = false
	b.started = true
	if s != "" {
		b.sb.WriteString(strings.Repeat(indentUnit, b.depth))
		b.sb.WriteString(s)
	}
	b.sb.WriteByte('\n')
}

// Linef writes one indented formatted line.
func (b *CodeBuilder) Linef(format string, args ...any) {
	b.Line(fmt.Sprintf(format, args...))
}

// Blank requests a separating empty line before the next line.
func (b *CodeBuilder) Blank() {
	b.blank = true
}

// Open writes header followed by " {" and indents.
func (b *CodeBuilder) Open(header string) {
	b.Line(header + " {")
	b.depth++
	b.opened = true
}

// Close dedents and writes the closing brace.
func (b *CodeBuilder) Close() {
	b.blank = false
	b.depth--
	b.Line("}")
}

// Else closes the current block and opens a continuation on the same line,
// as in "} else {".
func (b *CodeBuilder) Else(header string) {
	b.blank = false
	b.depth--
	b.Line("} " + header + " {")
	b.depth++
	b.opened = true
}

// Block writes header { body }.
func (b *CodeBuilder) Block(header string, body func()) {
	b.Open(header)
	body()
	b.Close()
}

// Indent runs body one level deeper without braces, as in switch cases.
func (b *CodeBuilder) Indent(body func()) {
	b.depth++
	body()
	b.depth--
}

// Doc writes comment as a JSDoc block. Single-line comments stay on one line.
func (b *CodeBuilder) Doc(comment string) {
	lines := util.CommentLines(comment)
	switch len(lines) {
	case 0:
		return
	case 1:
		b.Linef("/** %s */", lines[0])
		return
	}
	b.Line("/**")
	for _, l := range lines {
		if l == "" {
			b.Line(" *")
			continue
		}
		b.Line(" * " + l)
	}
	b.Line(" */")
}

func (b *CodeBuilder) String() string { return b.sb.String() }

// Len reports the number of bytes written.
func (b *CodeBuilder) Len() int { return b.sb.Len() }
