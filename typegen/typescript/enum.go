package typescript

import (
	"github.com/teranos/pbts/schema"
)

// enum emits the enum declaration and its merged metadata namespace.
// Alias values are kept; TypeScript allows repeated numbers.
func (e *FileEmitter) enum(id schema.NodeID) {
	n := e.graph.Node(id)
	name := DeclName(n)

	e.out.Doc(n.Comment)
	e.out.Block("export enum "+name, func() {
		for _, v := range n.Enum.Values {
			e.out.Doc(v.Comment)
			e.out.Linef("%s = %d,", v.Name, v.Number)
		}
	})
	e.out.Blank()
	e.out.Block("export namespace "+name, func() {
		e.out.Linef("export const reflection = %s.root.lookupEnum(%s)", e.imports.Reflection(), jsString(n.FullName))
	})
}
