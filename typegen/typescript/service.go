package typescript

import (
	"fmt"

	"github.com/teranos/pbts/logger"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/util"
)

// service emits a client class with one async method per unary method.
// The runtime client only carries unary calls, so streaming methods are
// listed as comments.
func (e *FileEmitter) service(id schema.NodeID) {
	n := e.graph.Node(id)
	name := DeclName(n)
	core := e.imports.Core()

	e.out.Linef("//Service: %s", n.FullName)
	e.out.Doc(n.Comment)
	e.out.Block(fmt.Sprintf("export class %s extends %s.Client", name, core), func() {
		e.out.Linef("static readonly reflection = %s.root.lookupService(%s)", e.imports.Reflection(), jsString(n.FullName))
		e.out.Linef("readonly $reflection = %s.reflection", name)
		e.out.Blank()
		e.out.Block(fmt.Sprintf("constructor(impl: %s.IRpcImpl)", core), func() {
			e.out.Line("super(impl)")
		})

		for _, child := range n.Children {
			m := e.graph.Node(child)
			e.out.Blank()
			e.method(m)
		}
	})
}

func (e *FileEmitter) method(m *schema.Node) {
	info := m.Method
	if info.ClientStreaming || info.ServerStreaming {
		e.log.Warnw("Skipping streaming method",
			logger.FieldNode, m.FullName,
			"client_streaming", info.ClientStreaming,
			"server_streaming", info.ServerStreaming)
		e.out.Linef("// %s: %s is not supported by the unary client", m.Name, streaming(info))
		return
	}

	input := e.resolver.TypeName(RequestReference(m))
	request := e.resolver.ClassName(RequestReference(m))
	response := e.resolver.ClassName(ResponseReference(m))

	e.out.Doc(m.Comment)
	header := fmt.Sprintf("async %s(input: %s, metadata?: { [k: string]: string }): Promise<%s>",
		util.LowerFirst(m.Name), input, response)
	e.out.Block(header, func() {
		e.out.Linef("return await this.$call(this.$reflection.methods[%s], %s.create(input), metadata) as %s",
			jsString(m.Name), request, response)
	})
}

func streaming(info *schema.MethodInfo) string {
	switch {
	case info.ClientStreaming && info.ServerStreaming:
		return "bidirectional streaming"
	case info.ClientStreaming:
		return "client streaming"
	default:
		return "server streaming"
	}
}
