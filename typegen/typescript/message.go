package typescript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/util"
)

// message emits the shape interface, the runtime class and the namespace of
// nested declarations for one type.
func (e *FileEmitter) message(id schema.NodeID) {
	n := e.graph.Node(id)
	name := DeclName(n)
	iface := InterfaceName(n)

	e.out.Doc(n.Comment)
	e.out.Block("export interface "+iface, func() {
		for _, f := range n.Type.Fields {
			field := e.graph.Node(f)
			e.out.Doc(field.Comment)
			e.out.Linef("%s?: %s", field.Field.JSONName, e.types.fieldType(field, true))
		}
	})

	e.out.Blank()
	header := fmt.Sprintf("export class %s extends %s.Message<%s> implements %s", name, e.imports.Core(), iface, iface)
	e.out.Block(header, func() {
		e.classFields(n)
		e.oneofAccessors(n)
		e.out.Blank()
		e.out.Block("get $reflection()", func() {
			e.out.Linef("return %s.reflection", name)
		})
		e.out.Blank()
		e.out.Linef("static readonly reflection = %s.root.lookupType(%s)", e.imports.Reflection(), jsString(n.FullName))
		e.out.Blank()
		e.decode(n)
		e.out.Blank()
		e.decodeDelimited(n)
		e.out.Blank()
		e.create(n)
	})

	e.nested(id)
}

// classFields declares every field outside a oneof with a per-instance
// initializer, then one private backing variant per oneof.
func (e *FileEmitter) classFields(n *schema.Node) {
	for _, f := range n.Type.Fields {
		field := e.graph.Node(f)
		if field.Field.Oneof != schema.NoOneof {
			continue
		}
		e.out.Linef("%s: %s = %s", field.Field.JSONName, e.types.fieldType(field, false), e.types.literal(field))
	}
	for _, o := range n.Type.Oneofs {
		variants := make([]string, 0, len(o.Fields))
		for _, f := range o.Fields {
			member := e.graph.Node(f)
			variants = append(variants, fmt.Sprintf("{ case: %s, value: %s }",
				jsString(member.Field.JSONName), e.types.valueType(member, false)))
		}
		e.out.Linef("private %s?: %s", backingName(o), strings.Join(variants, " | "))
	}
}

// oneofName is the property reporting the active member of a group. It
// takes a Case suffix when a field already uses the name.
func oneofName(g *schema.Graph, n *schema.Node, o schema.Oneof) string {
	name := util.ToCamelCase(o.Name)
	for _, f := range n.Type.Fields {
		if g.Node(f).Field.JSONName == name {
			return name + "Case"
		}
	}
	return name
}

// backingName is the private variant holding a group's active member. The
// prefix keeps it apart from the $reflection accessor.
func backingName(o schema.Oneof) string {
	return "$oneof_" + util.ToCamelCase(o.Name)
}

// oneofAccessors emits the case getter of each group and a getter/setter
// pair per member. Setting a member replaces the variant; clearing a member
// only clears the variant when that member is active.
func (e *FileEmitter) oneofAccessors(n *schema.Node) {
	for _, o := range n.Type.Oneofs {
		backing := backingName(o)
		cases := make([]string, 0, len(o.Fields)+1)
		for _, f := range o.Fields {
			cases = append(cases, jsString(e.graph.Node(f).Field.JSONName))
		}
		cases = append(cases, "undefined")

		e.out.Blank()
		e.out.Block(fmt.Sprintf("get %s(): %s", oneofName(e.graph, n, o), strings.Join(cases, " | ")), func() {
			e.out.Linef("return this.%s?.case", backing)
		})

		for _, f := range o.Fields {
			member := e.graph.Node(f)
			prop := member.Field.JSONName
			kase := jsString(prop)
			typ := e.types.fieldType(member, false)
			value := e.types.valueType(member, false)

			e.out.Blank()
			e.out.Block(fmt.Sprintf("get %s(): %s", prop, typ), func() {
				e.out.Linef("const group = this.%s", backing)
				e.out.Linef("return group !== undefined && group.case === %s ? group.value : %s", kase, e.types.literal(member))
			})
			e.out.Blank()
			e.out.Block(fmt.Sprintf("set %s(value: %s | null | undefined)", prop, value), func() {
				e.out.Open("if (value !== undefined && value !== null)")
				e.out.Linef("this.%s = { case: %s, value }", backing, kase)
				e.out.Else(fmt.Sprintf("else if (this.%s?.case === %s)", backing, kase))
				e.out.Linef("this.%s = undefined", backing)
				e.out.Close()
			})
		}
	}
}

// decode emits the tag-dispatch loop reading one instance from a Reader.
func (e *FileEmitter) decode(n *schema.Node) {
	name := DeclName(n)
	pb := e.imports.Protobuf()

	e.out.Block(fmt.Sprintf("static decode(reader: Uint8Array | %s.Reader, length?: number): %s", pb, name), func() {
		e.out.Linef("if (!(reader instanceof %s.Reader)) reader = %s.Reader.create(reader)", pb, pb)
		e.out.Line("const end = length === undefined ? reader.len : reader.pos + length")
		e.out.Line("const result = new this()")
		e.out.Block("while (reader.pos < end)", func() {
			e.out.Line("const tag = reader.uint32()")
			e.out.Block("switch (tag >>> 3)", func() {
				for _, f := range n.Type.Fields {
					e.decodeCase(e.graph.Node(f))
				}
				e.out.Line("default:")
				e.out.Indent(func() {
					if e.opts.StrictDecode {
						e.out.Linef("throw new Error(%s + (tag >>> 3))", jsString("unknown field in "+n.FullName+": "))
						return
					}
					e.out.Line("reader.skipType(tag & 7)")
					e.out.Line("break")
				})
			})
		})
		e.out.Line("return result")
	})
}

func (e *FileEmitter) decodeCase(field *schema.Node) {
	f := field.Field
	prop := "result." + f.JSONName
	read := e.types.readerCall(field, f.Scalar, "reader")

	switch {
	case f.Map:
		e.out.Linef("case %d: {", f.Tag)
		e.out.Indent(func() {
			e.decodeMapEntry(field, prop)
			e.out.Line("break")
		})
		e.out.Line("}")
	case f.Repeated() && f.Scalar.Packable():
		e.out.Linef("case %d: {", f.Tag)
		e.out.Indent(func() {
			e.out.Linef("if (!%s) %s = []", prop, prop)
			e.out.Open("if ((tag & 7) === 2)")
			e.out.Line("const packedEnd = reader.uint32() + reader.pos")
			e.out.Linef("while (reader.pos < packedEnd) %s.push(%s)", prop, read)
			e.out.Else("else")
			e.out.Linef("%s.push(%s)", prop, read)
			e.out.Close()
			e.out.Line("break")
		})
		e.out.Line("}")
	case f.Repeated():
		e.out.Linef("case %d:", f.Tag)
		e.out.Indent(func() {
			e.out.Linef("if (!%s) %s = []", prop, prop)
			e.out.Linef("%s.push(%s)", prop, read)
			e.out.Line("break")
		})
	default:
		e.out.Linef("case %d:", f.Tag)
		e.out.Indent(func() {
			e.out.Linef("%s = %s", prop, read)
			e.out.Line("break")
		})
	}
}

// decodeMapEntry reads one key (1) / value (2) entry sub-message. Keys are
// stored in their string form, as JavaScript object keys are strings.
func (e *FileEmitter) decodeMapEntry(field *schema.Node, prop string) {
	f := field.Field
	e.out.Linef("if (!%s) %s = {}", prop, prop)
	e.out.Line("const entryEnd = reader.uint32() + reader.pos")
	e.out.Line(`let key = ""`)
	e.out.Linef("let value: %s = %s", e.types.valueType(field, false), e.zeroLiteral(field))
	e.out.Block("while (reader.pos < entryEnd)", func() {
		e.out.Line("const entryTag = reader.uint32()")
		e.out.Block("switch (entryTag >>> 3)", func() {
			e.out.Line("case 1:")
			e.out.Indent(func() {
				key := e.types.readerCall(field, f.Key, "reader")
				if f.Key != schema.ScalarString {
					key = "String(" + key + ")"
				}
				e.out.Line("key = " + key)
				e.out.Line("break")
			})
			e.out.Line("case 2:")
			e.out.Indent(func() {
				e.out.Line("value = " + e.types.readerCall(field, f.Scalar, "reader"))
				e.out.Line("break")
			})
			e.out.Line("default:")
			e.out.Indent(func() {
				e.out.Line("reader.skipType(entryTag & 7)")
				e.out.Line("break")
			})
		})
	})
	e.out.Linef("%s[key] = value", prop)
}

// zeroLiteral is the value of a map entry whose value is absent on the wire.
func (e *FileEmitter) zeroLiteral(field *schema.Node) string {
	f := field.Field
	switch f.Scalar {
	case schema.ScalarMessage:
		return e.resolver.ClassName(FieldReference(field)) + ".create()"
	case schema.ScalarEnum:
		var values []schema.EnumValue
		if e.graph.Valid(f.Ref) {
			values = e.graph.Node(f.Ref).Enum.Values
		}
		return strconv.Itoa(int(schema.ZeroValue(f.Scalar, values).Number))
	}
	v := schema.ZeroValue(f.Scalar, nil)
	switch v.Kind {
	case schema.ValueBool:
		return "false"
	case schema.ValueString:
		return `""`
	case schema.ValueBytes:
		return "new Uint8Array(0)"
	case schema.ValueNumber:
		return v.Text
	default:
		panic(errors.AssertionFailedf("no zero literal for %s on %s", f.Scalar, field.FullName))
	}
}

func (e *FileEmitter) decodeDelimited(n *schema.Node) {
	pb := e.imports.Protobuf()
	e.out.Block(fmt.Sprintf("static decodeDelimited(reader: Uint8Array | %s.Reader): %s", pb, DeclName(n)), func() {
		e.out.Linef("if (!(reader instanceof %s.Reader)) reader = %s.Reader.create(reader)", pb, pb)
		e.out.Line("return this.decode(reader, reader.uint32())")
	})
}

// create emits the factory copying a shape into a fresh instance.
func (e *FileEmitter) create(n *schema.Node) {
	name := DeclName(n)
	e.out.Block(fmt.Sprintf("static create(properties?: %s): %s", InterfaceName(n), name), func() {
		e.out.Line("if (properties instanceof this) return properties")
		e.out.Line("const result = new this()")
		e.out.Line("if (!properties) return result")
		for _, f := range n.Type.Fields {
			e.createField(e.graph.Node(f))
		}
		e.out.Line("return result")
	})
}

func (e *FileEmitter) createField(field *schema.Node) {
	f := field.Field
	src := "properties." + f.JSONName
	dst := "result." + f.JSONName
	own := fmt.Sprintf("properties.hasOwnProperty(%s)", jsString(f.JSONName))

	switch {
	case f.Map:
		e.out.Block(fmt.Sprintf("if (%s && %s != null)", own, src), func() {
			e.out.Linef("const source = %s", src)
			e.out.Linef("%s = {}", dst)
			e.out.Block("for (const key in source)", func() {
				e.out.Line("if (!source.hasOwnProperty(key)) continue")
				e.out.Line("const value = source[key]")
				e.out.Linef("%s[key] = %s", dst, e.convert(field, "value"))
			})
		})
	case f.Repeated():
		conv := e.convert(field, "it")
		if conv == "it" {
			e.out.Linef("if (%s && %s != null) %s = %s.slice()", own, src, dst, src)
			return
		}
		e.out.Linef("if (%s && %s != null) %s = %s.map(it => %s)", own, src, dst, src, conv)
	case f.Scalar == schema.ScalarMessage:
		e.out.Linef("if (%s && %s != null) %s = %s", own, src, dst, e.convert(field, src))
	default:
		e.out.Linef("if (%s && %s !== undefined) %s = %s", own, src, dst, e.convert(field, src))
	}
}

// convert normalizes one input value to its class representation.
func (e *FileEmitter) convert(field *schema.Node, expr string) string {
	f := field.Field
	switch f.Scalar {
	case schema.ScalarMessage:
		return e.resolver.ClassName(FieldReference(field)) + ".create(" + expr + ")"
	case schema.ScalarEnum:
		enum := e.resolver.ClassName(FieldReference(field))
		return fmt.Sprintf(`typeof %s === "string" ? %s[%s] : %s`, expr, enum, expr, expr)
	default:
		return expr
	}
}
