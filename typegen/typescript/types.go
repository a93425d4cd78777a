package typescript

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/schema"
)

// typeContext carries what type rendering needs from the file being emitted.
type typeContext struct {
	resolver *Resolver
	imports  *ImportTable
}

// valueType renders the element type of a field, ignoring its cardinality.
// shape selects the input-facing type used by interfaces.
func (c typeContext) valueType(n *schema.Node, shape bool) string {
	f := n.Field
	switch f.Scalar {
	case schema.ScalarMessage:
		if shape {
			return c.resolver.TypeName(FieldReference(n))
		}
		return c.resolver.ClassName(FieldReference(n))
	case schema.ScalarEnum:
		name := c.resolver.ClassName(FieldReference(n))
		if shape && name != Unresolved {
			return name + " | keyof typeof " + name
		}
		return name
	case schema.ScalarBool:
		return "boolean"
	case schema.ScalarString:
		return "string"
	case schema.ScalarBytes:
		return "Uint8Array"
	case schema.ScalarDouble, schema.ScalarFloat, schema.ScalarInt32, schema.ScalarUint32,
		schema.ScalarSint32, schema.ScalarFixed32, schema.ScalarSfixed32:
		return "number"
	case schema.ScalarInt64, schema.ScalarUint64, schema.ScalarSint64,
		schema.ScalarFixed64, schema.ScalarSfixed64:
		return "number | " + c.imports.Protobuf() + ".Long"
	default:
		panic(errors.AssertionFailedf("unknown scalar kind %d on %s", f.Scalar, n.FullName))
	}
}

// fieldType renders the declared type of a field property.
func (c typeContext) fieldType(n *schema.Node, shape bool) string {
	f := n.Field
	elem := c.valueType(n, shape)
	switch {
	case f.Map:
		return "{ [k: string]: " + elem + " }"
	case f.Repeated():
		if strings.Contains(elem, " ") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case f.Scalar == schema.ScalarMessage:
		return "(" + elem + " | null)"
	default:
		return elem
	}
}

// literal renders a load-time default as a fresh TypeScript expression.
// Every evaluation yields a new array, map or byte buffer, so instances
// never share mutable defaults.
func (c typeContext) literal(n *schema.Node) string {
	f := n.Field
	v := f.Default
	switch v.Kind {
	case schema.ValueNull:
		return "null"
	case schema.ValueList:
		return "[]"
	case schema.ValueMap:
		return "{}"
	case schema.ValueBool:
		return strconv.FormatBool(v.Bool)
	case schema.ValueString:
		return jsString(v.Text)
	case schema.ValueBytes:
		if len(v.Bytes) == 0 {
			return "new Uint8Array(0)"
		}
		parts := make([]string, len(v.Bytes))
		for i, b := range v.Bytes {
			parts[i] = strconv.Itoa(int(b))
		}
		return "new Uint8Array([" + strings.Join(parts, ", ") + "])"
	case schema.ValueEnum:
		return strconv.Itoa(int(v.Number))
	case schema.ValueNumber:
		if f.Scalar.Is64Bit() && !safeInteger(v.Text) {
			unsigned := f.Scalar == schema.ScalarUint64 || f.Scalar == schema.ScalarFixed64
			return c.imports.Protobuf() + ".util.Long.fromString(" + jsString(v.Text) + ", " + strconv.FormatBool(unsigned) + ")"
		}
		return v.Text
	default:
		panic(errors.AssertionFailedf("unknown default kind %d on %s", v.Kind, n.FullName))
	}
}

// safeInteger reports integers exactly representable as a JavaScript number.
func safeInteger(text string) bool {
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return false
	}
	const limit = 1<<53 - 1
	return i <= limit && i >= -limit
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "quoting %q", s))
	}
	return string(out)
}

// readerCall is the Reader expression decoding one value of a field.
func (c typeContext) readerCall(n *schema.Node, scalar schema.ScalarKind, reader string) string {
	switch scalar {
	case schema.ScalarMessage:
		return c.resolver.ClassName(FieldReference(n)) + ".decodeDelimited(" + reader + ")"
	case schema.ScalarEnum:
		return reader + ".int32()"
	default:
		return reader + "." + scalar.String() + "()"
	}
}
