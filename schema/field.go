package schema

import (
	"math"
	"strconv"
)

// NoOneof marks a field that belongs to no oneof group.
const NoOneof = -1

// Label is the cardinality of a field.
type Label uint8

const (
	LabelOptional Label = iota
	LabelRequired
	LabelRepeated
)

// ScalarKind is the wire-level value kind of a field. Message and enum
// fields carry a reference in FieldInfo.Ref.
type ScalarKind uint8

const (
	ScalarDouble ScalarKind = iota + 1
	ScalarFloat
	ScalarInt64
	ScalarUint64
	ScalarInt32
	ScalarFixed64
	ScalarFixed32
	ScalarBool
	ScalarString
	ScalarBytes
	ScalarUint32
	ScalarSfixed32
	ScalarSfixed64
	ScalarSint32
	ScalarSint64
	ScalarEnum
	ScalarMessage
)

var scalarNames = map[ScalarKind]string{
	ScalarDouble:   "double",
	ScalarFloat:    "float",
	ScalarInt64:    "int64",
	ScalarUint64:   "uint64",
	ScalarInt32:    "int32",
	ScalarFixed64:  "fixed64",
	ScalarFixed32:  "fixed32",
	ScalarBool:     "bool",
	ScalarString:   "string",
	ScalarBytes:    "bytes",
	ScalarUint32:   "uint32",
	ScalarSfixed32: "sfixed32",
	ScalarSfixed64: "sfixed64",
	ScalarSint32:   "sint32",
	ScalarSint64:   "sint64",
	ScalarEnum:     "enum",
	ScalarMessage:  "message",
}

// String returns the proto type keyword, which is also the name of the
// matching protobufjs Reader method for scalars.
func (k ScalarKind) String() string {
	if name, ok := scalarNames[k]; ok {
		return name
	}
	return "unknown"
}

// Is64Bit reports kinds that protobufjs decodes as Long.
func (k ScalarKind) Is64Bit() bool {
	switch k {
	case ScalarInt64, ScalarUint64, ScalarFixed64, ScalarSfixed64, ScalarSint64:
		return true
	}
	return false
}

// IsReference reports message and enum kinds.
func (k ScalarKind) IsReference() bool {
	return k == ScalarEnum || k == ScalarMessage
}

// Packable reports kinds that may use packed repeated encoding.
func (k ScalarKind) Packable() bool {
	switch k {
	case ScalarString, ScalarBytes, ScalarMessage:
		return false
	}
	return k != 0
}

// FieldInfo is the payload of a field node.
type FieldInfo struct {
	Tag      int32
	JSONName string // property name in generated code and metadata
	Label    Label
	Scalar   ScalarKind
	Ref      NodeID // resolved message or enum, NoNode when unresolved
	RefName  string // expected full name of the reference

	Map bool       // map<Key, value>; the value is described by Scalar/Ref
	Key ScalarKind // map key kind

	Oneof          int // index into the declaring type's Oneofs, NoOneof for none
	Packed         bool
	Proto3Optional bool
	Extendee       string // full name of the extended type, extensions only

	// Default is computed once at load time. Instances are initialized from
	// it; generated code never recomputes defaults.
	Default Value
}

// Repeated reports repeated non-map fields.
func (f *FieldInfo) Repeated() bool {
	return f.Label == LabelRepeated && !f.Map
}

// ValueKind classifies a default value.
type ValueKind uint8

const (
	ValueNumber ValueKind = iota
	ValueBool
	ValueString
	ValueBytes
	ValueEnum
	ValueNull
	ValueList
	ValueMap
)

// Value is a field default.
type Value struct {
	Kind     ValueKind
	Text     string // number literal, string content, or enum member name
	Number   int32  // enum member number
	Bool     bool
	Bytes    []byte
	Declared bool // written explicitly in the schema
}

// ZeroValue is the implicit default for a field of the given kind. enumValues
// is consulted for enums: the first declared member is the default.
func ZeroValue(kind ScalarKind, enumValues []EnumValue) Value {
	switch kind {
	case ScalarBool:
		return Value{Kind: ValueBool}
	case ScalarString:
		return Value{Kind: ValueString}
	case ScalarBytes:
		return Value{Kind: ValueBytes}
	case ScalarMessage:
		return Value{Kind: ValueNull}
	case ScalarEnum:
		if len(enumValues) == 0 {
			return Value{Kind: ValueEnum, Text: "0"}
		}
		return Value{Kind: ValueEnum, Text: enumValues[0].Name, Number: enumValues[0].Number}
	default:
		return Value{Kind: ValueNumber, Text: "0"}
	}
}

// FloatLiteral renders a float the way the generated code spells it.
func FloatLiteral(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
