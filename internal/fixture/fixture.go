// Package fixture builds descriptor protos for tests, shaped the way protoc
// emits them (map entries, synthetic oneofs, source comments).
package fixture

import (
	"strings"
	"unicode"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Field types used by tests.
const (
	Int32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	Int64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	Uint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	Uint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	Sint32  = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	Sint64  = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	Double  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	Float   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	Bool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	String  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	Bytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	Message = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	Enum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
)

type message struct {
	proto     *descriptorpb.DescriptorProto
	path      string // dotted name below the package
	doc       string
	fieldDocs map[int]string
	nested    []*message
	maps      map[*descriptorpb.FieldDescriptorProto]string // field -> entry name
}

type file struct {
	proto    *descriptorpb.FileDescriptorProto
	messages []*message
}

// FileOpt adds a declaration or setting to a file.
type FileOpt func(*file)

// MsgOpt adds a field, nested declaration or setting to a message.
type MsgOpt func(*message)

// Set bundles files into a descriptor set.
func Set(files ...*descriptorpb.FileDescriptorProto) *descriptorpb.FileDescriptorSet {
	return &descriptorpb.FileDescriptorSet{File: files}
}

// File builds a proto3 file.
func File(name, pkg string, opts ...FileOpt) *descriptorpb.FileDescriptorProto {
	f := &file{proto: &descriptorpb.FileDescriptorProto{
		Name:   proto.String(name),
		Syntax: proto.String("proto3"),
	}}
	if pkg != "" {
		f.proto.Package = proto.String(pkg)
	}
	for _, opt := range opts {
		opt(f)
	}

	info := &descriptorpb.SourceCodeInfo{}
	for i, m := range f.messages {
		finish(m, pkg, []int32{4, int32(i)}, info)
	}
	if len(info.Location) > 0 {
		f.proto.SourceCodeInfo = info
	}
	return f.proto
}

// Proto2 switches the file to proto2 syntax.
func Proto2() FileOpt {
	return func(f *file) { f.proto.Syntax = proto.String("proto2") }
}

// Import records a dependency on another file.
func Import(path string) FileOpt {
	return func(f *file) { f.proto.Dependency = append(f.proto.Dependency, path) }
}

// Msg declares a top-level message.
func Msg(name string, opts ...MsgOpt) FileOpt {
	return func(f *file) {
		m := newMessage(name, opts)
		f.messages = append(f.messages, m)
		f.proto.MessageType = append(f.proto.MessageType, m.proto)
	}
}

// EnumType declares a top-level enum with values numbered from zero.
func EnumType(name string, values ...string) FileOpt {
	return func(f *file) { f.proto.EnumType = append(f.proto.EnumType, enum(name, values)) }
}

// AliasEnum declares a top-level enum with explicit numbers and allow_alias.
func AliasEnum(name string, values map[string]int32, order ...string) FileOpt {
	return func(f *file) {
		e := &descriptorpb.EnumDescriptorProto{
			Name:    proto.String(name),
			Options: &descriptorpb.EnumOptions{AllowAlias: proto.Bool(true)},
		}
		for _, v := range order {
			e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
				Name:   proto.String(v),
				Number: proto.Int32(values[v]),
			})
		}
		f.proto.EnumType = append(f.proto.EnumType, e)
	}
}

// Service declares a service.
func Service(name string, methods ...*descriptorpb.MethodDescriptorProto) FileOpt {
	return func(f *file) {
		f.proto.Service = append(f.proto.Service, &descriptorpb.ServiceDescriptorProto{
			Name:   proto.String(name),
			Method: methods,
		})
	}
}

// Method builds a unary method; in and out are fully qualified type names.
func Method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(in),
		OutputType: proto.String(out),
	}
}

// ServerStream marks a method as server streaming.
func ServerStream(m *descriptorpb.MethodDescriptorProto) *descriptorpb.MethodDescriptorProto {
	m.ServerStreaming = proto.Bool(true)
	return m
}

// Extend declares a top-level extension field. Extensions need proto2.
func Extend(extendee, name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) FileOpt {
	return func(f *file) {
		field := scalar(name, number, typ)
		field.Extendee = proto.String(extendee)
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
		f.proto.Extension = append(f.proto.Extension, field)
	}
}

// Extensions declares an extension range on a proto2 message.
func Extensions(start, end int32) MsgOpt {
	return func(m *message) {
		m.proto.ExtensionRange = append(m.proto.ExtensionRange, &descriptorpb.DescriptorProto_ExtensionRange{
			Start: proto.Int32(start),
			End:   proto.Int32(end),
		})
	}
}

// Doc sets the leading comment of the message.
func Doc(text string) MsgOpt {
	return func(m *message) { m.doc = text }
}

// Scalar adds a singular scalar field.
func Scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) MsgOpt {
	return func(m *message) { m.proto.Field = append(m.proto.Field, scalar(name, number, typ)) }
}

// Documented adds a field and attaches a leading comment to it.
func Documented(text string, opt MsgOpt) MsgOpt {
	return func(m *message) {
		opt(m)
		if m.fieldDocs == nil {
			m.fieldDocs = make(map[int]string)
		}
		m.fieldDocs[len(m.proto.Field)-1] = text
	}
}

// Repeated adds a repeated scalar field.
func Repeated(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) MsgOpt {
	return func(m *message) {
		field := scalar(name, number, typ)
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		m.proto.Field = append(m.proto.Field, field)
	}
}

// Unpacked adds a repeated scalar field with packed=false.
func Unpacked(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) MsgOpt {
	return func(m *message) {
		field := scalar(name, number, typ)
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		field.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(false)}
		m.proto.Field = append(m.proto.Field, field)
	}
}

// Ref adds a singular message field; typeName is fully qualified.
func Ref(name string, number int32, typeName string) MsgOpt {
	return func(m *message) { m.proto.Field = append(m.proto.Field, ref(name, number, Message, typeName)) }
}

// RepeatedRef adds a repeated message field.
func RepeatedRef(name string, number int32, typeName string) MsgOpt {
	return func(m *message) {
		field := ref(name, number, Message, typeName)
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		m.proto.Field = append(m.proto.Field, field)
	}
}

// EnumRef adds a singular enum field.
func EnumRef(name string, number int32, typeName string) MsgOpt {
	return func(m *message) { m.proto.Field = append(m.proto.Field, ref(name, number, Enum, typeName)) }
}

// RepeatedEnumRef adds a repeated enum field.
func RepeatedEnumRef(name string, number int32, typeName string) MsgOpt {
	return func(m *message) {
		field := ref(name, number, Enum, typeName)
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		m.proto.Field = append(m.proto.Field, field)
	}
}

// Optional adds a proto3 optional scalar field with its synthetic oneof.
func Optional(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) MsgOpt {
	return func(m *message) {
		field := scalar(name, number, typ)
		field.Proto3Optional = proto.Bool(true)
		m.proto.Field = append(m.proto.Field, field)
	}
}

// WithDefault adds a proto2 optional scalar field with a declared default.
func WithDefault(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, value string) MsgOpt {
	return func(m *message) {
		field := scalar(name, number, typ)
		field.DefaultValue = proto.String(value)
		m.proto.Field = append(m.proto.Field, field)
	}
}

// Map adds a map field. valueTypeName is only used for message and enum values.
func Map(name string, number int32, key, value descriptorpb.FieldDescriptorProto_Type, valueTypeName string) MsgOpt {
	return func(m *message) {
		entryName := mapEntryName(name)
		entry := &descriptorpb.DescriptorProto{
			Name:    proto.String(entryName),
			Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
		}
		entry.Field = append(entry.Field, scalar("key", 1, key))
		var valueField *descriptorpb.FieldDescriptorProto
		if value == Message || value == Enum {
			valueField = ref("value", 2, value, valueTypeName)
		} else {
			valueField = scalar("value", 2, value)
		}
		entry.Field = append(entry.Field, valueField)
		m.proto.NestedType = append(m.proto.NestedType, entry)
		m.nested = append(m.nested, &message{proto: entry, path: m.path + "." + entryName})

		// the type name needs the package, filled in by finish
		field := ref(name, number, Message, "")
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		m.proto.Field = append(m.proto.Field, field)
		if m.maps == nil {
			m.maps = make(map[*descriptorpb.FieldDescriptorProto]string)
		}
		m.maps[field] = entryName
	}
}

// Oneof groups the fields added by opts into one oneof.
func Oneof(name string, opts ...MsgOpt) MsgOpt {
	return func(m *message) {
		index := int32(len(m.proto.OneofDecl))
		m.proto.OneofDecl = append(m.proto.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(name)})
		start := len(m.proto.Field)
		for _, opt := range opts {
			opt(m)
		}
		for _, field := range m.proto.Field[start:] {
			field.OneofIndex = proto.Int32(index)
		}
	}
}

// Nested declares a nested message.
func Nested(name string, opts ...MsgOpt) MsgOpt {
	return func(m *message) {
		child := newMessageIn(m.path, name, opts)
		m.nested = append(m.nested, child)
		m.proto.NestedType = append(m.proto.NestedType, child.proto)
	}
}

// NestedEnum declares a nested enum with values numbered from zero.
func NestedEnum(name string, values ...string) MsgOpt {
	return func(m *message) { m.proto.EnumType = append(m.proto.EnumType, enum(name, values)) }
}

func newMessage(name string, opts []MsgOpt) *message {
	return newMessageIn("", name, opts)
}

func newMessageIn(parent, name string, opts []MsgOpt) *message {
	path := name
	if parent != "" {
		path = parent + "." + name
	}
	m := &message{proto: &descriptorpb.DescriptorProto{Name: proto.String(name)}, path: path}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func finish(m *message, pkg string, path []int32, info *descriptorpb.SourceCodeInfo) {
	prefix := "."
	if pkg != "" {
		prefix = "." + pkg + "."
	}
	for field, entry := range m.maps {
		field.TypeName = proto.String(prefix + m.path + "." + entry)
	}

	// synthetic oneofs go after every real oneof, as protoc emits them
	for _, field := range m.proto.Field {
		if field.GetProto3Optional() {
			field.OneofIndex = proto.Int32(int32(len(m.proto.OneofDecl)))
			m.proto.OneofDecl = append(m.proto.OneofDecl, &descriptorpb.OneofDescriptorProto{
				Name: proto.String("_" + field.GetName()),
			})
		}
	}

	if m.doc != "" {
		info.Location = append(info.Location, location(path, m.doc))
	}
	for i := 0; i < len(m.proto.Field); i++ {
		if doc, ok := m.fieldDocs[i]; ok {
			info.Location = append(info.Location, location(append(clone(path), 2, int32(i)), doc))
		}
	}
	for _, child := range m.nested {
		finish(child, pkg, append(clone(path), 3, int32(indexOf(m.proto.NestedType, child.proto))), info)
	}
}

func location(path []int32, doc string) *descriptorpb.SourceCodeInfo_Location {
	return &descriptorpb.SourceCodeInfo_Location{
		Path:            path,
		Span:            []int32{0, 0, 0},
		LeadingComments: proto.String(doc),
	}
}

func indexOf(list []*descriptorpb.DescriptorProto, target *descriptorpb.DescriptorProto) int {
	for i, m := range list {
		if m == target {
			return i
		}
	}
	return -1
}

func clone(path []int32) []int32 {
	return append([]int32(nil), path...)
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func ref(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	field := scalar(name, number, typ)
	field.TypeName = proto.String(typeName)
	return field
}

func enum(name string, values []string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

// mapEntryName mirrors protoc: "label_values" -> "LabelValuesEntry".
func mapEntryName(field string) string {
	var b strings.Builder
	upper := true
	for _, r := range field {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String() + "Entry"
}
