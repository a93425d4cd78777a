package schema

import (
	"os"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
)

// ReadDescriptorSet reads a binary FileDescriptorSet as written by
// `protoc --include_imports --include_source_info -o set.pb`.
func ReadDescriptorSet(path string) (*descriptorpb.FileDescriptorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read descriptor set %s", path)
	}

	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, set); err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "failed to decode descriptor set %s", path), errors.ErrInvalidSchema),
			"the input must be a binary FileDescriptorSet (protoc -o)")
	}
	return set, nil
}

// LoadFiles reads and merges descriptor sets, then builds the graph.
// A file present in several sets is kept once, first occurrence wins.
func LoadFiles(paths ...string) (*Graph, error) {
	merged := &descriptorpb.FileDescriptorSet{}
	seen := make(map[string]bool)
	for _, path := range paths {
		set, err := ReadDescriptorSet(path)
		if err != nil {
			return nil, err
		}
		for _, f := range set.GetFile() {
			if seen[f.GetName()] {
				continue
			}
			seen[f.GetName()] = true
			merged.File = append(merged.File, f)
		}
	}
	return FromFileDescriptorSet(merged)
}

// FromCodeGeneratorRequest builds the graph from a protoc plugin request.
func FromCodeGeneratorRequest(req *pluginpb.CodeGeneratorRequest) (*Graph, error) {
	return FromFileDescriptorSet(&descriptorpb.FileDescriptorSet{File: req.GetProtoFile()})
}

// FromFileDescriptorSet builds the graph from raw descriptors. Imports that
// are missing from the set become unresolved references rather than load
// errors, so generation can report each one where it is used.
func FromFileDescriptorSet(set *descriptorpb.FileDescriptorSet) (*Graph, error) {
	if len(set.GetFile()) == 0 {
		return nil, errors.WithHint(
			errors.Mark(errors.New("descriptor set contains no files"), errors.ErrInvalidSchema),
			"pass at least one .proto file to protoc")
	}

	files, err := protodesc.FileOptions{AllowUnresolvable: true}.NewFiles(set)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to link descriptors"), errors.ErrInvalidSchema)
	}

	l := &loader{graph: NewGraph()}
	for _, fdp := range set.GetFile() {
		fd, err := files.FindFileByPath(fdp.GetName())
		if err != nil {
			return nil, errors.Wrapf(err, "file %s missing after linking", fdp.GetName())
		}
		l.file(fd)
	}
	if err := errors.Join(l.errs...); err != nil {
		return nil, err
	}
	l.graph.Resolve()

	logger.ComponentLogger("schema").Debugw("Loaded schema graph",
		logger.FieldCount, len(l.graph.Files()),
		"nodes", l.graph.Len())
	return l.graph, nil
}

type loader struct {
	graph *Graph
	errs  []error
}

func (l *loader) file(fd protoreflect.FileDescriptor) {
	f := l.graph.AddFile(fd.Path(), string(fd.Package()))
	f.Syntax = fd.Syntax().String()
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		f.Dependencies = append(f.Dependencies, imports.Get(i).Path())
	}

	ns := l.graph.Namespace(string(fd.Package()))
	locs := fd.SourceLocations()

	messages := fd.Messages()
	for i := 0; i < messages.Len(); i++ {
		l.message(ns, f, locs, messages.Get(i))
	}
	enums := fd.Enums()
	for i := 0; i < enums.Len(); i++ {
		l.enum(ns, f, locs, enums.Get(i))
	}
	services := fd.Services()
	for i := 0; i < services.Len(); i++ {
		l.service(ns, f, locs, services.Get(i))
	}
	extensions := fd.Extensions()
	for i := 0; i < extensions.Len(); i++ {
		l.field(ns, f, locs, extensions.Get(i))
	}
}

func (l *loader) message(parent NodeID, f *File, locs protoreflect.SourceLocations, md protoreflect.MessageDescriptor) {
	if md.IsMapEntry() {
		// folded into the owning map field
		return
	}

	id := l.graph.AddType(parent, f, string(md.Name()), comment(locs, md))

	fields := md.Fields()
	ids := make(map[protoreflect.FullName]NodeID, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		ids[fd.FullName()] = l.field(id, f, locs, fd)
	}

	oneofs := md.Oneofs()
	for i := 0; i < oneofs.Len(); i++ {
		od := oneofs.Get(i)
		if od.IsSynthetic() {
			continue
		}
		members := od.Fields()
		group := make([]NodeID, 0, members.Len())
		for j := 0; j < members.Len(); j++ {
			group = append(group, ids[members.Get(j).FullName()])
		}
		l.graph.AddOneof(id, string(od.Name()), group...)
	}

	nested := md.Messages()
	for i := 0; i < nested.Len(); i++ {
		l.message(id, f, locs, nested.Get(i))
	}
	enums := md.Enums()
	for i := 0; i < enums.Len(); i++ {
		l.enum(id, f, locs, enums.Get(i))
	}
	extensions := md.Extensions()
	for i := 0; i < extensions.Len(); i++ {
		l.field(id, f, locs, extensions.Get(i))
	}
}

func (l *loader) enum(parent NodeID, f *File, locs protoreflect.SourceLocations, ed protoreflect.EnumDescriptor) {
	info := EnumInfo{Values: enumValues(locs, ed)}
	if opts, ok := ed.Options().(*descriptorpb.EnumOptions); ok {
		info.AllowAlias = opts.GetAllowAlias()
	}
	l.graph.AddEnum(parent, f, string(ed.Name()), comment(locs, ed), info)
}

func (l *loader) service(parent NodeID, f *File, locs protoreflect.SourceLocations, sd protoreflect.ServiceDescriptor) {
	id := l.graph.AddService(parent, f, string(sd.Name()), comment(locs, sd))
	methods := sd.Methods()
	for i := 0; i < methods.Len(); i++ {
		m := methods.Get(i)
		l.graph.AddMethod(id, string(m.Name()), comment(locs, m), MethodInfo{
			RequestName:     "." + string(m.Input().FullName()),
			ResponseName:    "." + string(m.Output().FullName()),
			ClientStreaming: m.IsStreamingClient(),
			ServerStreaming: m.IsStreamingServer(),
		})
	}
}

func (l *loader) field(parent NodeID, f *File, locs protoreflect.SourceLocations, fd protoreflect.FieldDescriptor) NodeID {
	info := FieldInfo{
		Tag:            int32(fd.Number()),
		JSONName:       fd.JSONName(),
		Packed:         fd.IsPacked(),
		Proto3Optional: fd.HasOptionalKeyword() && fd.Syntax() == protoreflect.Proto3,
	}
	switch fd.Cardinality() {
	case protoreflect.Repeated:
		info.Label = LabelRepeated
	case protoreflect.Required:
		info.Label = LabelRequired
	default:
		info.Label = LabelOptional
	}
	if fd.IsExtension() {
		info.Extendee = "." + string(fd.ContainingMessage().FullName())
		info.JSONName = string(fd.Name())
	}

	if fd.Kind() == protoreflect.GroupKind {
		l.errs = append(l.errs, errors.WithHint(
			errors.Mark(errors.Newf("%s is a group field, which is not supported", fd.FullName()), errors.ErrInvalidSchema),
			"declare the group as a nested message and a regular message field"))
	}

	value := fd
	if fd.IsMap() {
		info.Map = true
		info.Key = scalarKind(fd.MapKey().Kind())
		value = fd.MapValue()
	}
	info.Scalar = scalarKind(value.Kind())
	switch info.Scalar {
	case ScalarMessage:
		info.RefName = "." + string(value.Message().FullName())
	case ScalarEnum:
		info.RefName = "." + string(value.Enum().FullName())
	}
	info.Default = defaultValue(fd)

	return l.graph.AddField(parent, f, string(fd.Name()), comment(locs, fd), info)
}

func enumValues(locs protoreflect.SourceLocations, ed protoreflect.EnumDescriptor) []EnumValue {
	values := ed.Values()
	out := make([]EnumValue, 0, values.Len())
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		out = append(out, EnumValue{Name: string(v.Name()), Number: int32(v.Number()), Comment: comment(locs, v)})
	}
	return out
}

// defaultValue computes the field default once, at load time.
func defaultValue(fd protoreflect.FieldDescriptor) Value {
	switch {
	case fd.IsMap():
		return Value{Kind: ValueMap}
	case fd.IsList():
		return Value{Kind: ValueList}
	}

	kind := scalarKind(fd.Kind())
	if !fd.HasDefault() {
		if kind == ScalarEnum && !fd.Enum().IsPlaceholder() {
			return ZeroValue(kind, enumValues(nil, fd.Enum()))
		}
		return ZeroValue(kind, nil)
	}

	v := fd.Default()
	out := Value{Declared: true}
	switch kind {
	case ScalarBool:
		out.Kind, out.Bool = ValueBool, v.Bool()
	case ScalarString:
		out.Kind, out.Text = ValueString, v.String()
	case ScalarBytes:
		out.Kind, out.Bytes = ValueBytes, append([]byte(nil), v.Bytes()...)
	case ScalarEnum:
		out.Kind, out.Number = ValueEnum, int32(v.Enum())
		out.Text = string(fd.DefaultEnumValue().Name())
	case ScalarFloat, ScalarDouble:
		out.Kind, out.Text = ValueNumber, FloatLiteral(v.Float())
	case ScalarUint32, ScalarUint64, ScalarFixed32, ScalarFixed64:
		out.Kind, out.Text = ValueNumber, strconv.FormatUint(v.Uint(), 10)
	default:
		out.Kind, out.Text = ValueNumber, strconv.FormatInt(v.Int(), 10)
	}
	return out
}

func scalarKind(k protoreflect.Kind) ScalarKind {
	switch k {
	case protoreflect.DoubleKind:
		return ScalarDouble
	case protoreflect.FloatKind:
		return ScalarFloat
	case protoreflect.Int64Kind:
		return ScalarInt64
	case protoreflect.Uint64Kind:
		return ScalarUint64
	case protoreflect.Int32Kind:
		return ScalarInt32
	case protoreflect.Fixed64Kind:
		return ScalarFixed64
	case protoreflect.Fixed32Kind:
		return ScalarFixed32
	case protoreflect.BoolKind:
		return ScalarBool
	case protoreflect.StringKind:
		return ScalarString
	case protoreflect.BytesKind:
		return ScalarBytes
	case protoreflect.Uint32Kind:
		return ScalarUint32
	case protoreflect.Sfixed32Kind:
		return ScalarSfixed32
	case protoreflect.Sfixed64Kind:
		return ScalarSfixed64
	case protoreflect.Sint32Kind:
		return ScalarSint32
	case protoreflect.Sint64Kind:
		return ScalarSint64
	case protoreflect.EnumKind:
		return ScalarEnum
	default:
		// groups are rejected by the loader before their kind is used
		return ScalarMessage
	}
}

func comment(locs protoreflect.SourceLocations, d protoreflect.Descriptor) string {
	if locs == nil {
		return ""
	}
	return locs.ByDescriptor(d).LeadingComments
}
