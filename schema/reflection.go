package schema

import (
	"bytes"
	"encoding/base64"

	"github.com/goccy/go-json"

	"github.com/teranos/pbts/errors"
)

// object is a JSON object that keeps insertion order, so the metadata
// document lists declarations the way the schema declares them.
type object struct {
	keys   []string
	values []any
}

func (o *object) set(key string, value any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *object) empty() bool { return len(o.keys) == 0 }

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s", key)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalReflection renders the whole graph as a protobufjs Root JSON
// document, the form Root.fromJSON loads at runtime. Type references are
// fully qualified with a leading dot.
func (g *Graph) MarshalReflection() ([]byte, error) {
	root := g.namespaceJSON(g.Root())
	compact, err := json.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reflection document")
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, errors.Wrap(err, "failed to indent reflection document")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (g *Graph) namespaceJSON(id NodeID) *object {
	obj := &object{}
	if nested := g.nestedJSON(id); !nested.empty() {
		obj.set("nested", nested)
	}
	return obj
}

func (g *Graph) nestedJSON(id NodeID) *object {
	nested := &object{}
	for _, child := range g.nodes[id].Children {
		n := &g.nodes[child]
		switch n.Kind {
		case KindNamespace:
			nested.set(n.Name, g.namespaceJSON(child))
		case KindType:
			nested.set(n.Name, g.typeJSON(child))
		case KindEnum:
			nested.set(n.Name, g.enumJSON(child))
		case KindService:
			nested.set(n.Name, g.serviceJSON(child))
		case KindField:
			if n.Field.Extendee != "" {
				nested.set(n.Name, g.fieldJSON(child))
			}
		case KindMethod:
			// listed by their service
		default:
			panic(errors.AssertionFailedf("unknown node kind %d", n.Kind))
		}
	}
	return nested
}

func (g *Graph) typeJSON(id NodeID) *object {
	n := &g.nodes[id]
	obj := &object{}

	if len(n.Type.Oneofs) > 0 {
		oneofs := &object{}
		for _, o := range n.Type.Oneofs {
			members := make([]string, 0, len(o.Fields))
			for _, f := range o.Fields {
				members = append(members, g.nodes[f].Field.JSONName)
			}
			oneofs.set(o.Name, map[string][]string{"oneof": members})
		}
		obj.set("oneofs", oneofs)
	}

	fields := &object{}
	for _, f := range n.Type.Fields {
		fields.set(g.nodes[f].Field.JSONName, g.fieldJSON(f))
	}
	obj.set("fields", fields)

	if nested := g.nestedJSON(id); !nested.empty() {
		obj.set("nested", nested)
	}
	return obj
}

func (g *Graph) fieldJSON(id NodeID) *object {
	f := g.nodes[id].Field
	obj := &object{}

	switch {
	case f.Map:
		obj.set("keyType", f.Key.String())
	case f.Label == LabelRepeated:
		obj.set("rule", "repeated")
	case f.Label == LabelRequired:
		obj.set("rule", "required")
	}

	typeName := f.Scalar.String()
	if f.Scalar.IsReference() {
		typeName = f.RefName
	}
	obj.set("type", typeName)
	obj.set("id", f.Tag)
	if f.Extendee != "" {
		obj.set("extend", f.Extendee)
	}

	opts := &object{}
	if f.Default.Declared {
		opts.set("default", defaultJSON(f.Default))
	}
	if f.Repeated() && f.Scalar.Packable() {
		opts.set("packed", f.Packed)
	}
	if f.Proto3Optional {
		opts.set("proto3_optional", true)
	}
	if !opts.empty() {
		obj.set("options", opts)
	}
	return obj
}

func defaultJSON(v Value) any {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueString, ValueEnum:
		return v.Text
	case ValueBytes:
		return base64.StdEncoding.EncodeToString(v.Bytes)
	case ValueNumber:
		switch v.Text {
		case "NaN", "Infinity", "-Infinity":
			// not representable as JSON numbers; protobufjs accepts the strings
			return v.Text
		}
		return json.Number(v.Text)
	default:
		return nil
	}
}

func (g *Graph) enumJSON(id NodeID) *object {
	n := &g.nodes[id]
	obj := &object{}
	if n.Enum.AllowAlias {
		obj.set("options", map[string]bool{"allow_alias": true})
	}
	values := &object{}
	for _, v := range n.Enum.Values {
		values.set(v.Name, v.Number)
	}
	obj.set("values", values)
	return obj
}

func (g *Graph) serviceJSON(id NodeID) *object {
	methods := &object{}
	for _, child := range g.nodes[id].Children {
		n := &g.nodes[child]
		m := &object{}
		m.set("requestType", n.Method.RequestName)
		if n.Method.ClientStreaming {
			m.set("requestStream", true)
		}
		m.set("responseType", n.Method.ResponseName)
		if n.Method.ServerStreaming {
			m.set("responseStream", true)
		}
		methods.set(n.Name, m)
	}
	obj := &object{}
	obj.set("methods", methods)
	return obj
}
