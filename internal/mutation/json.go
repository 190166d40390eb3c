package mutation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/arbor/internal/template"
)

// Codec errors.
var (
	// ErrInvalidJSON indicates input that is not valid JSON.
	ErrInvalidJSON = errors.New("invalid mutation json")

	// ErrUnknownOp indicates an edit with an unrecognized operation name.
	ErrUnknownOp = errors.New("unknown mutation op")

	// ErrBadField indicates a missing or out of range field.
	ErrBadField = errors.New("bad mutation field")
)

// EncodeJSON encodes a stream as a JSON document:
//
//	{"templates":[...],"edits":[{"op":"LoadTemplate","name":"t","index":0,"id":1},...]}
func EncodeJSON(m *Mutations) ([]byte, error) {
	doc := []byte(`{"templates":[],"edits":[]}`)
	if m == nil {
		return doc, nil
	}

	templates := make([][]byte, 0, len(m.Templates))
	for _, t := range m.Templates {
		raw, err := encodeTemplate(t)
		if err != nil {
			return nil, err
		}
		templates = append(templates, raw)
	}
	edits := make([][]byte, 0, len(m.Edits))
	for _, e := range m.Edits {
		raw, err := encodeEdit(e)
		if err != nil {
			return nil, err
		}
		edits = append(edits, raw)
	}
	f := &fields{raw: doc}
	f.setRaw("templates", rawArray(templates)).setRaw("edits", rawArray(edits))
	return f.raw, f.err
}

// rawArray joins encoded values into one JSON array.
func rawArray(items [][]byte) []byte {
	out := make([]byte, 0, 2+len(items))
	out = append(out, '[')
	out = append(out, bytes.Join(items, []byte{','})...)
	return append(out, ']')
}

// fields accumulates sjson sets and keeps the first error.
type fields struct {
	raw []byte
	err error
}

func newFields() *fields {
	return &fields{raw: []byte(`{}`)}
}

func (f *fields) set(path string, v any) *fields {
	if f.err == nil {
		f.raw, f.err = sjson.SetBytes(f.raw, path, v)
	}
	return f
}

func (f *fields) setRaw(path string, raw []byte) *fields {
	if f.err == nil {
		f.raw, f.err = sjson.SetRawBytes(f.raw, path, raw)
	}
	return f
}

func pathInts(p []uint8) []int {
	out := make([]int, len(p))
	for i, v := range p {
		out[i] = int(v)
	}
	return out
}

func encodeEdit(e Mutation) ([]byte, error) {
	f := newFields().set("op", e.Op())
	switch e := e.(type) {
	case AssignID:
		f.set("path", pathInts(e.Path)).set("id", uint32(e.ID))
	case CreatePlaceholder:
		f.set("id", uint32(e.ID))
	case CreateText:
		f.set("value", e.Value).set("id", uint32(e.ID))
	case LoadTemplate:
		f.set("name", e.Name).set("index", e.Index).set("id", uint32(e.ID))
	case AppendChildren:
		f.set("id", uint32(e.ID)).set("m", e.M)
	case InsertBefore:
		f.set("id", uint32(e.ID)).set("m", e.M)
	case InsertAfter:
		f.set("id", uint32(e.ID)).set("m", e.M)
	case ReplaceWith:
		f.set("id", uint32(e.ID)).set("m", e.M)
	case ReplacePlaceholder:
		f.set("path", pathInts(e.Path)).set("m", e.M)
	case Remove:
		f.set("id", uint32(e.ID))
	case RemoveRange:
		f.set("id", uint32(e.ID)).set("m", e.M)
	case PushRoot:
		f.set("id", uint32(e.ID))
	case SetText:
		f.set("id", uint32(e.ID)).set("value", e.Value)
	case SetAttribute:
		f.set("id", uint32(e.ID)).set("name", e.Name).set("namespace", e.Namespace)
		if e.Value == nil {
			f.setRaw("value", []byte("null"))
		} else {
			f.set("value", *e.Value)
		}
	case NewEventListener:
		f.set("name", e.Name).set("id", uint32(e.ID))
	case RemoveEventListener:
		f.set("name", e.Name).set("id", uint32(e.ID))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOp, e)
	}
	return f.raw, f.err
}

func encodeTemplate(t *template.Template) ([]byte, error) {
	f := newFields().set("name", t.Name).setRaw("roots", []byte("[]"))
	for _, r := range t.Roots {
		raw, err := encodeNode(r)
		if err != nil {
			return nil, err
		}
		f.setRaw("roots.-1", raw)
	}
	nodePaths := make([][]int, len(t.NodePaths))
	for i, p := range t.NodePaths {
		nodePaths[i] = pathInts(p)
	}
	attrPaths := make([][]int, len(t.AttrPaths))
	for i, p := range t.AttrPaths {
		attrPaths[i] = pathInts(p)
	}
	f.set("node_paths", nodePaths).set("attr_paths", attrPaths)
	return f.raw, f.err
}

func encodeNode(n template.Node) ([]byte, error) {
	f := newFields()
	switch n := n.(type) {
	case template.Element:
		f.set("type", "element").set("tag", n.Tag).set("namespace", n.Namespace)
		f.setRaw("attrs", []byte("[]")).setRaw("children", []byte("[]"))
		for _, a := range n.Attrs {
			af := newFields()
			switch a := a.(type) {
			case template.StaticAttr:
				af.set("type", "static").set("name", a.Name).set("namespace", a.Namespace).set("value", a.Value)
			case template.DynamicAttr:
				af.set("type", "dynamic").set("id", a.ID)
			}
			if af.err != nil {
				return nil, af.err
			}
			f.setRaw("attrs.-1", af.raw)
		}
		for _, c := range n.Children {
			raw, err := encodeNode(c)
			if err != nil {
				return nil, err
			}
			f.setRaw("children.-1", raw)
		}
	case template.Text:
		f.set("type", "text").set("text", n.Text)
	case template.DynamicText:
		f.set("type", "dynamic_text").set("id", n.ID)
	case template.Dynamic:
		f.set("type", "dynamic").set("id", n.ID)
	default:
		return nil, fmt.Errorf("%w: template node %T", ErrUnknownOp, n)
	}
	return f.raw, f.err
}

// DecodeJSON decodes a document produced by EncodeJSON. Decoded templates are
// validated.
func DecodeJSON(data []byte) (*Mutations, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	out := &Mutations{}

	for _, t := range doc.Get("templates").Array() {
		tmpl, err := decodeTemplate(t)
		if err != nil {
			return nil, err
		}
		out.Templates = append(out.Templates, tmpl)
	}

	for i, e := range doc.Get("edits").Array() {
		edit, err := decodeEdit(e)
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		out.Edits = append(out.Edits, edit)
	}
	return out, nil
}

func decodeEdit(e gjson.Result) (Mutation, error) {
	id := func() (ElementID, error) {
		v := e.Get("id")
		if !v.Exists() || v.Uint() > uint64(^uint32(0)) {
			return 0, fmt.Errorf("%w: id", ErrBadField)
		}
		return ElementID(v.Uint()), nil
	}
	count := func() (int, error) {
		v := e.Get("m")
		if !v.Exists() || v.Int() < 0 {
			return 0, fmt.Errorf("%w: m", ErrBadField)
		}
		return int(v.Int()), nil
	}

	op := e.Get("op").String()
	switch op {
	case "AssignId":
		p, err := decodePath(e.Get("path"))
		if err != nil {
			return nil, err
		}
		i, err := id()
		return AssignID{Path: p, ID: i}, err
	case "CreatePlaceholder":
		i, err := id()
		return CreatePlaceholder{ID: i}, err
	case "CreateText":
		i, err := id()
		return CreateText{Value: e.Get("value").String(), ID: i}, err
	case "LoadTemplate":
		i, err := id()
		return LoadTemplate{Name: e.Get("name").String(), Index: int(e.Get("index").Int()), ID: i}, err
	case "AppendChildren", "InsertBefore", "InsertAfter", "ReplaceWith", "RemoveRange":
		i, err := id()
		if err != nil {
			return nil, err
		}
		m, err := count()
		if err != nil {
			return nil, err
		}
		switch op {
		case "AppendChildren":
			return AppendChildren{ID: i, M: m}, nil
		case "InsertBefore":
			return InsertBefore{ID: i, M: m}, nil
		case "InsertAfter":
			return InsertAfter{ID: i, M: m}, nil
		case "ReplaceWith":
			return ReplaceWith{ID: i, M: m}, nil
		default:
			return RemoveRange{ID: i, M: m}, nil
		}
	case "ReplacePlaceholder":
		p, err := decodePath(e.Get("path"))
		if err != nil {
			return nil, err
		}
		m, err := count()
		return ReplacePlaceholder{Path: p, M: m}, err
	case "Remove":
		i, err := id()
		return Remove{ID: i}, err
	case "PushRoot":
		i, err := id()
		return PushRoot{ID: i}, err
	case "SetText":
		i, err := id()
		return SetText{ID: i, Value: e.Get("value").String()}, err
	case "SetAttribute":
		i, err := id()
		sa := SetAttribute{ID: i, Name: e.Get("name").String(), Namespace: e.Get("namespace").String()}
		if v := e.Get("value"); v.Exists() && v.Type != gjson.Null {
			sa.Value = Str(v.String())
		}
		return sa, err
	case "NewEventListener":
		i, err := id()
		return NewEventListener{Name: e.Get("name").String(), ID: i}, err
	case "RemoveEventListener":
		i, err := id()
		return RemoveEventListener{Name: e.Get("name").String(), ID: i}, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

func decodePath(v gjson.Result) ([]uint8, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: path", ErrBadField)
	}
	arr := v.Array()
	out := make([]uint8, len(arr))
	for i, x := range arr {
		n := x.Int()
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: path element %d", ErrBadField, n)
		}
		out[i] = uint8(n)
	}
	return out, nil
}

func decodeTemplate(v gjson.Result) (*template.Template, error) {
	t := &template.Template{Name: v.Get("name").String()}
	for _, r := range v.Get("roots").Array() {
		n, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		t.Roots = append(t.Roots, n)
	}
	for _, p := range v.Get("node_paths").Array() {
		path, err := decodePath(p)
		if err != nil {
			return nil, err
		}
		t.NodePaths = append(t.NodePaths, path)
	}
	for _, p := range v.Get("attr_paths").Array() {
		path, err := decodePath(p)
		if err != nil {
			return nil, err
		}
		t.AttrPaths = append(t.AttrPaths, path)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeNode(v gjson.Result) (template.Node, error) {
	switch typ := v.Get("type").String(); typ {
	case "element":
		el := template.Element{Tag: v.Get("tag").String(), Namespace: v.Get("namespace").String()}
		for _, a := range v.Get("attrs").Array() {
			switch a.Get("type").String() {
			case "static":
				el.Attrs = append(el.Attrs, template.StaticAttr{
					Name:      a.Get("name").String(),
					Namespace: a.Get("namespace").String(),
					Value:     a.Get("value").String(),
				})
			case "dynamic":
				el.Attrs = append(el.Attrs, template.DynamicAttr{ID: int(a.Get("id").Int())})
			default:
				return nil, fmt.Errorf("%w: attribute type %q", ErrBadField, a.Get("type").String())
			}
		}
		for _, c := range v.Get("children").Array() {
			n, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, n)
		}
		return el, nil
	case "text":
		return template.Text{Text: v.Get("text").String()}, nil
	case "dynamic_text":
		return template.DynamicText{ID: int(v.Get("id").Int())}, nil
	case "dynamic":
		return template.Dynamic{ID: int(v.Get("id").Int())}, nil
	default:
		return nil, fmt.Errorf("%w: node type %q", ErrBadField, typ)
	}
}
