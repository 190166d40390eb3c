package mutation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/arbor/internal/template"
)

func sampleStream() *Mutations {
	tmpl := template.Build("sample",
		template.El("div", template.Attrs(template.Static("class", "box"), template.DynamicAttr{ID: 0}),
			template.DynamicText{ID: 0},
			template.Dynamic{ID: 1},
		),
	)
	return &Mutations{
		Templates: []*template.Template{tmpl},
		Edits: []Mutation{
			LoadTemplate{Name: "sample", Index: 0, ID: 1},
			AssignID{Path: []uint8{0}, ID: 2},
			SetAttribute{ID: 2, Name: "title", Value: Str("hello")},
			AssignID{Path: []uint8{0, 0}, ID: 3},
			SetText{ID: 3, Value: "text"},
			CreatePlaceholder{ID: 4},
			ReplacePlaceholder{Path: []uint8{0, 1}, M: 1},
			AppendChildren{ID: RootID, M: 1},
			SetAttribute{ID: 2, Name: "hidden", Namespace: "ns"},
			NewEventListener{Name: "click", ID: 2},
			RemoveEventListener{Name: "click", ID: 2},
			CreateText{Value: "x", ID: 5},
			InsertAfter{ID: 1, M: 1},
			PushRoot{ID: 5},
			InsertBefore{ID: 1, M: 1},
			CreateText{Value: "y", ID: 6},
			ReplaceWith{ID: 5, M: 1},
			RemoveRange{ID: 6, M: 1},
			Remove{ID: 1},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := sampleStream()

	data, err := EncodeJSON(in)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	out, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLayout(t *testing.T) {
	data, err := EncodeJSON(&Mutations{Edits: []Mutation{Remove{ID: 1}, PushRoot{ID: 2}}})
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	want := `{"templates":[],"edits":[{"op":"Remove","id":1},{"op":"PushRoot","id":2}]}`
	if string(data) != want {
		t.Errorf("EncodeJSON = %s, want %s", data, want)
	}
}

func TestEncodeLargeStream(t *testing.T) {
	in := &Mutations{}
	for i := 1; i <= 5000; i++ {
		in.Edits = append(in.Edits,
			CreateText{Value: strings.Repeat("x", i%7), ID: ElementID(i)},
			AppendChildren{ID: RootID, M: 1},
		)
	}
	data, err := EncodeJSON(in)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	out, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeNil(t *testing.T) {
	data, err := EncodeJSON(nil)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	m, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !m.Empty() {
		t.Errorf("expected empty stream, got %v", m)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"invalid", `{"edits":[`, ErrInvalidJSON},
		{"unknown op", `{"edits":[{"op":"Explode","id":1}]}`, ErrUnknownOp},
		{"missing id", `{"edits":[{"op":"Remove"}]}`, ErrBadField},
		{"negative count", `{"edits":[{"op":"AppendChildren","id":0,"m":-1}]}`, ErrBadField},
		{"path overflow", `{"edits":[{"op":"AssignId","path":[0,300],"id":2}]}`, ErrBadField},
		{"bad template", `{"templates":[{"name":"t","roots":[{"type":"dynamic","id":0}],"node_paths":[]}]}`, template.ErrSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeJSON error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	m := sampleStream()
	if got := m.Count("SetAttribute"); got != 2 {
		t.Errorf("Count(SetAttribute) = %d, want 2", got)
	}
	if got := m.Structural(); got != 7 {
		t.Errorf("Structural = %d, want 7", got)
	}
	if m.Len() != len(m.Edits) {
		t.Errorf("Len = %d, want %d", m.Len(), len(m.Edits))
	}
	var nilStream *Mutations
	if nilStream.Len() != 0 || !nilStream.Empty() {
		t.Error("nil stream should be empty")
	}
}

func TestString(t *testing.T) {
	s := sampleStream().String()
	if !strings.HasPrefix(s, "template sample\n") {
		t.Errorf("String should list templates first:\n%s", s)
	}
	if !strings.Contains(s, `Value:"hello"`) || !strings.Contains(s, "Value:<nil>") {
		t.Errorf("String should format attribute values:\n%s", s)
	}
}

func TestTeeStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	first := NewRecorder()
	last := NewRecorder()
	sink := Tee(first, SinkFunc(func(*Mutations) error { return boom }), last)

	if err := sink.Apply(&Mutations{}); !errors.Is(err, boom) {
		t.Fatalf("Apply error = %v, want boom", err)
	}
	if len(first.Streams()) != 1 {
		t.Error("first sink should receive the stream")
	}
	if last.Last() != nil {
		t.Error("sinks after the failing one must not receive the stream")
	}
}
