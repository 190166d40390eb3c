package vdom

import (
	"strconv"
	"strings"
)

// Attribute fills a dynamic attribute slot.
type Attribute struct {
	Name      string
	Namespace string
	Value     Value
}

// Attr builds an attribute without a namespace.
func Attr(name string, v Value) Attribute {
	return Attribute{Name: name, Value: v}
}

// Value is an attribute value.
// The set of implementations is closed: String, Int, Float, Bool, None,
// Listener.
type Value interface {
	attrValue()
}

type (
	String string
	Int    int64
	Float  float64
	Bool   bool

	// None clears the attribute.
	None struct{}

	// Listener registers interest in the event named by the attribute.
	// Handler is carried for the application; the engine never calls it.
	Listener struct {
		Handler any
	}
)

func (String) attrValue()   {}
func (Int) attrValue()      {}
func (Float) attrValue()    {}
func (Bool) attrValue()     {}
func (None) attrValue()     {}
func (Listener) attrValue() {}

func isListener(v Value) bool {
	_, ok := v.(Listener)
	return ok
}

// DefaultPreserveFalse lists attributes whose false value is sent as the
// literal "false" instead of removing the attribute.
var DefaultPreserveFalse = []string{"draggable", "spellcheck", "contenteditable", "aria-*"}

// falseRules matches attribute names against a preserve-false list.
// Entries ending in '*' match by prefix.
type falseRules struct {
	names    map[string]struct{}
	prefixes []string
}

func newFalseRules(list []string) falseRules {
	r := falseRules{names: make(map[string]struct{}, len(list))}
	for _, n := range list {
		if p, ok := strings.CutSuffix(n, "*"); ok {
			r.prefixes = append(r.prefixes, p)
			continue
		}
		r.names[n] = struct{}{}
	}
	return r
}

func (r falseRules) preserve(name string) bool {
	if _, ok := r.names[name]; ok {
		return true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// render normalizes a value to what the renderer receives. A nil result
// removes the attribute.
func (r falseRules) render(a Attribute) *string {
	var s string
	switch v := a.Value.(type) {
	case String:
		s = string(v)
	case Int:
		s = strconv.FormatInt(int64(v), 10)
	case Float:
		s = strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Bool:
		if !bool(v) && !r.preserve(a.Name) {
			return nil
		}
		s = strconv.FormatBool(bool(v))
	default:
		return nil
	}
	return &s
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
