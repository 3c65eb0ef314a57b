// Package xmltree describes XML trees as plain values and realizes them
// on a dom.Document.
package xmltree

import (
	"reflect"
	"strconv"
)

// Scalar lists the kinds an attribute value may have.
type Scalar interface {
	~string | ~int | ~int32 | ~int64 | ~uint8 | ~float32 | ~float64
}

// Attr is a rendered attribute.
type Attr struct {
	Name  string
	Value string
}

// A renders a scalar attribute value. Numbers use strconv formatting,
// never locale grouping; floats use the shortest exact representation.
func A[T Scalar](name string, v T) Attr {
	return Attr{Name: name, Value: format(reflect.ValueOf(v))}
}

func format(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint8:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	}
	panic("xmltree: unsupported attribute kind " + v.Kind().String())
}

// Node is an element description: tag, optional id, attributes in
// insertion order and ordered children.
type Node struct {
	Tag      string
	ID       string
	Attrs    []Attr
	Children []*Node
}

// New returns a node with the given tag and attributes.
func New(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// Append adds children and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Set adds or replaces an attribute.
func (n *Node) Set(a Attr) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == a.Name {
			n.Attrs[i] = a
			return n
		}
	}
	n.Attrs = append(n.Attrs, a)
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the direct children with the given tag.
func (n *Node) Find(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c != nil && c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}
