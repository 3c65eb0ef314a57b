package xmltree

import (
	"github.com/ocad2qml/backend/internal/dom"
)

// Build creates the element tree described by n under doc and returns its
// root. The returned element is not attached; callers append it where it
// belongs. Later attributes with the same name overwrite earlier ones.
func Build(doc dom.Document, n *Node) dom.Element {
	el := doc.CreateElement(n.Tag)
	if n.ID != "" {
		el.SetAttribute("id", n.ID)
	}
	for _, a := range n.Attrs {
		el.SetAttribute(a.Name, a.Value)
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		el.AppendChild(Build(doc, c))
	}
	return el
}

// BuildInto appends the realized children of n to parent.
func BuildInto(doc dom.Document, parent dom.Element, children []*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		parent.AppendChild(Build(doc, c))
	}
}
