package dom

import (
	"fmt"

	"github.com/beevik/etree"
)

// Etree implements Implementation on top of etree documents.
type Etree struct {
	// Indent is the number of spaces used to indent serialized output.
	// Zero writes the document on a single line.
	Indent int
	// Declaration adds an <?xml ...?> header to serialized output.
	Declaration bool
}

var _ Implementation = Etree{}

// NewEtree returns the implementation used for QML output.
func NewEtree() Etree {
	return Etree{Indent: 2, Declaration: true}
}

// CreateDocument implements Implementation.
func (impl Etree) CreateDocument(namespace, qualifiedName string) Document {
	d := &etreeDocument{doc: etree.NewDocument(), impl: impl}
	if qualifiedName != "" {
		root := etree.NewElement(qualifiedName)
		if namespace != "" {
			root.CreateAttr("xmlns", namespace)
		}
		d.doc.SetRoot(root)
	}
	return d
}

type etreeDocument struct {
	doc  *etree.Document
	impl Etree
}

type etreeElement struct {
	el *etree.Element
}

func (d *etreeDocument) CreateElement(tag string) Element {
	return &etreeElement{el: etree.NewElement(tag)}
}

func (d *etreeDocument) DocumentElement() Element {
	root := d.doc.Root()
	if root == nil {
		return nil
	}
	return &etreeElement{el: root}
}

func (d *etreeDocument) AppendChild(root Element) {
	d.doc.SetRoot(unwrap(root))
}

func (d *etreeDocument) WriteToString() (string, error) {
	out := d.doc.Copy()
	if d.impl.Declaration {
		out.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`))
	}
	if d.impl.Indent > 0 {
		out.Indent(d.impl.Indent)
	}
	s, err := out.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return s, nil
}

func (e *etreeElement) SetAttribute(name, value string) {
	e.el.CreateAttr(name, value)
}

func (e *etreeElement) AppendChild(child Element) {
	e.el.AddChild(unwrap(child))
}

// unwrap panics when elements of different implementations are mixed,
// which is a programming error.
func unwrap(e Element) *etree.Element {
	ee, ok := e.(*etreeElement)
	if !ok {
		panic(fmt.Sprintf("dom: element %T does not belong to an etree document", e))
	}
	return ee.el
}
