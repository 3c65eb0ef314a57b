// Package dom defines the minimal XML document capability the converters
// build on. Callers pass an Implementation explicitly; the default one is
// backed by github.com/beevik/etree.
package dom

// Element is a node of a document under construction.
type Element interface {
	// SetAttribute sets or replaces an attribute.
	SetAttribute(name, value string)
	// AppendChild adds child as the last child of the element.
	AppendChild(child Element)
}

// Document owns the elements it creates.
type Document interface {
	// CreateElement returns a detached element.
	CreateElement(tag string) Element
	// DocumentElement returns the root element, or nil if none was set.
	DocumentElement() Element
	// AppendChild makes root the document element.
	AppendChild(root Element)
	// WriteToString serializes the document.
	WriteToString() (string, error)
}

// Implementation creates documents.
type Implementation interface {
	// CreateDocument returns a new document. When qualifiedName is not
	// empty the document gets a root element of that name, carrying an
	// xmlns attribute if namespace is not empty.
	CreateDocument(namespace, qualifiedName string) Document
}
