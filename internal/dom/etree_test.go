package dom

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEtree_CreateDocumentWithRoot(t *testing.T) {
	doc := Etree{}.CreateDocument("http://www.w3.org/2000/svg", "svg")
	root := doc.DocumentElement()
	require.NotNil(t, root)

	root.SetAttribute("width", "10")
	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" width="10"/>`, out)
}

func TestEtree_EmptyDocument(t *testing.T) {
	doc := Etree{}.CreateDocument("", "")
	assert.Nil(t, doc.DocumentElement())

	root := doc.CreateElement("qgis")
	child := doc.CreateElement("renderer-v2")
	root.AppendChild(child)
	doc.AppendChild(root)

	require.NotNil(t, doc.DocumentElement())
	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, `<qgis><renderer-v2/></qgis>`, out)
}

func TestEtree_SetAttributeOverwrites(t *testing.T) {
	doc := Etree{}.CreateDocument("", "a")
	root := doc.DocumentElement()
	root.SetAttribute("k", "1")
	root.SetAttribute("k", "2")

	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, `<a k="2"/>`, out)
}

func TestEtree_DeclarationAndIndent(t *testing.T) {
	doc := NewEtree().CreateDocument("", "qgis")
	doc.DocumentElement().AppendChild(doc.CreateElement("rules"))

	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "\n  <rules/>")

	// serializing twice must not stack declarations
	again, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, out, again)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromString(out))
	assert.Equal(t, "qgis", parsed.Root().Tag)
}

type foreignElement struct{}

func (foreignElement) SetAttribute(_, _ string) {}
func (foreignElement) AppendChild(Element)     {}

func TestEtree_MixedImplementationsPanic(t *testing.T) {
	doc := Etree{}.CreateDocument("", "root")
	assert.Panics(t, func() {
		doc.DocumentElement().AppendChild(foreignElement{})
	})
}
