package qml

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/ocad2qml/backend/internal/dom"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/xmltree"
	"github.com/stretchr/testify/require"
)

// props collects the prop children of a layer node.
func props(layer *xmltree.Node) map[string]string {
	out := make(map[string]string)
	for _, p := range layer.Find("prop") {
		k, _ := p.Attr("k")
		v, _ := p.Attr("v")
		out[k] = v
	}
	return out
}

func attrOf(t *testing.T, n *xmltree.Node, name string) string {
	t.Helper()
	v, ok := n.Attr(name)
	require.True(t, ok, "attribute %s missing on <%s>", name, n.Tag)
	return v
}

func parseFloat(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return f
}

// decodeSVG returns the SVG document embedded in an svgFile property.
func decodeSVG(t *testing.T, svgFile string) *etree.Document {
	t.Helper()
	require.True(t, strings.HasPrefix(svgFile, "base64:"), "missing base64: prefix")
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(svgFile, "base64:"))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	require.NotNil(t, doc.Root())
	return doc
}

func parseDocument(t *testing.T, doc dom.Document) *etree.Document {
	t.Helper()
	s, err := doc.WriteToString()
	require.NoError(t, err)

	out := etree.NewDocument()
	require.NoError(t, out.ReadFromString(s))
	return out
}

// sequentialKeys returns a deterministic key generator.
func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
}

// fixedPatterns returns the same fragments for every symbol.
type fixedPatterns []*xmltree.Node

func (f fixedPatterns) Patterns(map[int]models.Color, *models.Symbol) []*xmltree.Node {
	return f
}

func tile(w, h int, transform string) *xmltree.Node {
	attrs := []xmltree.Attr{xmltree.A("width", w), xmltree.A("height", h)}
	if transform != "" {
		attrs = append(attrs, xmltree.A("patternTransform", transform))
	}
	return xmltree.New("pattern", attrs...).Append(
		xmltree.New("rect", xmltree.A("x", 0), xmltree.A("y", 0), xmltree.A("width", w), xmltree.A("height", 2), xmltree.A("fill", "#000000")),
	)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	i, err := strconv.Atoi(s)
	require.NoError(t, err)
	return i
}
