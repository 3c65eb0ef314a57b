package qml

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/ocad2qml/backend/internal/dom"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/xmltree"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// svgDataPrefix marks inline SVG data in QGIS svgFile properties.
const svgDataPrefix = "base64:"

// EmbedPattern turns a pattern fragment into an SVGFill layer. The
// fragment's shapes are written into a standalone SVG document which is
// stored inline, base64 encoded, in the layer's svgFile property.
func EmbedPattern(impl dom.Implementation, scale float64, fill models.Color, fragment *xmltree.Node) (*xmltree.Node, error) {
	width, err := dimension(fragment, "width")
	if err != nil {
		return nil, err
	}
	height, err := dimension(fragment, "height")
	if err != nil {
		return nil, err
	}
	transform, _ := fragment.Attr("patternTransform")

	data, err := svgData(impl, fragment)
	if err != nil {
		return nil, err
	}

	return layer("SVGFill", pass(fill)).Append(
		prop("angle", PatternRotation(transform)),
		prop("outline_style", "no"),
		prop("svgFile", data),
		prop("svg_outline_width", 0),
		prop("width", ToMapUnit(scale, width)),
		prop("height", ToMapUnit(scale, height)),
		prop("pattern_width_unit", "MapUnit"),
		invisibleOutline(),
	), nil
}

func dimension(fragment *xmltree.Node, name string) (float64, error) {
	raw, ok := fragment.Attr(name)
	if !ok {
		return 0, fmt.Errorf("pattern %q: missing %s", fragment.ID, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("pattern %q: invalid %s %q: %w", fragment.ID, name, raw, err)
	}
	return v, nil
}

func svgData(impl dom.Implementation, fragment *xmltree.Node) (string, error) {
	doc := impl.CreateDocument(svgNamespace, "svg")
	root := doc.DocumentElement()

	// keep the fragment's own spelling of the dimensions
	w, _ := fragment.Attr("width")
	h, _ := fragment.Attr("height")
	root.SetAttribute("width", w)
	root.SetAttribute("height", h)
	xmltree.BuildInto(doc, root, fragment.Children)

	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("pattern %q: %w", fragment.ID, err)
	}
	return svgDataPrefix + base64.StdEncoding.EncodeToString([]byte(s)), nil
}

// invisibleOutline is the outline sub-symbol QGIS expects on an SVGFill
// layer: a fully transparent line of zero width.
func invisibleOutline() *xmltree.Node {
	return xmltree.New("symbol",
		xmltree.A("type", "line"),
		xmltree.A("alpha", 0),
		xmltree.A("clip_to_extent", 1),
		xmltree.A("force_rhr", 0),
	).Append(
		layer("SimpleLine", 0).Append(
			prop("line_color", "0,0,0,0"),
			prop("line_style", "no"),
			prop("line_width", 0),
			prop("line_width_unit", "MM"),
		),
	)
}
