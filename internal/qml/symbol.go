package qml

import (
	"fmt"
	"strconv"

	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/xmltree"
)

// passBase is the pass number of a color with render order 0. Colors
// drawn later in OCAD (higher render order) get lower passes.
const passBase = 1000

// symbolKind is the kind of definition a symbol record carries.
type symbolKind int

const (
	otherKind symbolKind = iota
	lineKind
	areaKind
)

func kindOf(sym *models.Symbol) symbolKind {
	switch {
	case sym.Line != nil:
		return lineKind
	case sym.Area != nil:
		return areaKind
	}
	return otherKind
}

// qmlType is the value of the type attribute of a QML symbol element.
func qmlType(sym *models.Symbol) string {
	switch kindOf(sym) {
	case lineKind:
		return "line"
	case areaKind:
		return "fill"
	}
	return ""
}

func pass(c models.Color) int {
	return passBase - c.RenderOrder
}

func rgba(c models.Color, alpha int) string {
	return fmt.Sprintf("%d,%d,%d,%d", c.RGB[0], c.RGB[1], c.RGB[2], alpha)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func prop[T xmltree.Scalar](k string, v T) *xmltree.Node {
	return xmltree.New("prop", xmltree.A("k", k), xmltree.A("v", v))
}

func layer(class string, passNum int) *xmltree.Node {
	return xmltree.New("layer",
		xmltree.A("class", class),
		xmltree.A("enabled", 1),
		xmltree.A("locked", 0),
		xmltree.A("pass", passNum),
	)
}

func lookupColor(colors map[int]models.Color, ref *int) (models.Color, bool) {
	if ref == nil {
		return models.Color{}, false
	}
	c, ok := colors[*ref]
	return c, ok
}

// primaryColor is the color whose render order places the whole symbol.
func primaryColor(colors map[int]models.Color, sym *models.Symbol) (models.Color, bool) {
	switch kindOf(sym) {
	case lineKind:
		return lookupColor(colors, sym.Line.LineColor)
	case areaKind:
		return lookupColor(colors, sym.Area.FillColor)
	}
	return models.Color{}, false
}

// MapSymbol returns the QML symbol layers of one OCAD symbol. The result
// may be empty: unsupported symbol kinds and unresolved colors produce no
// layers (subject to opts.Omission). A type byte that contradicts the
// symbol's definition yields ErrTypeMismatch.
func MapSymbol(scale float64, colors map[int]models.Color, sym *models.Symbol, opts Options) ([]*xmltree.Node, error) {
	opts = opts.withDefaults()
	m := mapper{scale: scale, colors: colors, opts: opts, omit: opts.omitter()}

	switch kindOf(sym) {
	case lineKind:
		if sym.Type != models.LineSymbolType {
			return nil, mismatch(sym, models.LineSymbolType)
		}
		return m.line(sym)
	case areaKind:
		if sym.Type != models.AreaSymbolType {
			return nil, mismatch(sym, models.AreaSymbolType)
		}
		return m.area(sym)
	}
	return nil, nil
}

func mismatch(sym *models.Symbol, want models.SymbolType) error {
	return fmt.Errorf("symbol %d: type %s does not match %s definition: %w", sym.SymNum, sym.Type, want, ErrTypeMismatch)
}

type mapper struct {
	scale  float64
	colors map[int]models.Color
	opts   Options
	omit   omitter
}

func (m mapper) unresolved(sym *models.Symbol, ref *int) error {
	if ref == nil {
		return m.omit.omit(fmt.Errorf("symbol %d (%s): no color: %w", sym.SymNum, sym.Description, ErrUnresolvedColor))
	}
	return m.omit.omit(fmt.Errorf("symbol %d (%s): color %d: %w", sym.SymNum, sym.Description, *ref, ErrUnresolvedColor))
}

func (m mapper) line(sym *models.Symbol) ([]*xmltree.Node, error) {
	l := sym.Line
	c, ok := lookupColor(m.colors, l.LineColor)
	if !ok {
		return nil, m.unresolved(sym, l.LineColor)
	}

	n := layer("SimpleLine", pass(c)).Append(
		prop("capstyle", "flat"),
		prop("joinstyle", "bevel"),
		prop("line_color", rgba(c, 255)),
		prop("line_style", "solid"),
		prop("line_width", ToMapUnit(m.scale, float64(l.LineWidth))),
		prop("line_width_unit", "MapUnit"),
	)
	if l.Dashed() {
		dash := formatNumber(ToMapUnit(m.scale, float64(l.MainLength))) + ";" +
			formatNumber(ToMapUnit(m.scale, float64(l.MainGap)))
		n.Append(
			prop("customdash", dash),
			prop("customdash_unit", "MapUnit"),
			prop("use_custom_dash", 1),
		)
	}
	return []*xmltree.Node{n}, nil
}

func (m mapper) area(sym *models.Symbol) ([]*xmltree.Node, error) {
	a := sym.Area
	c, ok := lookupColor(m.colors, a.FillColor)
	if !ok {
		return nil, m.unresolved(sym, a.FillColor)
	}

	var layers []*xmltree.Node
	if !a.HasPattern() || a.FillOn {
		layers = append(layers, layer("SimpleFill", pass(c)).Append(
			prop("color", rgba(c, 255)),
			prop("style", "solid"),
			prop("outline_style", "no"),
		))
	}
	if a.HasPattern() {
		for _, fragment := range m.opts.Patterns.Patterns(m.colors, sym) {
			svgFill, err := EmbedPattern(m.opts.DOM, m.scale, c, fragment)
			if err != nil {
				return nil, fmt.Errorf("symbol %d: %w", sym.SymNum, err)
			}
			layers = append(layers, svgFill)
		}
	}
	return layers, nil
}
