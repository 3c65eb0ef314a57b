// Package pattern generates SVG <pattern> fragments for OCAD area symbols
// with hatch or structure fills.
//
// Fragments are xmltree nodes: the pattern element carries width, height
// and an optional patternTransform; its children are plain SVG shapes in
// pattern units (1/100 mm), ready to be placed in a standalone document or
// in a <defs> section.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/xmltree"
)

// Generator produces the pattern fragments of an area symbol.
type Generator interface {
	Patterns(colors map[int]models.Color, sym *models.Symbol) []*xmltree.Node
}

const (
	hatchSingle = 1
	hatchCross  = 2

	structAligned = 1
	structShifted = 2
)

// OCAD is the default generator.
type OCAD struct{}

var _ Generator = OCAD{}

// New returns the default generator.
func New() OCAD {
	return OCAD{}
}

// Patterns returns hatch fragments first, then the structure fragment.
// Symbols without an area definition yield nothing.
func (OCAD) Patterns(colors map[int]models.Color, sym *models.Symbol) []*xmltree.Node {
	if sym == nil || sym.Area == nil {
		return nil
	}
	area := sym.Area

	var out []*xmltree.Node
	if area.HatchMode != 0 {
		if c, ok := colors[area.HatchColor]; ok {
			spacing := area.HatchLineDist + area.HatchLineWidth
			if spacing > 0 && area.HatchLineWidth > 0 {
				out = append(out, hatch(patternID(sym, "hatch", 1), area.HatchAngle1, spacing, area.HatchLineWidth, CSSColor(c)))
				if area.HatchMode == hatchCross {
					out = append(out, hatch(patternID(sym, "hatch", 2), area.HatchAngle2, spacing, area.HatchLineWidth, CSSColor(c)))
				}
			}
		}
	}
	if area.StructMode != 0 {
		if p := structure(patternID(sym, "struct", 1), colors, area); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func patternID(sym *models.Symbol, kind string, n int) string {
	return fmt.Sprintf("%s-%d-%d", kind, sym.SymNum, n)
}

// Rotation formats an OCAD angle (1/10 degree, counter-clockwise) as an
// SVG rotate() transform. SVG rotates clockwise, hence the sign flip.
func Rotation(angle int) string {
	return "rotate(" + strconv.FormatFloat(float64(-angle)/10, 'f', -1, 64) + ")"
}

// CSSColor returns the #rrggbb form of an OCAD color.
func CSSColor(c models.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.RGB[0]), clamp(c.RGB[1]), clamp(c.RGB[2]))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func hatch(id string, angle, spacing, lineWidth int, color string) *xmltree.Node {
	p := xmltree.New("pattern",
		xmltree.A("patternUnits", "userSpaceOnUse"),
		xmltree.A("width", spacing),
		xmltree.A("height", spacing),
		xmltree.A("patternTransform", Rotation(angle)),
	)
	p.ID = id
	return p.Append(xmltree.New("rect",
		xmltree.A("x", 0),
		xmltree.A("y", 0),
		xmltree.A("width", spacing),
		xmltree.A("height", lineWidth),
		xmltree.A("fill", color),
	))
}

type offset struct{ x, y int }

func structure(id string, colors map[int]models.Color, area *models.AreaSymbol) *xmltree.Node {
	w, h := area.StructWidth, area.StructHeight
	if w <= 0 || h <= 0 {
		return nil
	}

	tileH := h
	cells := []offset{{w / 2, h / 2}}
	if area.StructMode == structShifted {
		tileH = 2 * h
		// second row is shifted by half a cell and wraps around the tile edge
		cells = append(cells, offset{0, h + h/2}, offset{w, h + h/2})
	}

	attrs := []xmltree.Attr{
		xmltree.A("patternUnits", "userSpaceOnUse"),
		xmltree.A("width", w),
		xmltree.A("height", tileH),
	}
	if area.StructAngle != 0 {
		attrs = append(attrs, xmltree.A("patternTransform", Rotation(area.StructAngle)))
	}
	p := xmltree.New("pattern", attrs...)
	p.ID = id

	for _, cell := range cells {
		for _, e := range area.Elements {
			c, ok := colors[e.Color]
			if !ok {
				continue
			}
			if n := element(e, cell, CSSColor(c)); n != nil {
				p.Append(n)
			}
		}
	}
	return p
}

// element renders one structure element with its origin at o.
// OCAD y grows upwards, SVG y grows downwards.
func element(e models.SymbolElement, o offset, color string) *xmltree.Node {
	switch e.Type {
	case models.LineElement:
		if len(e.Coords) < 2 {
			return nil
		}
		return xmltree.New("path",
			xmltree.A("d", pathData(e.Coords, o, false)),
			xmltree.A("fill", "none"),
			xmltree.A("stroke", color),
			xmltree.A("stroke-width", e.LineWidth),
		)
	case models.AreaElement:
		if len(e.Coords) < 3 {
			return nil
		}
		return xmltree.New("path",
			xmltree.A("d", pathData(e.Coords, o, true)),
			xmltree.A("fill", color),
		)
	case models.CircleElement, models.DotElement:
		cx, cy := o.x, o.y
		if len(e.Coords) > 0 {
			cx, cy = o.x+e.Coords[0].X, o.y-e.Coords[0].Y
		}
		n := xmltree.New("circle",
			xmltree.A("cx", cx),
			xmltree.A("cy", cy),
			xmltree.A("r", float64(e.Diameter)/2),
		)
		if e.Type == models.DotElement {
			return n.Set(xmltree.A("fill", color))
		}
		return n.Set(xmltree.A("fill", "none")).
			Set(xmltree.A("stroke", color)).
			Set(xmltree.A("stroke-width", e.LineWidth))
	}
	return nil
}

func pathData(coords []models.Coord, o offset, closed bool) string {
	var b strings.Builder
	for i, c := range coords {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(strconv.Itoa(o.x + c.X))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(o.y - c.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}
