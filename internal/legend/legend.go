// Package legend draws an SVG sheet with one swatch per symbol used by a
// map, using the same pattern fragments as the QML pattern fills.
package legend

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/pattern"
	"github.com/ocad2qml/backend/internal/qml"
	"github.com/ocad2qml/backend/internal/xmltree"
)

// Sheet geometry in 1/100 mm, the unit of OCAD symbol definitions.
const (
	margin     = 200
	rowHeight  = 800
	swatchW    = 1200
	swatchH    = 600
	labelGap   = 300
	labelWidth = 5000
	fontSize   = 300
	sheetWidth = 2*margin + swatchW + labelGap + labelWidth
)

// Options controls legend output.
type Options struct {
	// Zoom is the number of pixels per millimetre of the sheet.
	Zoom float64
	// Title is written as the SVG title.
	Title string
	// Flatten replaces pattern fills by a translucent flat swatch in the
	// pattern's color, for renderers without pattern support.
	Flatten bool
}

// DefaultOptions returns a legend at 4 pixels per millimetre titled "Legend".
func DefaultOptions() Options {
	return Options{Zoom: 4, Title: "Legend"}
}

// Size returns the pixel size of the legend for n rows.
func (o Options) Size(n int) (width, height int) {
	return o.px(sheetWidth), o.px(sheetHeight(n))
}

func (o Options) px(units int) int {
	zoom := o.Zoom
	if zoom <= 0 {
		zoom = DefaultOptions().Zoom
	}
	return int(math.Round(float64(units) * zoom / 100))
}

func sheetHeight(rows int) int {
	if rows == 0 {
		return 2 * margin
	}
	return 2*margin + rows*rowHeight
}

// Write draws the legend of file to w.
func Write(w io.Writer, file *models.OcadFile, gen pattern.Generator, opts Options) error {
	if gen == nil {
		gen = pattern.New()
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	symbols := qml.StyledSymbols(file)
	height := sheetHeight(len(symbols))
	pxW, pxH := opts.Size(len(symbols))
	canvas.Startview(pxW, pxH, 0, 0, sheetWidth, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, sheetWidth, height, "fill:#ffffff")

	d := drawer{canvas: canvas, colors: file.Colors, gen: gen, flatten: opts.Flatten}
	for i, sym := range symbols {
		y := margin + i*rowHeight
		d.swatch(sym, margin, y)
		canvas.Text(margin+swatchW+labelGap, y+swatchH/2+fontSize/3, qml.Label(sym),
			fmt.Sprintf("font-size:%dpx;font-family:sans-serif;fill:#000000", fontSize))
	}
	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("writing legend: %w", ew.err)
	}
	return nil
}

type drawer struct {
	canvas  *svg.SVG
	colors  map[int]models.Color
	gen     pattern.Generator
	flatten bool
}

func (d drawer) swatch(sym *models.Symbol, x, y int) {
	switch {
	case sym.Line != nil:
		d.line(sym.Line, x, y)
	case sym.Area != nil:
		d.area(sym, x, y)
	}
	d.canvas.Rect(x, y, swatchW, swatchH, "fill:none;stroke:#808080;stroke-width:10")
}

func (d drawer) line(l *models.LineSymbol, x, y int) {
	if l.LineColor == nil {
		return
	}
	c, ok := d.colors[*l.LineColor]
	if !ok {
		return
	}
	style := fmt.Sprintf("stroke:%s;stroke-width:%d", pattern.CSSColor(c), max(l.LineWidth, 1))
	if l.Dashed() {
		style += fmt.Sprintf(";stroke-dasharray:%d,%d", l.MainLength, l.MainGap)
	}
	d.canvas.Line(x, y+swatchH/2, x+swatchW, y+swatchH/2, style)
}

func (d drawer) area(sym *models.Symbol, x, y int) {
	a := sym.Area
	if a.FillColor == nil {
		return
	}
	c, ok := d.colors[*a.FillColor]
	if !ok {
		return
	}
	if !a.HasPattern() || a.FillOn {
		d.canvas.Rect(x, y, swatchW, swatchH, "fill:"+pattern.CSSColor(c))
	}
	if !a.HasPattern() {
		return
	}

	for _, p := range d.gen.Patterns(d.colors, sym) {
		if d.flatten {
			if color := fragmentColor(p); color != "" {
				d.canvas.Rect(x, y, swatchW, swatchH, "fill:"+color+";fill-opacity:0.5")
			}
			continue
		}
		d.pattern(p)
		d.canvas.Rect(x, y, swatchW, swatchH, "fill:url(#"+p.ID+")")
	}
}

func (d drawer) pattern(p *xmltree.Node) {
	var extra []string
	if t, ok := p.Attr("patternTransform"); ok {
		extra = append(extra, attr("patternTransform", t))
	}

	d.canvas.Def()
	d.canvas.Pattern(p.ID, 0, 0, intAttr(p, "width"), intAttr(p, "height"), "user", extra...)
	for _, c := range p.Children {
		shape(d.canvas, c)
	}
	d.canvas.PatternEnd()
	d.canvas.DefEnd()
}

// shape draws one pattern child. Geometry is rounded to whole units.
func shape(canvas *svg.SVG, n *xmltree.Node) {
	switch n.Tag {
	case "rect":
		canvas.Rect(intAttr(n, "x"), intAttr(n, "y"), intAttr(n, "width"), intAttr(n, "height"),
			rest(n, "x", "y", "width", "height")...)
	case "path":
		d, _ := n.Attr("d")
		canvas.Path(d, rest(n, "d")...)
	case "circle":
		canvas.Circle(intAttr(n, "cx"), intAttr(n, "cy"), intAttr(n, "r"),
			rest(n, "cx", "cy", "r")...)
	}
}

// fragmentColor is the first paint used inside a pattern.
func fragmentColor(p *xmltree.Node) string {
	for _, c := range p.Children {
		for _, name := range []string{"fill", "stroke"} {
			if v, ok := c.Attr(name); ok && v != "none" {
				return v
			}
		}
	}
	return ""
}

func intAttr(n *xmltree.Node, name string) int {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

func rest(n *xmltree.Node, skip ...string) []string {
	var out []string
next:
	for _, a := range n.Attrs {
		for _, s := range skip {
			if a.Name == s {
				continue next
			}
		}
		out = append(out, attr(a.Name, a.Value))
	}
	return out
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
