package models

// SymbolType is the OCAD symbol type discriminant stored in every symbol record.
type SymbolType int

const (
	PointSymbolType         SymbolType = 1
	LineSymbolType          SymbolType = 2
	AreaSymbolType          SymbolType = 3
	TextSymbolType          SymbolType = 4
	RectangleSymbolType     SymbolType = 5
	LineTextSymbolType      SymbolType = 6
	RectangleTextSymbolType SymbolType = 7
)

// String returns a short name for the symbol type.
func (t SymbolType) String() string {
	switch t {
	case PointSymbolType:
		return "point"
	case LineSymbolType:
		return "line"
	case AreaSymbolType:
		return "area"
	case TextSymbolType:
		return "text"
	case RectangleSymbolType:
		return "rectangle"
	case LineTextSymbolType:
		return "linetext"
	case RectangleTextSymbolType:
		return "recttext"
	}
	return "unknown"
}

// ObjectStatus mirrors the OCAD object status byte.
type ObjectStatus int

const (
	ObjectDeleted ObjectStatus = 0
	ObjectNormal  ObjectStatus = 1
	ObjectHidden  ObjectStatus = 2
)

// OcadFile is the in-memory result of reading an OCAD map.
// Only the parts needed to build a style document are modelled.
type OcadFile struct {
	Objects []Object      `json:"objects" yaml:"objects"`
	Symbols []Symbol      `json:"symbols" yaml:"symbols"`
	Colors  map[int]Color `json:"colors" yaml:"colors"`
	Georef  CRS           `json:"crs" yaml:"crs"`
}

// CRS returns the coordinate reference information of the map.
func (f *OcadFile) CRS() CRS {
	return f.Georef
}

// Symbol looks up a symbol definition by its number.
func (f *OcadFile) Symbol(symNum int) (*Symbol, bool) {
	for i := range f.Symbols {
		if f.Symbols[i].SymNum == symNum {
			return &f.Symbols[i], true
		}
	}
	return nil, false
}

// CRS holds the map's coordinate reference settings.
type CRS struct {
	Scale float64 `json:"scale" yaml:"scale"` // scale denominator, 15000 for 1:15000
	Code  string  `json:"code,omitempty" yaml:"code,omitempty"`
}

// Object is a drawn feature referencing a symbol by number.
type Object struct {
	Sym    int          `json:"sym" yaml:"sym"`
	Status ObjectStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// Color is an entry of the map's color table.
type Color struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	RGB         [3]int `json:"rgb" yaml:"rgb"`
	RenderOrder int    `json:"renderOrder" yaml:"render_order"`
}

// Symbol is an OCAD symbol definition. Exactly one of Line or Area is set
// for the symbol kinds that can be styled; other kinds carry neither.
type Symbol struct {
	SymNum      int         `json:"symNum" yaml:"sym_num"`
	Type        SymbolType  `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Line        *LineSymbol `json:"line,omitempty" yaml:"line,omitempty"`
	Area        *AreaSymbol `json:"area,omitempty" yaml:"area,omitempty"`
}

// Major returns the symbol number part before the dot (101 for 101.000).
func (s *Symbol) Major() int {
	return s.SymNum / 1000
}

// Minor returns the symbol number part after the dot.
func (s *Symbol) Minor() int {
	return s.SymNum % 1000
}

// LineSymbol holds the line-specific fields. Lengths are in 1/100 mm.
type LineSymbol struct {
	LineColor  *int `json:"lineColor,omitempty" yaml:"line_color,omitempty"`
	LineWidth  int  `json:"lineWidth" yaml:"line_width"`
	MainLength int  `json:"mainLength,omitempty" yaml:"main_length,omitempty"`
	MainGap    int  `json:"mainGap,omitempty" yaml:"main_gap,omitempty"`
}

// Dashed reports whether the line is drawn with a dash pattern.
func (l *LineSymbol) Dashed() bool {
	return l.MainGap != 0 && l.MainLength != 0
}

// AreaSymbol holds the area-specific fields.
// Lengths are in 1/100 mm and angles in 1/10 degree.
type AreaSymbol struct {
	FillColor *int `json:"fillColor,omitempty" yaml:"fill_color,omitempty"`
	FillOn    bool `json:"fillOn" yaml:"fill_on"`

	HatchMode      int `json:"hatchMode,omitempty" yaml:"hatch_mode,omitempty"` // 0 none, 1 single, 2 cross
	HatchColor     int `json:"hatchColor,omitempty" yaml:"hatch_color,omitempty"`
	HatchLineWidth int `json:"hatchLineWidth,omitempty" yaml:"hatch_line_width,omitempty"`
	HatchLineDist  int `json:"hatchLineDist,omitempty" yaml:"hatch_line_dist,omitempty"`
	HatchAngle1    int `json:"hatchAngle1,omitempty" yaml:"hatch_angle1,omitempty"`
	HatchAngle2    int `json:"hatchAngle2,omitempty" yaml:"hatch_angle2,omitempty"`

	StructMode   int             `json:"structMode,omitempty" yaml:"struct_mode,omitempty"` // 0 none, 1 aligned, 2 shifted rows
	StructWidth  int             `json:"structWidth,omitempty" yaml:"struct_width,omitempty"`
	StructHeight int             `json:"structHeight,omitempty" yaml:"struct_height,omitempty"`
	StructAngle  int             `json:"structAngle,omitempty" yaml:"struct_angle,omitempty"`
	Elements     []SymbolElement `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// HasPattern reports whether the area carries a hatch or structure fill.
func (a *AreaSymbol) HasPattern() bool {
	return a.HatchMode != 0 || a.StructMode != 0
}

// ElementType is the kind of a structure element.
type ElementType int

const (
	LineElement   ElementType = 1
	AreaElement   ElementType = 2
	CircleElement ElementType = 3
	DotElement    ElementType = 4
)

// SymbolElement is one drawing primitive of a structure pattern,
// positioned relative to the pattern cell center.
type SymbolElement struct {
	Type      ElementType `json:"type" yaml:"type"`
	Color     int         `json:"color" yaml:"color"`
	LineWidth int         `json:"lineWidth,omitempty" yaml:"line_width,omitempty"`
	Diameter  int         `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	Coords    []Coord     `json:"coords,omitempty" yaml:"coords,omitempty"`
}

// Coord is a point in OCAD paper units, y pointing up.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// IntPtr is a helper for optional color references.
func IntPtr(v int) *int {
	return &v
}
