package testutil

import (
	"github.com/ocad2qml/backend/internal/models"
)

// Color indices of SampleFile.
const (
	ColorBlack  = 0
	ColorBrown  = 1
	ColorBlue   = 2
	ColorYellow = 3
	ColorGreen  = 4
)

// SampleFile returns a small 1:15000 map using one symbol of each
// supported shape: solid line, dashed line, flat area, hatched area with
// flat fill, hatched area without flat fill, structured area, and a point
// symbol that is not styled.
func SampleFile() *models.OcadFile {
	return &models.OcadFile{
		Georef: models.CRS{Scale: 15000},
		Colors: map[int]models.Color{
			ColorBlack:  {Name: "Black", RGB: [3]int{0, 0, 0}, RenderOrder: 2},
			ColorBrown:  {Name: "Brown", RGB: [3]int{205, 120, 50}, RenderOrder: 3},
			ColorBlue:   {Name: "Blue", RGB: [3]int{0, 160, 255}, RenderOrder: 4},
			ColorYellow: {Name: "Yellow", RGB: [3]int{255, 186, 54}, RenderOrder: 10},
			ColorGreen:  {Name: "Green", RGB: [3]int{62, 255, 23}, RenderOrder: 8},
		},
		Symbols: []models.Symbol{
			{
				SymNum: 101000, Type: models.LineSymbolType, Description: "Contour",
				Line: &models.LineSymbol{LineColor: models.IntPtr(ColorBrown), LineWidth: 14},
			},
			{
				SymNum: 103000, Type: models.LineSymbolType, Description: "Form line",
				Line: &models.LineSymbol{LineColor: models.IntPtr(ColorBrown), LineWidth: 7, MainLength: 250, MainGap: 25},
			},
			{
				SymNum: 401000, Type: models.AreaSymbolType, Description: "Open land",
				Area: &models.AreaSymbol{FillColor: models.IntPtr(ColorYellow), FillOn: true},
			},
			{
				SymNum: 308000, Type: models.AreaSymbolType, Description: "Marsh",
				Area: &models.AreaSymbol{
					FillColor: models.IntPtr(ColorBlue), FillOn: true,
					HatchMode: 1, HatchColor: ColorBlue, HatchLineWidth: 10, HatchLineDist: 40,
				},
			},
			{
				SymNum: 406000, Type: models.AreaSymbolType, Description: "Forest: slow running",
				Area: &models.AreaSymbol{
					FillColor: models.IntPtr(ColorGreen), FillOn: false,
					HatchMode: 2, HatchColor: ColorGreen, HatchLineWidth: 20, HatchLineDist: 30,
					HatchAngle1: 450, HatchAngle2: -450,
				},
			},
			{
				SymNum: 407000, Type: models.AreaSymbolType, Description: "Undergrowth",
				Area: &models.AreaSymbol{
					FillColor: models.IntPtr(ColorGreen), FillOn: false,
					StructMode: 2, StructWidth: 60, StructHeight: 60,
					Elements: []models.SymbolElement{
						{Type: models.DotElement, Color: ColorGreen, Diameter: 25},
					},
				},
			},
			{
				SymNum: 109000, Type: models.PointSymbolType, Description: "Small knoll",
			},
		},
		Objects: []models.Object{
			{Sym: 101000, Status: models.ObjectNormal},
			{Sym: 401000, Status: models.ObjectNormal},
			{Sym: 101000, Status: models.ObjectNormal},
			{Sym: 103000, Status: models.ObjectNormal},
			{Sym: 308000, Status: models.ObjectNormal},
			{Sym: 406000, Status: models.ObjectHidden},
			{Sym: 407000, Status: models.ObjectNormal},
			{Sym: 109000, Status: models.ObjectNormal},
			{Sym: 999000, Status: models.ObjectNormal},
		},
	}
}
