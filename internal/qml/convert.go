// Package qml converts OCAD symbol tables into QGIS QML style documents.
//
// The generated document uses a rule based renderer with one rule per
// symbol actually used by the map's objects. Rules filter on the "sym"
// attribute written by the OCAD feature exporters.
package qml

import (
	"fmt"
	"sort"

	"github.com/ocad2qml/backend/internal/dom"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/xmltree"
)

const qgisVersion = "3.16.0-Hannover"

// UsedSymbols returns the distinct symbol numbers referenced by objects,
// in order of first use.
func UsedSymbols(objects []models.Object) []int {
	seen := make(map[int]struct{}, len(objects))
	used := make([]int, 0)
	for _, o := range objects {
		if _, ok := seen[o.Sym]; ok {
			continue
		}
		seen[o.Sym] = struct{}{}
		used = append(used, o.Sym)
	}
	return used
}

// StyledSymbols returns the definitions of the used symbols, in order of
// first use. Symbols without a definition are skipped.
func StyledSymbols(file *models.OcadFile) []*models.Symbol {
	var out []*models.Symbol
	for _, num := range UsedSymbols(file.Objects) {
		if sym, ok := file.Symbol(num); ok {
			out = append(out, sym)
		}
	}
	return out
}

// Label is the rule label of a symbol, e.g. "101.0 Contour".
func Label(sym *models.Symbol) string {
	return fmt.Sprintf("%d.%d %s", sym.Major(), sym.Minor(), sym.Description)
}

// Filter is the rule expression selecting a symbol's features.
func Filter(sym *models.Symbol) string {
	return fmt.Sprintf("sym=%d", sym.SymNum)
}

type mappedSymbol struct {
	order int
	node  *xmltree.Node
}

// Convert builds the QML document for file. The document is returned
// unserialized; use Document.WriteToString or Render for text.
//
// Each rule's symbol attribute holds the position of its symbol before the
// symbols are sorted into drawing order, and each symbol element keeps that
// position as its name. QGIS resolves rule symbols by name, so the physical
// order of the symbols section is free.
func Convert(file *models.OcadFile, opts Options) (dom.Document, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	omit := opts.omitter()

	used := UsedSymbols(file.Objects)
	log.Debug("collected used symbols",
		"objects", len(file.Objects),
		"symbols", len(used),
		"exportHidden", opts.ExportHidden)

	symbols := make([]*models.Symbol, 0, len(used))
	for _, num := range used {
		sym, ok := file.Symbol(num)
		if !ok {
			if err := omit.omit(fmt.Errorf("symbol %d: %w", num, ErrUnknownSymbol)); err != nil {
				return nil, err
			}
			continue
		}
		symbols = append(symbols, sym)
	}

	scale := file.CRS().Scale
	rules := xmltree.New("rules", xmltree.A("key", opts.NewKey()))
	mapped := make([]mappedSymbol, 0, len(symbols))

	for i, sym := range symbols {
		rules.Append(xmltree.New("rule",
			xmltree.A("key", opts.NewKey()),
			xmltree.A("symbol", i),
			xmltree.A("label", Label(sym)),
			xmltree.A("filter", Filter(sym)),
		))
		if !opts.GenerateSymbolElements {
			continue
		}

		layers, err := MapSymbol(scale, file.Colors, sym, opts)
		if err != nil {
			return nil, err
		}
		node := xmltree.New("symbol",
			xmltree.A("type", qmlType(sym)),
			xmltree.A("name", i),
			xmltree.A("clip_to_extent", 1),
			xmltree.A("alpha", 1),
			xmltree.A("force_rhr", 0),
		).Append(layers...)
		mapped = append(mapped, mappedSymbol{order: symbolOrder(file.Colors, sym), node: node})
	}

	sort.SliceStable(mapped, func(a, b int) bool {
		return mapped[a].order < mapped[b].order
	})
	symbolsNode := xmltree.New("symbols")
	for _, m := range mapped {
		symbolsNode.Append(m.node)
	}

	root := xmltree.New("qgis",
		xmltree.A("version", qgisVersion),
		xmltree.A("styleCategories", "Symbology"),
		xmltree.A("hasScaleBasedVisibilityFlag", 0),
		xmltree.A("minScale", 100000000),
		xmltree.A("maxScale", 0),
	).Append(
		xmltree.New("renderer-v2",
			xmltree.A("type", "RuleRenderer"),
			xmltree.A("symbollevels", 1),
			xmltree.A("forceraster", 0),
			xmltree.A("enableorderby", 0),
		).Append(rules, symbolsNode),
	)

	doc := opts.DOM.CreateDocument("", "")
	doc.AppendChild(xmltree.Build(doc, root))

	log.Debug("built style document", "rules", len(symbols), "symbols", len(mapped))
	return doc, nil
}

// symbolOrder places a symbol among the others: the pass of its primary
// color, which is also the pass of its first layer. Symbols without a
// resolvable color sort first.
func symbolOrder(colors map[int]models.Color, sym *models.Symbol) int {
	c, ok := primaryColor(colors, sym)
	if !ok {
		return 0
	}
	return pass(c)
}

// Render converts file and serializes the result.
func Render(file *models.OcadFile, opts Options) (string, error) {
	doc, err := Convert(file, opts)
	if err != nil {
		return "", err
	}
	return doc.WriteToString()
}
