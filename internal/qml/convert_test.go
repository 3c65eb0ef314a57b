package qml

import (
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.NewKey = sequentialKeys()
	return opts
}

func TestUsedSymbols(t *testing.T) {
	objects := []models.Object{{Sym: 5}, {Sym: 3}, {Sym: 5}, {Sym: 7}}
	assert.Equal(t, []int{5, 3, 7}, UsedSymbols(objects))
	assert.Empty(t, UsedSymbols(nil))
}

func TestStyledSymbols(t *testing.T) {
	var nums []int
	for _, s := range StyledSymbols(testutil.SampleFile()) {
		nums = append(nums, s.SymNum)
	}
	assert.Equal(t, []int{101000, 401000, 103000, 308000, 406000, 407000, 109000}, nums)
}

func TestLabelAndFilter(t *testing.T) {
	sym := &models.Symbol{SymNum: 101005, Description: "Contour"}
	assert.Equal(t, "101.5 Contour", Label(sym))
	assert.Equal(t, "sym=101005", Filter(sym))
}

func TestConvert_NoObjects(t *testing.T) {
	file := testutil.SampleFile()
	file.Objects = nil

	doc, err := Convert(file, testOptions())
	require.NoError(t, err)

	x := parseDocument(t, doc)
	rules := x.FindElement("/qgis/renderer-v2/rules")
	symbols := x.FindElement("/qgis/renderer-v2/symbols")
	require.NotNil(t, rules)
	require.NotNil(t, symbols)
	assert.Empty(t, rules.ChildElements())
	assert.Empty(t, symbols.ChildElements())
}

func TestConvert_Structure(t *testing.T) {
	doc, err := Convert(testutil.SampleFile(), testOptions())
	require.NoError(t, err)
	x := parseDocument(t, doc)

	root := x.Root()
	require.NotNil(t, root)
	assert.Equal(t, "qgis", root.Tag)

	renderer := root.SelectElement("renderer-v2")
	require.NotNil(t, renderer)
	assert.Equal(t, "RuleRenderer", renderer.SelectAttrValue("type", ""))

	rules := renderer.SelectElement("rules")
	assert.Equal(t, "key-1", rules.SelectAttrValue("key", ""))

	// 999000 has no definition and is dropped
	ruleEls := rules.SelectElements("rule")
	require.Len(t, ruleEls, 7)

	wantNums := []string{"101000", "401000", "103000", "308000", "406000", "407000", "109000"}
	for i, r := range ruleEls {
		assert.Equal(t, "sym="+wantNums[i], r.SelectAttrValue("filter", ""))
		assert.Equal(t, itoa(i), r.SelectAttrValue("symbol", ""))
	}
	assert.Equal(t, "101.0 Contour", ruleEls[0].SelectAttrValue("label", ""))
	assert.Equal(t, "406.0 Forest: slow running", ruleEls[4].SelectAttrValue("label", ""))

	// keys are unique
	seen := map[string]bool{rules.SelectAttrValue("key", ""): true}
	for _, r := range ruleEls {
		k := r.SelectAttrValue("key", "")
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestConvert_SymbolsSortedByPass(t *testing.T) {
	doc, err := Convert(testutil.SampleFile(), testOptions())
	require.NoError(t, err)
	x := parseDocument(t, doc)

	var names []string
	for _, s := range x.FindElements("/qgis/renderer-v2/symbols/symbol") {
		names = append(names, s.SelectAttrValue("name", ""))
	}
	// point symbol (no layers) first, then by increasing pass, ties keep
	// rule order
	assert.Equal(t, []string{"6", "1", "4", "5", "3", "0", "2"}, names)
}

// Rules address symbols by name; every rule must find the symbol that
// styles the same OCAD symbol after sorting.
func TestConvert_RuleIndexResolvesByName(t *testing.T) {
	file := testutil.SampleFile()
	doc, err := Convert(file, testOptions())
	require.NoError(t, err)
	x := parseDocument(t, doc)

	byName := map[string]*etree.Element{}
	for _, s := range x.FindElements("/qgis/renderer-v2/symbols/symbol") {
		byName[s.SelectAttrValue("name", "")] = s
	}

	for _, r := range x.FindElements("/qgis/renderer-v2/rules/rule") {
		s, ok := byName[r.SelectAttrValue("symbol", "")]
		require.True(t, ok)

		num := strings.TrimPrefix(r.SelectAttrValue("filter", ""), "sym=")
		def, found := file.Symbol(atoi(t, num))
		require.True(t, found)
		assert.Equal(t, qmlType(def), s.SelectAttrValue("type", ""), "symbol %s", num)

		if c, ok := primaryColor(file.Colors, def); ok {
			for _, l := range s.SelectElements("layer") {
				assert.Equal(t, itoa(1000-c.RenderOrder), l.SelectAttrValue("pass", ""), "symbol %s", num)
			}
		}
	}
}

func TestConvert_Layers(t *testing.T) {
	doc, err := Convert(testutil.SampleFile(), testOptions())
	require.NoError(t, err)
	x := parseDocument(t, doc)

	classes := func(name string) []string {
		s := x.FindElement("/qgis/renderer-v2/symbols/symbol[@name='" + name + "']")
		require.NotNil(t, s, "symbol %s", name)
		var out []string
		for _, l := range s.SelectElements("layer") {
			out = append(out, l.SelectAttrValue("class", ""))
		}
		return out
	}

	assert.Equal(t, []string{"SimpleLine"}, classes("0"))
	assert.Equal(t, []string{"SimpleFill"}, classes("1"))
	assert.Equal(t, []string{"SimpleLine"}, classes("2"))
	assert.Equal(t, []string{"SimpleFill", "SVGFill"}, classes("3"))
	assert.Equal(t, []string{"SVGFill", "SVGFill"}, classes("4"))
	assert.Equal(t, []string{"SVGFill"}, classes("5"))
	assert.Empty(t, classes("6"))

	point := x.FindElement("/qgis/renderer-v2/symbols/symbol[@name='6']")
	assert.Equal(t, "", point.SelectAttrValue("type", "missing"))
	for _, attr := range []struct{ k, v string }{{"clip_to_extent", "1"}, {"alpha", "1"}, {"force_rhr", "0"}} {
		assert.Equal(t, attr.v, point.SelectAttrValue(attr.k, ""))
	}

	marsh := x.FindElement("/qgis/renderer-v2/symbols/symbol[@name='3']/layer[@class='SVGFill']")
	require.NotNil(t, marsh)
	var svgFile string
	for _, p := range marsh.SelectElements("prop") {
		if p.SelectAttrValue("k", "") == "svgFile" {
			svgFile = p.SelectAttrValue("v", "")
		}
	}
	svg := decodeSVG(t, svgFile)
	assert.Equal(t, "50", svg.Root().SelectAttrValue("width", ""))
	assert.Equal(t, "50", svg.Root().SelectAttrValue("height", ""))
}

func TestConvert_WithoutSymbolElements(t *testing.T) {
	opts := testOptions()
	opts.GenerateSymbolElements = false

	doc, err := Convert(testutil.SampleFile(), opts)
	require.NoError(t, err)
	x := parseDocument(t, doc)

	assert.Len(t, x.FindElements("/qgis/renderer-v2/rules/rule"), 7)
	assert.Empty(t, x.FindElements("/qgis/renderer-v2/symbols/symbol"))
}

func TestConvert_TypeMismatchAborts(t *testing.T) {
	file := testutil.SampleFile()
	file.Symbols[0].Type = models.AreaSymbolType

	doc, err := Convert(file, testOptions())
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestConvert_StrictOmission(t *testing.T) {
	opts := testOptions()
	opts.Omission = StrictOmission

	_, err := Convert(testutil.SampleFile(), opts)
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
	assert.Contains(t, err.Error(), "999000")
}

func TestConvert_DefaultKeysAreBracedUUIDs(t *testing.T) {
	doc, err := Convert(testutil.SampleFile(), DefaultOptions())
	require.NoError(t, err)
	x := parseDocument(t, doc)

	key := x.FindElement("/qgis/renderer-v2/rules").SelectAttrValue("key", "")
	assert.Len(t, key, 38)
	assert.True(t, strings.HasPrefix(key, "{") && strings.HasSuffix(key, "}"))
}

func TestRender(t *testing.T) {
	out, err := Render(testutil.SampleFile(), testOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<renderer-v2 type="RuleRenderer" symbollevels="1" forceraster="0" enableorderby="0">`)
	assert.Contains(t, out, `minScale="100000000"`)
}

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions(strings.NewReader("export_hidden: true\nomission: warn\nunknown_key: 3\n"))
	require.NoError(t, err)
	assert.True(t, opts.ExportHidden)
	assert.True(t, opts.GenerateSymbolElements, "unset options keep their defaults")
	assert.Equal(t, WarnOmission, opts.Omission)

	_, err = LoadOptions(strings.NewReader("omission: paranoid\n"))
	assert.Error(t, err)
}
