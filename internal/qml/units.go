package qml

import (
	"regexp"
	"strconv"
)

// ocadUnitsPerMeter is the number of OCAD length units (1/100 mm) in one
// meter of paper.
const ocadUnitsPerMeter = 100000

// ToMapUnit converts an OCAD length to map units at the given scale
// denominator.
func ToMapUnit(scale, x float64) float64 {
	return x / ocadUnitsPerMeter * scale
}

var rotateRegex = regexp.MustCompile(`rotate\(\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)`)

// PatternRotation extracts the angle of a rotate(...) term from an SVG
// transform. Missing or unparsable transforms give 0.
func PatternRotation(transform string) float64 {
	m := rotateRegex.FindStringSubmatch(transform)
	if m == nil {
		return 0
	}
	angle, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return angle
}
