// Package cli is responsible for parsing command-line arguments, validating
// user input, and running a one-shot conversion of a map dump to a QGIS
// style. It translates CLI flags into a Config and process failures into
// exit codes.
package cli
