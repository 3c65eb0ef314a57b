package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/qml"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config is the validated result of Parse.
type Config struct {
	InputPath    string
	Format       string // loader name; empty detects the format
	OutputPath   string // empty writes the style to stdout
	OptionsPath  string
	Omission     string
	LegendPath   string
	PreviewPath  string
	PreviewWidth int
	LegendZoom   float64
	LogLevel     string
	LogFormat    string
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ocad2qml", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ocad2qml - Converts OCAD map symbols into a QGIS rule-based style.

Usage:
  ocad2qml [options] INPUT

Arguments:
  INPUT
    Path to a map dump (.yaml, .yml, .json, .mpk or .msgpack).

Options:
`)
		flagSet.PrintDefaults()
	}

	outFlag := flagSet.String("o", "", "Path of the .qml file to write. Defaults to stdout.")
	formatFlag := flagSet.String("format", "", "Dump format, skipping detection. Options: 'yaml', 'json' or 'msgpack'.")
	optionsFlag := flagSet.String("options", "", "Path to a YAML conversion options file.")
	strictFlag := flagSet.Bool("strict", false, "Fail on unresolved colors and undefined symbols. Same as -omission strict.")
	omissionFlag := flagSet.String("omission", "", "Omission policy. Options: 'lenient', 'warn' or 'strict'.")
	legendFlag := flagSet.String("legend", "", "Also write an SVG legend to this path.")
	previewFlag := flagSet.String("preview", "", "Also write a PNG preview of the legend to this path.")
	previewWidthFlag := flagSet.Int("preview-width", 800, "Width in pixels of the PNG preview.")
	zoomFlag := flagSet.Float64("zoom", 4, "Legend pixels per map millimetre.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		slog.Debug("No input provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "exactly one INPUT is accepted"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *formatFlag != "" {
		if _, err := parser.GetGlobalRegistry().GetLoaderByName(*formatFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: "invalid format: " + err.Error()}
		}
	}

	omission := *omissionFlag
	if *strictFlag {
		if omission != "" && !strings.EqualFold(omission, "strict") {
			return nil, false, &ExitError{Code: 2, Message: "-strict conflicts with -omission " + omission}
		}
		omission = "strict"
	}
	if omission != "" {
		if _, err := qml.ParseOmissionPolicy(omission); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	if *previewWidthFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid preview-width: must be positive"}
	}
	if *zoomFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid zoom: must be positive"}
	}

	config := &Config{
		InputPath:    flagSet.Arg(0),
		Format:       strings.ToLower(*formatFlag),
		OutputPath:   *outFlag,
		OptionsPath:  *optionsFlag,
		Omission:     omission,
		LegendPath:   *legendFlag,
		PreviewPath:  *previewFlag,
		PreviewWidth: *previewWidthFlag,
		LegendZoom:   *zoomFlag,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
	}
	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
