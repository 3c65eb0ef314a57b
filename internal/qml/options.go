package qml

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/ocad2qml/backend/internal/dom"
	"github.com/ocad2qml/backend/internal/pattern"
	"gopkg.in/yaml.v3"
)

// Options controls a conversion. Start from DefaultOptions; pluggable
// fields left nil are filled with their defaults by Convert.
type Options struct {
	// GenerateSymbolElements emits the symbols section. Rules are always
	// emitted.
	GenerateSymbolElements bool `yaml:"generate_symbol_elements"`
	// ExportHidden is accepted for compatibility with other exporters;
	// styles do not depend on object visibility.
	ExportHidden bool `yaml:"export_hidden"`
	// Omission selects how unresolved colors and symbols are treated.
	Omission OmissionPolicy `yaml:"omission"`

	DOM      dom.Implementation `yaml:"-"`
	Patterns pattern.Generator  `yaml:"-"`
	NewKey   func() string      `yaml:"-"`
	Logger   *slog.Logger       `yaml:"-"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		GenerateSymbolElements: true,
		ExportHidden:           false,
		Omission:               LenientOmission,
	}
}

// NewRuleKey returns a QGIS style rule key: a braced random UUID.
func NewRuleKey() string {
	return "{" + uuid.NewString() + "}"
}

func (o Options) withDefaults() Options {
	if o.DOM == nil {
		o.DOM = dom.NewEtree()
	}
	if o.Patterns == nil {
		o.Patterns = pattern.New()
	}
	if o.NewKey == nil {
		o.NewKey = NewRuleKey
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) omitter() omitter {
	return omitter{policy: o.Omission, logger: o.Logger}
}

// LoadOptions reads YAML options over DefaultOptions. Unknown keys are
// ignored.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	data, err := io.ReadAll(r)
	if err != nil {
		return opts, fmt.Errorf("reading options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options: %w", err)
	}
	return opts, nil
}

// LoadOptionsFile is LoadOptions for a named file.
func LoadOptionsFile(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultOptions(), err
	}
	defer f.Close()

	return LoadOptions(f)
}
