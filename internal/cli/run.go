package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ocad2qml/backend/internal/legend"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/preview"
	"github.com/ocad2qml/backend/internal/qml"
)

// Run converts cfg.InputPath and writes the style, plus the legend and
// preview when requested. The style goes to stdout when no output path is
// set. Every failure is an ExitError with code 1.
func Run(cfg *Config, stdout io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := loadInput(cfg)
	if err != nil {
		return failure(err)
	}
	logger.Info("loaded map dump",
		"path", cfg.InputPath,
		"symbols", len(file.Symbols),
		"objects", len(file.Objects))

	opts, err := conversionOptions(cfg)
	if err != nil {
		return failure(err)
	}
	opts.Logger = logger

	out, err := qml.Render(file, opts)
	if err != nil {
		return failure(err)
	}
	if cfg.OutputPath == "" {
		if _, err := io.WriteString(stdout, out); err != nil {
			return failure(err)
		}
	} else if err := os.WriteFile(cfg.OutputPath, []byte(out), 0644); err != nil {
		return failure(err)
	} else {
		logger.Info("wrote style", "path", cfg.OutputPath, "bytes", len(out))
	}

	title := filepath.Base(cfg.InputPath)
	if cfg.LegendPath != "" {
		var buf bytes.Buffer
		lopts := legend.Options{Zoom: cfg.LegendZoom, Title: title}
		if err := legend.Write(&buf, file, opts.Patterns, lopts); err != nil {
			return failure(err)
		}
		if err := os.WriteFile(cfg.LegendPath, buf.Bytes(), 0644); err != nil {
			return failure(err)
		}
		logger.Info("wrote legend", "path", cfg.LegendPath)
	}

	if cfg.PreviewPath != "" {
		if err := writePreview(cfg, file, opts, title); err != nil {
			return failure(err)
		}
		logger.Info("wrote preview", "path", cfg.PreviewPath, "width", cfg.PreviewWidth)
	}
	return nil
}

// loadInput reads the dump with the loader named by cfg.Format, or with
// the detected one.
func loadInput(cfg *Config) (*models.OcadFile, error) {
	registry := parser.GetGlobalRegistry()
	if cfg.Format == "" {
		return registry.LoadFile(cfg.InputPath)
	}

	l, err := registry.GetLoaderByName(cfg.Format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s loader: %s: %w", l.Name(), cfg.InputPath, err)
	}
	if err := parser.Validate(file); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.InputPath, err)
	}
	return file, nil
}

func conversionOptions(cfg *Config) (qml.Options, error) {
	opts := qml.DefaultOptions()
	if cfg.OptionsPath != "" {
		var err error
		if opts, err = qml.LoadOptionsFile(cfg.OptionsPath); err != nil {
			return opts, err
		}
	}
	if cfg.Omission != "" {
		p, err := qml.ParseOmissionPolicy(cfg.Omission)
		if err != nil {
			return opts, err
		}
		opts.Omission = p
	}
	return opts, nil
}

// writePreview rasterizes a flattened legend; the rasterizer has no
// pattern paint server support.
func writePreview(cfg *Config, file *models.OcadFile, opts qml.Options, title string) error {
	var svg bytes.Buffer
	lopts := legend.Options{Zoom: cfg.LegendZoom, Title: title, Flatten: true}
	if err := legend.Write(&svg, file, opts.Patterns, lopts); err != nil {
		return err
	}
	img, err := preview.Rasterize(&svg, cfg.PreviewWidth, 0)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.PreviewPath)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func failure(err error) error {
	return &ExitError{Code: 1, Message: fmt.Sprintf("ocad2qml: %v", err)}
}
