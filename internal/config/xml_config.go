// Package config provides XML-based configuration management for the style service.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ocad2qml/backend/internal/qml"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"OCAD2QML"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Conversion defaults
	Conversion ConversionConfig `xml:"Conversion"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains style storage settings
type StorageConfig struct {
	DataDirectory   string `xml:"DataDirectory"`
	StylesDirectory string `xml:"StylesDirectory"`
	MaxUploadSize   string `xml:"MaxUploadSize"`
	RecentLimit     int    `xml:"RecentLimit"`
}

// ConversionConfig holds the defaults applied to every conversion. An
// OptionsFile, when set, is read first; the remaining fields are ignored.
type ConversionConfig struct {
	OptionsFile            string  `xml:"OptionsFile,omitempty"`
	Omission               string  `xml:"Omission"`
	ExportHidden           bool    `xml:"ExportHidden"`
	GenerateSymbolElements bool    `xml:"GenerateSymbolElements"`
	PreviewWidth           int     `xml:"PreviewWidth"`
	LegendZoom             float64 `xml:"LegendZoom"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowStyleDeletion bool   `xml:"AllowStyleDeletion"`
	RequireAuth        bool   `xml:"RequireAuthentication"`
	AuthToken          string `xml:"AuthToken"`
	AllowedFileTypes   string `xml:"AllowedFileTypes"`
}

// AdvancedConfig contains advanced/tuning options. ShowErrorDetails exposes
// the cause of server errors to clients.
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	ShowErrorDetails     bool   `xml:"ShowErrorDetails"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:   "./data",
			StylesDirectory: "./data/styles",
			MaxUploadSize:   "64M",
			RecentLimit:     20,
		},
		Conversion: ConversionConfig{
			Omission:               qml.LenientOmission.String(),
			ExportHidden:           false,
			GenerateSymbolElements: true,
			PreviewWidth:           800,
			LegendZoom:             4,
		},
		Security: SecurityConfig{
			AllowStyleDeletion: true,
			RequireAuth:        false,
			AuthToken:          "",
			AllowedFileTypes:   ".yaml,.yml,.json,.mpk,.msgpack",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
			ShowErrorDetails:     false,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- OCAD to QML style service configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves the styles directory along with it
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.StylesDirectory = filepath.Join(dataDir, "styles")
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.StylesDirectory) {
		c.Storage.StylesDirectory = filepath.Join(configDir, c.Storage.StylesDirectory)
	}
	if c.Conversion.OptionsFile != "" && !filepath.IsAbs(c.Conversion.OptionsFile) {
		c.Conversion.OptionsFile = filepath.Join(configDir, c.Conversion.OptionsFile)
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetStylesDir returns the absolute styles directory path
func (c *AppConfig) GetStylesDir() string {
	return c.Storage.StylesDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AllowedExtensions returns the lower-cased upload extensions.
func (c *AppConfig) AllowedExtensions() []string {
	var out []string
	for _, ext := range strings.Split(c.Security.AllowedFileTypes, ",") {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// ConversionOptions returns the conversion defaults as qml options.
func (c *AppConfig) ConversionOptions() (qml.Options, error) {
	if c.Conversion.OptionsFile != "" {
		opts, err := qml.LoadOptionsFile(c.Conversion.OptionsFile)
		if err != nil {
			return opts, fmt.Errorf("failed to load conversion options: %w", err)
		}
		return opts, nil
	}

	omission, err := qml.ParseOmissionPolicy(c.Conversion.Omission)
	if err != nil {
		return qml.DefaultOptions(), err
	}
	opts := qml.DefaultOptions()
	opts.Omission = omission
	opts.ExportHidden = c.Conversion.ExportHidden
	opts.GenerateSymbolElements = c.Conversion.GenerateSymbolElements
	return opts, nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.StylesDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
