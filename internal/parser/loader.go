// Package parser loads OCAD map dumps into models.OcadFile values.
//
// Binary .ocd files are read by external tooling; this package accepts the
// YAML, JSON and msgpack dumps that tooling produces.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ocad2qml/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Loader decodes one dump format.
type Loader interface {
	// Name returns the unique name of the loader.
	Name() string
	// Extensions lists the lower-case file extensions, dot included, that
	// the loader claims.
	Extensions() []string
	// Sniff reports whether head, the first bytes of a file, looks like
	// this loader's format.
	Sniff(head []byte) bool
	// Load decodes a complete dump.
	Load(r io.Reader) (*models.OcadFile, error)
}

// YAMLLoader reads YAML dumps. Keys are snake_case.
type YAMLLoader struct{}

// NewYAMLLoader creates a YAML dump loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Name returns the loader name.
func (l *YAMLLoader) Name() string {
	return "yaml"
}

// Extensions returns the file extensions this loader claims.
func (l *YAMLLoader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Sniff accepts text starting with a document marker or containing a
// top-level dump key.
func (l *YAMLLoader) Sniff(head []byte) bool {
	if !isText(head) {
		return false
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("---")) {
		return true
	}
	for _, key := range []string{"symbols:", "objects:", "colors:", "crs:"} {
		if bytes.Contains(head, []byte(key)) {
			return true
		}
	}
	return false
}

// Load decodes a YAML dump.
func (l *YAMLLoader) Load(r io.Reader) (*models.OcadFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file models.OcadFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// JSONLoader reads JSON dumps. Keys are camelCase, matching the API's
// JSON responses.
type JSONLoader struct{}

// NewJSONLoader creates a JSON dump loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Name returns the loader name.
func (l *JSONLoader) Name() string {
	return "json"
}

// Extensions returns the file extensions this loader claims.
func (l *JSONLoader) Extensions() []string {
	return []string{".json"}
}

// Sniff accepts text whose first non-blank byte opens an object.
func (l *JSONLoader) Sniff(head []byte) bool {
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	return isText(head) && len(trimmed) > 0 && trimmed[0] == '{'
}

// Load decodes a JSON dump.
func (l *JSONLoader) Load(r io.Reader) (*models.OcadFile, error) {
	var file models.OcadFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// MsgpackLoader reads msgpack dumps. Field names follow the YAML keys.
type MsgpackLoader struct{}

// NewMsgpackLoader creates a msgpack dump loader.
func NewMsgpackLoader() *MsgpackLoader {
	return &MsgpackLoader{}
}

// Name returns the loader name.
func (l *MsgpackLoader) Name() string {
	return "msgpack"
}

// Extensions returns the file extensions this loader claims.
func (l *MsgpackLoader) Extensions() []string {
	return []string{".mpk", ".msgpack"}
}

// Sniff accepts a top-level msgpack map: fixmap, map16 or map32.
func (l *MsgpackLoader) Sniff(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	b := head[0]
	return (b >= 0x80 && b <= 0x8f) || b == 0xde || b == 0xdf
}

// Load decodes a msgpack dump.
func (l *MsgpackLoader) Load(r io.Reader) (*models.OcadFile, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("yaml")

	var file models.OcadFile
	if err := dec.Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// WriteMsgpack encodes file in the format MsgpackLoader reads.
func WriteMsgpack(w io.Writer, file *models.OcadFile) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("yaml")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding msgpack dump: %w", err)
	}
	return nil
}

// WriteYAML encodes file in the format YAMLLoader reads.
func WriteYAML(w io.Writer, file *models.OcadFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding yaml dump: %w", err)
	}
	return enc.Close()
}

// isText reports whether head is UTF-8, allowing a rune cut off at the end.
func isText(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size <= 1 {
			return len(head) < utf8.UTFMax && !utf8.FullRune(head)
		}
		head = head[size:]
	}
	return true
}
