package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocad2qml/backend/internal/models"
)

// sniffSize is how much of the input loaders get to look at.
const sniffSize = 512

// ErrNoLoader is returned when no registered loader accepts an input.
var ErrNoLoader = errors.New("no suitable loader")

// Registry holds all available loaders and provides auto-detection.
type Registry struct {
	loaders []Loader
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a registry with the YAML, JSON and msgpack loaders.
func NewRegistry() *Registry {
	return &Registry{
		loaders: []Loader{
			NewYAMLLoader(),
			NewJSONLoader(),
			NewMsgpackLoader(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// FindLoader picks the loader for a file. name is only used for its
// extension; head holds the first bytes of the content. A loader claiming
// the extension wins over one recognizing the content.
func (r *Registry) FindLoader(name string, head []byte) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		for _, l := range r.loaders {
			if hasExtension(l, ext) {
				return l, nil
			}
		}
	}
	for _, l := range r.loaders {
		if l.Sniff(head) {
			return l, nil
		}
	}
	if ext == ".ocd" {
		return nil, fmt.Errorf("%w for %s: binary OCAD files must be exported to a dump first", ErrNoLoader, name)
	}
	return nil, fmt.Errorf("%w for file: %s", ErrNoLoader, name)
}

// GetLoaderByName returns a loader by its name.
func (r *Registry) GetLoaderByName(name string) (Loader, error) {
	name = strings.ToLower(name)
	for _, l := range r.loaders {
		if strings.ToLower(l.Name()) == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("loader not found: %s", name)
}

// Load detects the format of rd and decodes it. name is the original file
// name, used for extension matching and error messages.
func (r *Registry) Load(name string, rd io.Reader) (*models.OcadFile, error) {
	br := bufio.NewReaderSize(rd, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	l, err := r.FindLoader(name, head)
	if err != nil {
		return nil, err
	}
	file, err := l.Load(br)
	if err != nil {
		return nil, fmt.Errorf("%s loader: %s: %w", l.Name(), name, err)
	}
	if err := Validate(file); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return file, nil
}

// LoadFile opens path and loads it.
func (r *Registry) LoadFile(path string) (*models.OcadFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return r.Load(filepath.Base(path), f)
}

// Validate rejects dumps that cannot produce a meaningful style.
func Validate(file *models.OcadFile) error {
	if file.CRS().Scale <= 0 {
		return fmt.Errorf("crs scale must be positive, got %g", file.CRS().Scale)
	}
	seen := make(map[int]bool, len(file.Symbols))
	for _, s := range file.Symbols {
		if seen[s.SymNum] {
			return fmt.Errorf("duplicate symbol number %d", s.SymNum)
		}
		seen[s.SymNum] = true
	}
	return nil
}

func hasExtension(l Loader, ext string) bool {
	for _, e := range l.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Names lists the registered loaders in detection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.loaders))
	for _, l := range r.loaders {
		names = append(names, l.Name())
	}
	return names
}
