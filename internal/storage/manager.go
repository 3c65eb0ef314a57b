package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	styleExt  = ".qml"
	indexFile = "index.msgpack"
)

// ErrNotFound is returned for unknown style IDs.
var ErrNotFound = errors.New("style not found")

// Store defines the interface for style storage.
type Store interface {
	// Save stores a style document. ID, Size and CreatedAt of meta are
	// assigned by the store.
	Save(meta models.StyleInfo, r io.Reader) (*models.StyleInfo, error)
	Get(id string) (*models.StyleInfo, error)
	List(limit int) ([]*models.StyleInfo, error)
	Delete(id string) error
	Open(id string) (io.ReadCloser, error)
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem. Documents are
// kept as <id>.qml next to a msgpack index of their metadata.
type LocalStore struct {
	mu       sync.RWMutex
	styleDir string
	styles   map[string]*models.StyleInfo
}

// NewLocalStore creates a new LocalStore, reloading the index left by a
// previous run.
func NewLocalStore(styleDir string) (*LocalStore, error) {
	if err := os.MkdirAll(styleDir, 0755); err != nil {
		return nil, fmt.Errorf("creating style directory: %w", err)
	}

	s := &LocalStore{
		styleDir: styleDir,
		styles:   make(map[string]*models.StyleInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes a style document to the local filesystem.
func (s *LocalStore) Save(meta models.StyleInfo, r io.Reader) (*models.StyleInfo, error) {
	id := uuid.New().String()
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := meta
	info.ID = id
	info.Size = size
	info.CreatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[id] = &info
	if err := s.saveIndex(); err != nil {
		delete(s.styles, id)
		os.Remove(path)
		return nil, err
	}

	return &info, nil
}

// Get retrieves style metadata by ID.
func (s *LocalStore) Get(id string) (*models.StyleInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.styles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return info, nil
}

// List returns the most recent styles, newest first. A non-positive limit
// returns all of them.
func (s *LocalStore) List(limit int) ([]*models.StyleInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.StyleInfo, 0, len(s.styles))
	for _, info := range s.styles {
		list = append(list, info)
	}

	// Sort by CreatedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a style from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.styles[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.styles, id)
	if err := s.saveIndex(); err != nil {
		s.styles[id] = info
		return err
	}

	return nil
}

// Open returns the stored document.
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	path, err := s.GetFilePath(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening style: %w", err)
	}
	return f, nil
}

// GetFilePath returns the absolute path to a style document.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.styles[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return s.path(id), nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.styleDir, id+styleExt)
}

// loadIndex reads the index and drops entries whose document is gone.
func (s *LocalStore) loadIndex() error {
	f, err := os.Open(filepath.Join(s.styleDir, indexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening style index: %w", err)
	}
	defer f.Close()

	var list []*models.StyleInfo
	dec := msgpack.NewDecoder(f)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&list); err != nil {
		return fmt.Errorf("reading style index: %w", err)
	}

	for _, info := range list {
		if _, err := uuid.Parse(info.ID); err != nil {
			continue
		}
		if _, err := os.Stat(s.path(info.ID)); err != nil {
			continue
		}
		s.styles[info.ID] = info
	}
	return nil
}

// saveIndex rewrites the index. Callers hold the write lock.
func (s *LocalStore) saveIndex() error {
	list := make([]*models.StyleInfo, 0, len(s.styles))
	for _, info := range s.styles {
		list = append(list, info)
	}

	tmp := filepath.Join(s.styleDir, indexFile+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating style index: %w", err)
	}

	enc := msgpack.NewEncoder(f)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(list); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing style index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing style index: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(s.styleDir, indexFile)); err != nil {
		return fmt.Errorf("replacing style index: %w", err)
	}
	return nil
}
