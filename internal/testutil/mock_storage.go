// mock_storage.go - Mock style store for handler tests
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/storage"
)

// MockStorage implements storage.Store in memory
type MockStorage struct {
	styles map[string]*models.StyleInfo
	data   map[string][]byte
	seq    int
	mu     sync.RWMutex

	// SaveErr, when set, is returned by Save
	SaveErr error
}

// NewMockStorage creates an empty mock store
func NewMockStorage() *MockStorage {
	return &MockStorage{
		styles: make(map[string]*models.StyleInfo),
		data:   make(map[string][]byte),
	}
}

func (m *MockStorage) Save(meta models.StyleInfo, r io.Reader) (*models.StyleInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	info := meta
	info.ID = generateTestID(m.seq)
	info.Size = int64(len(data))
	// strictly increasing so List order is deterministic
	info.CreatedAt = time.Unix(0, 0).Add(time.Duration(m.seq) * time.Second)

	m.styles[info.ID] = &info
	m.data[info.ID] = data
	return &info, nil
}

func (m *MockStorage) Get(id string) (*models.StyleInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.styles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return info, nil
}

func (m *MockStorage) List(limit int) ([]*models.StyleInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.StyleInfo, 0, len(m.styles))
	for _, info := range m.styles {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.styles[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.styles, id)
	delete(m.data, id)
	return nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	data, err := m.GetData(id)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	if _, err := m.Get(id); err != nil {
		return "", err
	}
	return "/mock/styles/" + id + ".qml", nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// GetData returns the stored document
func (m *MockStorage) GetData(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return data, nil
}

// Count returns the number of stored styles
func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.styles)
}

func generateTestID(n int) string {
	return fmt.Sprintf("style-%03d", n)
}
