package datalog

import (
	"bytes"
	"io"
)

// MemStorage is an in-memory Storage for tests.
type MemStorage struct {
	Files map[string]*bytes.Buffer

	// AppendError, if set, is returned by AppendLine.
	AppendError error
	// ReadError, if set, is returned by OpenForRead.
	ReadError error

	Appends int
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{Files: make(map[string]*bytes.Buffer)}
}

// AppendLine implements Storage.
func (m *MemStorage) AppendLine(path, text string) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	b, ok := m.Files[path]
	if !ok {
		b = new(bytes.Buffer)
		m.Files[path] = b
	}
	b.WriteString(text + "\n")
	m.Appends++
	return nil
}

// OpenForRead implements Storage.
func (m *MemStorage) OpenForRead(path string) (io.ReadCloser, int64, error) {
	if m.ReadError != nil {
		return nil, 0, m.ReadError
	}
	b, ok := m.Files[path]
	if !ok {
		return nil, 0, ErrNotFound
	}
	data := append([]byte(nil), b.Bytes()...)
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Size implements Storage.
func (m *MemStorage) Size(path string) (int64, error) {
	b, ok := m.Files[path]
	if !ok {
		return 0, nil
	}
	return int64(b.Len()), nil
}

// Contents returns the file at path as a string.
func (m *MemStorage) Contents(path string) string {
	b, ok := m.Files[path]
	if !ok {
		return ""
	}
	return b.String()
}
