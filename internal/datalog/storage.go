package datalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by OpenForRead when the file does not exist.
var ErrNotFound = errors.New("datalog: file not found")

// Storage is removable storage holding the log file.
type Storage interface {
	// AppendLine appends text and a newline to the file at path,
	// creating it if needed. The file is not held open after return.
	AppendLine(path, text string) error

	// OpenForRead opens the file at path and returns it along with its
	// size at the time of opening.
	OpenForRead(path string) (io.ReadCloser, int64, error)

	// Size returns the size of the file at path, or 0 if it does not
	// exist.
	Size(path string) (int64, error)
}

// Dir is a Storage rooted at a directory, usually the mount point of the
// SD card.
type Dir struct {
	Root string
}

func (d Dir) path(p string) string {
	return filepath.Join(d.Root, filepath.Clean("/"+p))
}

// AppendLine implements Storage.
func (d Dir) AppendLine(path, text string) error {
	f, err := os.OpenFile(d.path(path), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := io.WriteString(f, text+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

// OpenForRead implements Storage.
func (d Dir) OpenForRead(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(d.path(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// Size implements Storage.
func (d Dir) Size(path string) (int64, error) {
	info, err := os.Stat(d.path(path))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Check verifies that the storage root exists and is a directory.
func (d Dir) Check() error {
	info, err := os.Stat(d.Root)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", d.Root)
	}
	return nil
}
