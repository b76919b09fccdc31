package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every key in a single JSON object on disk. The whole file is
// rewritten on each Set.
type File struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]string
}

// NewFile loads filePath, or starts empty if the file does not exist. A
// corrupt file is moved aside to filePath+".corrupt" and the store starts
// empty. Returns an error only on unexpected I/O failures.
func NewFile(filePath string) (*File, error) {
	f := &File{filePath: filePath, data: make(map[string]string)}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		f.data = make(map[string]string)
		aside := filePath + ".corrupt"
		slog.Warn("state file is corrupt, starting empty",
			slog.String("path", filePath), slog.String("moved_to", aside), slog.Any("error", err))
		if err := os.Rename(filePath, aside); err != nil {
			slog.Warn("could not move corrupt state file", slog.String("path", filePath), slog.Any("error", err))
		}
		return f, nil
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}
	return f, nil
}

// Get returns the value held in memory for key.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.data[key]
	return v, ok, nil
}

// Set writes the updated map to disk first and only then updates memory, so
// a failed write leaves the previous value visible.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.data)+1)
	for k, v := range f.data {
		next[k] = v
	}
	next[key] = value
	if err := f.writeAtomic(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold f.mu.
func (f *File) writeAtomic(data map[string]string) error {
	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := f.filePath + ".tmp"
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.filePath)
}
