package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File persists the whole key space as a single JSON document. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated document behind.
type File struct {
	mu   sync.Mutex
	path string
	data map[string][]byte
}

// NewFile opens (or creates) a file-backed store at path.
func NewFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string][]byte)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("kv: open %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.data); err != nil {
			return nil, fmt.Errorf("kv: parse %s: %w", path, err)
		}
	}
	return f, nil
}

func (f *File) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	f.data[key] = v
	return f.flush()
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flush()
}

func (f *File) Keys(prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// flush writes the document atomically. Caller holds the lock.
func (f *File) flush() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("kv: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("kv: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".orarsync-*")
	if err != nil {
		return fmt.Errorf("kv: temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("kv: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("kv: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("kv: rename to %s: %w", f.path, err)
	}
	return nil
}
