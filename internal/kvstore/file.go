// ABOUTME: JSON-file key-value store in the user config directory
// ABOUTME: The whole map is rewritten atomically on every change

package kvstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps all keys in one JSON object on disk.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

type fileData struct {
	Values map[string]string `json:"values"`
}

// NewFileStore creates a store backed by path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (fs *FileStore) Path() string {
	return fs.path
}

// load reads the file once. Callers hold fs.mu.
func (fs *FileStore) load() error {
	if fs.values != nil {
		return nil
	}
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		fs.values = map[string]string{}
		return nil
	}
	if err != nil {
		return err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil || fd.Values == nil {
		// Unreadable state, start fresh
		fs.values = map[string]string{}
		return nil
	}
	fs.values = fd.Values
	return nil
}

// save writes the map via a temp file and rename. Callers hold fs.mu.
func (fs *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileData{Values: fs.values}, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil {
		return "", false, err
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil {
		return err
	}
	fs.values[key] = value
	return fs.save()
}

func (fs *FileStore) Delete(_ context.Context, keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := fs.values[k]; ok {
			delete(fs.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return fs.save()
}

func (fs *FileStore) Close() error { return nil }
