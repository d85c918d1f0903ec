package keywords

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists a keyword Set.
type Store interface {
	// Load returns the persisted set, or DefaultSet when nothing was saved yet.
	Load() (Set, error)
	// Save replaces the persisted set.
	Save(Set) error
}

// StoreError reports a failure reading or writing the keyword store.
type StoreError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("keywords %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// document is the persisted shape: {"keywords": [...]}.
type document struct {
	Keywords []string `json:"keywords"`
}

func encodeDocument(s Set) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	kws := []string(s)
	if kws == nil {
		kws = []string{}
	}
	if err := enc.Encode(document{Keywords: kws}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeDocument(data []byte) (Set, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return clean(doc.Keywords), nil
}

// FileStore keeps the set as a UTF-8 JSON document on disk.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (Set, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSet(), nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Path: s.Path, Err: err}
	}
	set, err := decodeDocument(data)
	if err != nil {
		return nil, &StoreError{Op: "load", Path: s.Path, Err: err}
	}
	return set, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so a failed write leaves the previous list untouched.
func (s *FileStore) Save(set Set) error {
	data, err := encodeDocument(set)
	if err != nil {
		return &StoreError{Op: "save", Path: s.Path, Err: err}
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".keywords-*.json")
	if err != nil {
		return &StoreError{Op: "save", Path: s.Path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StoreError{Op: "save", Path: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Op: "save", Path: s.Path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return &StoreError{Op: "save", Path: s.Path, Err: err}
	}
	return nil
}
