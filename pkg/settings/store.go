// Package settings persists small pieces of node state across restarts,
// e.g. the LED array of the light server and the network sequence number.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Store provides persistence keyed by name.
type Store interface {
	// Load retrieves a value by key, ErrNotFound if absent.
	Load(key string) ([]byte, error)
	// Store persists a value.
	Store(key string, value []byte) error
}

// ErrNotFound indicates the key has never been stored.
var ErrNotFound = errors.New("settings: not found")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("settings: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("settings: cbor decoder mode: %v", err))
	}
}

// Marshal encodes a value the way stores expect it.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a value previously encoded with Marshal.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// LoadValue loads key from s and decodes it into v.
func LoadValue(s Store, key string, v any) error {
	data, err := s.Load(key)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("settings: decode %q: %w", key, err)
	}
	return nil
}

// StoreValue encodes v and stores it under key.
func StoreValue(s Store, key string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("settings: encode %q: %w", key, err)
	}
	return s.Store(key, data)
}

// MemStore keeps values in memory.
type MemStore struct {
	values map[string][]byte
	lock   sync.Mutex
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemStore) Load(key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Store implements Store.
func (s *MemStore) Store(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// FileStore keeps all values in a single CBOR encoded file.
// Every Store rewrites the file through a temporary file and rename.
type FileStore struct {
	Path string

	values map[string][]byte
	lock   sync.Mutex
}

// OpenFileStore loads the file at path, a missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{Path: path, values: make(map[string][]byte)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("settings: corrupted %s: %w", path, err)
	}
	return s, nil
}

// Load implements Store.
func (s *FileStore) Load(key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Store implements Store.
func (s *FileStore) Store(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = append([]byte(nil), value...)
	data, err := Marshal(s.values)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
