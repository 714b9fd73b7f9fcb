package identity

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/google/uuid"
)

const userIDKey = "userId"

// KeyValueStore is the minimal persistence the identity provider needs,
// mirroring extension local storage.
type KeyValueStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}

// Provider hands out the stable per-installation identifier, creating one on
// first use. Storage failure is fatal to the calling flow and propagated.
type Provider struct {
	store KeyValueStore
	mu    sync.Mutex
}

func NewProvider(store KeyValueStore) *Provider {
	return &Provider{store: store}
}

func (p *Provider) GetOrCreate() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, found, err := p.store.Get(userIDKey)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	id = uuid.NewString()
	if err := p.store.Set(userIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}

// FileStore keeps key/value pairs in a small JSON file next to the relay,
// the closest analog to chrome.storage.local.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, found := values[key]
	return value, found, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
