package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TokenStore is the durable home of the access and refresh tokens.
type TokenStore interface {
	Token() (string, error)
	RefreshToken() (string, error)
	SetTokens(token, refreshToken string) error
	Clear() error
}

type tokenFile struct {
	Token        string `yaml:"token"`
	RefreshToken string `yaml:"refresh_token"`
}

// FileStore keeps both tokens in a single YAML file readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultTokenPath returns <user config dir>/registry-console/session.yaml.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.Getenv("HOME")
	}
	return filepath.Join(dir, "registry-console", "session.yaml")
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (tokenFile, error) {
	f := tokenFile{}
	dat, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, errors.Wrap(err, "read token file")
	}
	if err := yaml.Unmarshal(dat, &f); err != nil {
		return f, errors.Wrap(err, "parse token file")
	}
	return f, nil
}

func (s *FileStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	return f.Token, err
}

func (s *FileStore) RefreshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	return f.RefreshToken, err
}

// SetTokens overwrites both values. The file is replaced with a rename so a
// reader never sees one new token next to one old token.
func (s *FileStore) SetTokens(token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dat, err := yaml.Marshal(tokenFile{Token: token, RefreshToken: refreshToken})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create temp token file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(dat); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write token file")
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace token file")
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove token file")
	}
	return nil
}

type MemoryStore struct {
	mu           sync.Mutex
	token        string
	refreshToken string
}

func NewMemoryStore(token, refreshToken string) *MemoryStore {
	return &MemoryStore{token: token, refreshToken: refreshToken}
}

func (s *MemoryStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) RefreshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken, nil
}

func (s *MemoryStore) SetTokens(token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.refreshToken = token, refreshToken
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.SetTokens("", "")
}
