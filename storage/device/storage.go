// Package devicestore is the device-local key/value storage of the technician CLI,
// kept as a JSON document in the user's config directory.
package devicestore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/topsell/tams/core/verification"
)

const fileName = "tams.json"

type Storage struct {
	mu      sync.Mutex
	path    string
	v       *viper.Viper
	loadErr error
}

var _ verification.Storage = (*Storage)(nil)

// DefaultPath is the storage file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating config dir")
	}
	return filepath.Join(dir, "topsell", fileName), nil
}

// Open loads the storage file at path. A missing file is an empty storage. An unreadable
// or corrupt file also opens empty, with the cause kept in LoadErr; the next write replaces it.
func Open(path string) *Storage {
	s := &Storage{path: path, v: newViper(path)}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = s.v.ReadInConfig(); err != nil {
			s.loadErr = errors.Wrap(err, "reading device storage")
			s.v = newViper(path)
		}
	case !os.IsNotExist(err):
		s.loadErr = errors.Wrap(err, "reading device storage")
	}
	return s
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	return v
}

// LoadErr is the error that made Open discard the file content, if any.
func (s *Storage) LoadErr() error { return s.loadErr }

// keys are case-insensitive in viper
func normalize(key string) string { return strings.ToLower(key) }

func (s *Storage) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = normalize(key)
	if !s.v.IsSet(key) {
		return "", false, nil
	}
	val := s.v.GetString(key)
	if val == "" {
		return "", false, nil
	}
	return val, true, nil
}

func (s *Storage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(normalize(key), value)
	return s.write()
}

// RemoveItem clears key.
func (s *Storage) RemoveItem(key string) error {
	return s.SetItem(key, "")
}

func (s *Storage) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating device storage dir")
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errors.Wrap(err, "writing device storage")
	}
	return nil
}
