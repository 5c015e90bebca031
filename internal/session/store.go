package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// Store persists a session token between CLI invocations.
type Store interface {
	Load() (*Session, error)
	Save(token string) error
	Clear() error
}

var _ Store = (*FileStore)(nil)

// FileStore keeps the token in a YAML file readable only by its owner. The
// zero value with Path set is ready to use.
type FileStore struct {
	Path string
	now  func() time.Time
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, now: time.Now}
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tumana-session.yaml"
	}
	return filepath.Join(dir, "tumana", "session.yaml")
}

type fileRecord struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// Load reads the stored token. It returns ErrNoToken when nothing is stored.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, errors.Wrapf(err, "read %s", f.Path)
	}

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.Path)
	}
	return New(rec.Token)
}

// Save validates and stores token, replacing any previous one.
func (f *FileStore) Save(token string) error {
	s, err := New(token)
	if err != nil {
		return err
	}

	now := time.Now
	if f.now != nil {
		now = f.now
	}
	data, err := yaml.Marshal(fileRecord{Token: s.Token(), SavedAt: now().UTC()})
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	return writeFileAtomic(f.Path, data)
}

// writeFileAtomic replaces path with data through a 0600 temp file, so an
// existing file with looser permissions is never written in place.
func writeFileAtomic(path string, data []byte) (rerr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if rerr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove %s", f.Path)
	}
	return nil
}
