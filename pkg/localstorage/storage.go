package localstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Keys used by the storefront on each device.
const (
	KeyCart        = "cart"
	KeyWishlist    = "wishlist"
	KeyUserProfile = "userProfile"
	KeyAuthSession = "auth_session"
)

const fileExt = ".json"

// ErrInvalidKey is returned for empty keys or keys containing path separators.
var ErrInvalidKey = errors.New("invalid local storage key")

// Storage is a key/value store of JSON documents, one file per key.
// There is no schema versioning: a value saved by an older release is decoded as-is.
type Storage struct {
	mu sync.Mutex
	fs afero.Fs
}

// New wraps fs. A nil fs falls back to an in-memory filesystem.
func New(fs afero.Fs) *Storage {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	return &Storage{fs: fs}
}

// ForDevice scopes root to the directory of a single device.
func ForDevice(root afero.Fs, deviceID uuid.UUID) (*Storage, error) {
	if root == nil {
		return nil, fmt.Errorf("root filesystem is required")
	}
	if deviceID == uuid.Nil {
		return nil, fmt.Errorf("device id is required")
	}
	dir := deviceID.String()
	if err := root.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create device dir: %w", err)
	}
	return New(afero.NewBasePathFs(root, dir)), nil
}

// Load decodes the value stored under key into dst. It reports false when
// nothing is stored.
func (s *Storage) Load(key string, dst any) (bool, error) {
	name, err := fileName(key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the value stored under key.
func (s *Storage) Save(key string, value any) error {
	name, err := fileName(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := name + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *Storage) Remove(key string) error {
	name, err := fileName(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys currently stored.
func (s *Storage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(info.Name(), fileExt))
	}
	return keys, nil
}

func fileName(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", ErrInvalidKey
	}
	return path.Join("/", key+fileExt), nil
}
