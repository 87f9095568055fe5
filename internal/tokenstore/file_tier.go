package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

const (
	defaultHomeDir  = ".agoffice"
	defaultFileName = "session.json"
)

// DefaultFilePath returns ~/.agoffice/session.json.
func DefaultFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, defaultHomeDir, defaultFileName), nil
}

// FileTier is the CLI's durable tier: a small JSON object on disk readable
// only by the owner.
type FileTier struct {
	mu   sync.Mutex
	path string
}

// NewFileTier returns a tier backed by the file at path. The file and its
// directory are created on first write.
func NewFileTier(path string) *FileTier {
	return &FileTier{path: path}
}

// Path returns the backing file location.
func (t *FileTier) Path() string {
	return t.path
}

// Get implements Tier.
func (t *FileTier) Get(_ context.Context, key string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	values, err := t.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements Tier.
func (t *FileTier) Set(_ context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	values, err := t.load()
	if err != nil {
		return err
	}
	values[key] = value
	return t.save(values)
}

// Delete implements Tier. The file is removed once it holds nothing.
func (t *FileTier) Delete(_ context.Context, keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	values, err := t.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(values, key)
	}
	if len(values) == 0 {
		if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", t.path, err)
		}
		return nil
	}
	return t.save(values)
}

func (t *FileTier) load() (map[string]string, error) {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.path, err)
	}
	return values, nil
}

func (t *FileTier) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(t.path), err)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal session file: %w", err)
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}
