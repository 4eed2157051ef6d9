// Package auth logs in once per run, persists the resulting browser session
// and offers fixtures that either restore that session or log in afresh.
package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/playwright-community/playwright-go"
)

var (
	// ErrBootstrap marks every failure of the one-time login. The run must
	// not start tests after it.
	ErrBootstrap = errors.New("session bootstrap failed")
	// ErrNoSession is returned when the session file does not exist.
	ErrNoSession = errors.New("no saved session")
)

// LoadSession reads and decodes a session file.
func LoadSession(path string) (*playwright.StorageState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var state playwright.StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", path, err)
	}
	return &state, nil
}

// SaveSession writes the storage state of ctx to path. Readers never see a
// partially written file.
func SaveSession(ctx playwright.BrowserContext, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	// Let the driver serialize the state in its own format first.
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if _, err := ctx.StorageState(tmpPath); err != nil {
		return fmt.Errorf("capturing storage state: %w", err)
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("reading storage state: %w", err)
	}

	return WriteSession(path, data)
}

// WriteSession atomically replaces the session file at path with data.
func WriteSession(path string, data []byte) error {
	if !json.Valid(data) {
		return errors.New("session data is not valid JSON")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
