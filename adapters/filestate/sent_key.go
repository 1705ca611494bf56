package filestate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sleepreport/domain/core"
	"sleepreport/ports"
)

// state is the on-disk document
type state struct {
	LastSentKey string `json:"last_sent_key"`
}

// SentKeyFile remembers the last delivered night in a small JSON file.
// Text and image deliveries should use separate files.
type SentKeyFile struct {
	path string
}

// NewSentKeyFile stores state at path
func NewSentKeyFile(path string) ports.SentKeyStore {
	return &SentKeyFile{path: path}
}

// LastSentKey returns the stored key. A missing or unreadable file yields an
// empty key so the next run sends.
func (s *SentKeyFile) LastSentKey(ctx context.Context) (core.SleepKey, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[SentKeyFile] cannot read %s: %v", s.path, err)
		}
		return "", nil
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[SentKeyFile] ignoring corrupt state %s: %v", s.path, err)
		return "", nil
	}
	return core.SleepKey(st.LastSentKey), nil
}

// SaveSentKey replaces the stored key
func (s *SentKeyFile) SaveSentKey(ctx context.Context, key core.SleepKey) error {
	if key.IsEmpty() {
		return fmt.Errorf("refusing to save an empty sent key")
	}
	data, err := json.Marshal(state{LastSentKey: key.String()})
	if err != nil {
		return err
	}
	return writeAtomic(s.path, data)
}

// writeAtomic replaces path through a temp file and rename so a crash never
// leaves a half-written document
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state %s: %w", path, err)
	}
	return nil
}
