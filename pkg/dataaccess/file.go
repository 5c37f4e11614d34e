package dataaccess

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const fileDalName = "file"

// fileDocument is the on disk layout: one record per guild holding the panel, configuration, counter and the
// active tickets.
type fileDocument struct {
	Guilds map[string]*guildRecord `json:"guilds"`
}

// NewFileStore creates a store backed by a single JSON file. The file is rewritten after every mutation through a
// temporary file and a rename, so a crash never leaves a half written document behind.
func NewFileStore(l *slog.Logger, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating store directory: %w", err)
	}

	doc, err := readFileDocument(path)
	if err != nil {
		return nil, err
	}

	persist := func(guilds map[string]*guildRecord) error {
		return writeFileDocument(path, &fileDocument{Guilds: guilds})
	}

	return newMemoryStore(l, fileDalName, doc.Guilds, persist), nil
}

func readFileDocument(path string) (*fileDocument, error) {
	doc := &fileDocument{
		Guilds: make(map[string]*guildRecord),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading store file: %w", err)
	}

	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("error decoding store file %s: %w", path, err)
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*guildRecord)
	}
	return doc, nil
}

func writeFileDocument(path string, doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary store file: %w", err)
	}
	defer os.Remove(tmp.Name()) // Fails harmlessly once the rename succeeded.

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing temporary store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing temporary store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temporary store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing store file: %w", err)
	}
	return nil
}
