package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CredentialStore loads and persists credentials.
//
//go:generate mockgen -package=supervisor_test -destination=../supervisor/mock_store_test.go -source=store.go CredentialStore
type CredentialStore interface {
	Load() (Credential, error)
	Save(Credential) error
	Location() string
}

// DefaultSection is the file section credentials are stored under.
const DefaultSection = "questrade"

// FileStore keeps credentials in one section of a YAML file. Other sections
// in the same file are preserved on Save.
type FileStore struct {
	path    string
	section string
}

// NewFileStore returns a store backed by path using DefaultSection.
func NewFileStore(path string) *FileStore {
	return NewSectionStore(path, DefaultSection)
}

// NewSectionStore returns a store backed by the named section of path.
func NewSectionStore(path, section string) *FileStore {
	if section == "" {
		section = DefaultSection
	}
	return &FileStore{path: path, section: section}
}

// Location returns the backing file path.
func (f *FileStore) Location() string {
	return f.path
}

// Load reads the credential section. A missing file or section yields a zero
// Credential and no error.
func (f *FileStore) Load() (Credential, error) {
	sections, err := f.readSections()
	if err != nil {
		return Credential{}, err
	}

	node, ok := sections[f.section]
	if !ok {
		return Credential{}, nil
	}

	var c Credential
	if err := node.Decode(&c); err != nil {
		return Credential{}, fmt.Errorf("decode %s section: %w", f.section, err)
	}
	return c, nil
}

// Save writes c into the credential section, replacing the file atomically.
func (f *FileStore) Save(c Credential) error {
	sections, err := f.readSections()
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := node.Encode(c); err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	sections[f.section] = node

	data, err := yaml.Marshal(sections)
	if err != nil {
		return fmt.Errorf("marshal credential file: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credential dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func (f *FileStore) readSections() (map[string]yaml.Node, error) {
	sections := make(map[string]yaml.Node)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return sections, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse credential file: %w", err)
	}
	return sections, nil
}
