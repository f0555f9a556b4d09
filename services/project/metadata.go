package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/devpackage/msdectl/models"
)

var ErrNoProject = errors.New("no project metadata found")

// LoadMetadata reads the project's metadata.json.
func LoadMetadata(path string) (*models.Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %q", ErrNoProject, path)
		}
		return nil, fmt.Errorf("read metadata %q: %w", path, err)
	}

	var m models.Metadata
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %q: %w", path, err)
	}
	return &m, nil
}

// WriteVersion sets the project version, keeping the rest of the file.
func WriteVersion(path, version string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read metadata %q: %w", path, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("parse metadata %q: %w", path, err)
	}
	raw, err := json.Marshal(version)
	if err != nil {
		return err
	}
	doc["version"] = raw

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata %q: %w", path, err)
	}
	return nil
}
