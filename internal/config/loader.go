package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file is given.
func Default() *Document {
	return &Document{Version: "1"}
}

// Load reads a configuration document from the provided path. The raw
// document is checked against the embedded schema before strict decoding,
// so unknown fields and structurally invalid values both fail loudly.
func Load(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	return Parse(data, absPath)
}

// Parse decodes and validates a configuration document. name is used in
// error messages only.
func Parse(data []byte, name string) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	if raw == nil {
		return Default(), nil
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}

	for key, value := range doc.Aliases {
		if value == nil {
			return nil, fmt.Errorf("%s: alias %q has no target", name, key)
		}
	}
	if _, err := doc.Settings.Policy(false); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}
