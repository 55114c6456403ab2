// Package artifact reads the trained scaler and models from an artifact
// store directory.
//
// A store holds a manifest.yaml next to the JSON exports it names:
//
//	schema: [Temperature, RH, Ws, Rain, FFMC, DMC, ISI, Classes, Region]
//	scaler: scaler.json
//	models:
//	  - name: Ridge Regression
//	    kind: ridge
//	    file: ridge.json
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/fwi-service/internal/model"
)

// ManifestFile is the manifest name inside a store directory.
const ManifestFile = "manifest.yaml"

// Manifest describes the contents of an artifact store.
type Manifest struct {
	Schema []string   `yaml:"schema"`
	Scaler string     `yaml:"scaler"`
	Models []ModelRef `yaml:"models"`
}

// ModelRef points at one exported model.
type ModelRef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	File string `yaml:"file"`
}

// ReadManifest parses and validates dir/manifest.yaml.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if err := model.CheckFeatureNames(m.Schema); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := checkFile(m.Scaler); err != nil {
		return fmt.Errorf("scaler: %w", err)
	}
	if len(m.Models) == 0 {
		return errors.New("manifest lists no models")
	}
	for i, ref := range m.Models {
		if ref.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if _, err := model.ParseKind(ref.Kind); err != nil {
			return fmt.Errorf("model %q: %w", ref.Name, err)
		}
		if err := checkFile(ref.File); err != nil {
			return fmt.Errorf("model %q: %w", ref.Name, err)
		}
	}
	return nil
}

// checkFile keeps artifact paths inside the store directory.
func checkFile(name string) error {
	if name == "" {
		return errors.New("file is required")
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("file %q must be a relative path inside the store", name)
	}
	return nil
}
