package screener

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

// Preset is a named, reusable screen
type Preset struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Conditions  Criteria `yaml:"conditions" json:"conditions"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads presets from path, or the embedded defaults when path is empty
func LoadPresets(path string) ([]Preset, error) {
	data := defaultPresets
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read presets %s: %w", path, err)
		}
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates a preset document.
// 알 수 없는 필드는 즉시 실패 (KnownFields)
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))
	for i := range file.Presets {
		p := &file.Presets[i]
		if p.ID == "" {
			return nil, fmt.Errorf("preset #%d: id is required", i+1)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("preset %s: duplicate id", p.ID)
		}
		seen[p.ID] = true

		if err := p.Conditions.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.ID, err)
		}
	}

	return file.Presets, nil
}

// FindPreset returns the preset with id
func FindPreset(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
