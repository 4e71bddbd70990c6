package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/verdict/attack"
)

// LoadWeights loads a severity weight table from a YAML or JSON file,
// detected by extension. Keys are attack category codes (e.g. "LLM01"),
// values are weights in [0, 1]. Unknown categories and out-of-range weights
// are rejected.
func LoadWeights(path string) (map[attack.Category]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}

	raw := make(map[string]float64)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON weights: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse YAML weights: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported weights format: %s (supported: .json, .yaml, .yml)", ext)
	}

	weights := make(map[attack.Category]float64, len(raw))
	for key, weight := range raw {
		category, err := attack.ParseCategory(key)
		if err != nil {
			return nil, fmt.Errorf("weights file: %w", err)
		}
		if weight < 0.0 || weight > 1.0 {
			return nil, fmt.Errorf("weights file: weight for %s must be in [0, 1], got %f", key, weight)
		}
		weights[category] = weight
	}
	return weights, nil
}
