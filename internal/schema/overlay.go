package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overlay.go loads deployment-specific synonym additions from a YAML file.
//
// The file maps canonical field names to extra accepted labels:
//
//	amount:
//	  - outstanding_balance
//	  - book_value
//	rate:
//	  - yield
//
// Overlay labels extend the built-in table; they never remove entries.

// LoadSynonymOverlay reads a YAML synonym file and returns the built-in
// table merged with its entries. Unknown canonical field names are rejected
// so a typo in the file fails loudly at startup instead of silently mapping
// nothing.
func LoadSynonymOverlay(path string) (map[Field][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonym overlay: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonym overlay: %w", err)
	}

	merged := make(map[Field][]string, len(Synonyms))
	for f, labels := range Synonyms {
		merged[f] = append([]string{}, labels...)
	}

	for name, labels := range raw {
		f := Field(name)
		if !IsKnown(f) {
			return nil, fmt.Errorf("synonym overlay: unknown canonical field %q", name)
		}
		merged[f] = append(merged[f], labels...)
	}

	return merged, nil
}
