package ingest

// header.go reconciles arbitrary column labels with the canonical schema.
//
// Matching is driven by normalization on both sides: the original labels and
// every candidate (canonical name + synonyms) are lowercased and
// separator-collapsed, then compared for equality. At most one original
// header maps to a given canonical field; when several would match, the
// first in column order wins and the rest stay unmapped.

import (
	"regexp"
	"strings"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

var (
	separatorRe  = regexp.MustCompile(`[\s\-/]+`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// NormalizeLabel canonicalizes a header label for matching: lowercase,
// parentheses stripped, runs of whitespace/hyphen/slash collapsed to a
// single underscore, repeated underscores collapsed, edges trimmed.
func NormalizeLabel(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = separatorRe.ReplaceAllString(s, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Mapping is the result of header reconciliation for one file. Computed once
// per file load and read-only afterwards.
type Mapping struct {
	// Labels maps each mapped original label to its canonical field.
	Labels map[string]schema.Field
	// Columns maps each canonical field to its column position in the file.
	Columns map[schema.Field]int
	// Mapped holds the original labels that mapped, in column order.
	Mapped []string
}

// HeaderMapper maps original header labels to canonical schema fields.
type HeaderMapper struct {
	synonyms map[schema.Field][]string
}

// NewHeaderMapper creates a mapper over the given synonym table.
// Pass schema.Synonyms for the built-in table.
func NewHeaderMapper(synonyms map[schema.Field][]string) *HeaderMapper {
	return &HeaderMapper{synonyms: synonyms}
}

// Map computes the header mapping for one file.
func (m *HeaderMapper) Map(headers []string) Mapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeLabel(h)
	}

	mapping := Mapping{
		Labels:  make(map[string]schema.Field),
		Columns: make(map[schema.Field]int),
	}
	taken := make([]bool, len(headers))

	for _, field := range schema.AllFields {
		candidates := map[string]bool{NormalizeLabel(string(field)): true}
		for _, syn := range m.synonyms[field] {
			candidates[NormalizeLabel(syn)] = true
		}

		// First original header in column order wins; later matches for the
		// same field stay unmapped. Ambiguity is not reported.
		for i, norm := range normalized {
			if taken[i] || !candidates[norm] {
				continue
			}
			mapping.Labels[headers[i]] = field
			mapping.Columns[field] = i
			taken[i] = true
			break
		}
	}

	for i, h := range headers {
		if taken[i] {
			mapping.Mapped = append(mapping.Mapped, h)
		}
	}

	return mapping
}

// MissingRequired returns the required fields that have no mapped column,
// in canonical order.
func (m Mapping) MissingRequired() []schema.Field {
	var missing []schema.Field
	for _, f := range schema.RequiredFields {
		if _, ok := m.Columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
