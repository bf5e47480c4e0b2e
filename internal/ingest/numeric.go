package ingest

// numeric.go rewrites locale-ambiguous numeric tokens into canonical decimal
// form before type coercion.
//
// European exports frequently use '.' as a thousands separator and ',' as
// the decimal separator ("1.234.567,89"). This is a best-effort heuristic,
// not a full locale parser: a 3-digit-grouped token with no decimal part
// ("1.234") is assumed to be thousands-grouped, which is a known source of
// misinterpretation for files that really meant 1.234.

import (
	"regexp"
	"strings"
)

var (
	// Already canonical: -123, 123.45
	plainDecimalRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

	// Grouped with ',' decimal: 1.234.567,89 or 123,45
	commaDecimalRe = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})*(,\d+)$`)

	// Pure thousands-grouped integer: 1.234.567
	groupedIntRe = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
)

// NormalizeNumber rewrites token into plain decimal form where it matches a
// recognized locale pattern, and returns it unchanged otherwise. Unrecognized
// tokens are left for the validator to reject when a numeric field expected
// them.
func NormalizeNumber(token string) string {
	switch {
	case plainDecimalRe.MatchString(token):
		return token
	case commaDecimalRe.MatchString(token):
		s := strings.ReplaceAll(token, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case groupedIntRe.MatchString(token):
		return strings.ReplaceAll(token, ".", "")
	default:
		return token
	}
}
