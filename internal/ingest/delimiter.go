package ingest

// delimiter.go guesses the field separator of an unknown file.
//
// The detector splits a sample of the file on each candidate delimiter and
// scores the candidate by mean(field counts) - variance(field counts): many
// columns are rewarded, inconsistent counts across lines are penalized.
// Detection never fails; with no usable sample it falls back to comma.

import (
	"strings"

	"github.com/montanaflynn/stats"
)

// DelimiterSampleBytes is how much of the decoded text is examined.
const DelimiterSampleBytes = 50 * 1024

// delimiterSampleLines is how many non-blank lines are scored.
const delimiterSampleLines = 10

// candidateDelimiters in tie-break order: comma wins ties.
var candidateDelimiters = []string{",", ";", "\t", "|"}

// NormalizeDelimiter validates an explicit delimiter override against the
// detector's candidate set. "tab" and the escaped form select the tab
// character.
func NormalizeDelimiter(v string) (string, bool) {
	switch v {
	case "tab", `\t`, "\t":
		return "\t", true
	case ",", ";", "|":
		return v, true
	}
	return "", false
}

// DetectDelimiter returns the most likely field separator for text.
// Always returns one of comma, semicolon, tab, or pipe.
func DetectDelimiter(text string) string {
	if len(text) > DelimiterSampleBytes {
		text = text[:DelimiterSampleBytes]
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == delimiterSampleLines {
			break
		}
	}

	if len(lines) == 0 {
		return ","
	}

	best := ","
	bestScore := scoreDelimiter(lines, ",")

	for _, cand := range candidateDelimiters[1:] {
		if score := scoreDelimiter(lines, cand); score > bestScore {
			best = cand
			bestScore = score
		}
	}

	return best
}

// scoreDelimiter computes mean - variance of per-line field counts.
func scoreDelimiter(lines []string, delim string) float64 {
	counts := make([]float64, len(lines))
	for i, line := range lines {
		counts[i] = float64(strings.Count(line, delim) + 1)
	}

	mean, err := stats.Mean(counts)
	if err != nil {
		return 0
	}
	variance, err := stats.PopulationVariance(counts)
	if err != nil {
		return 0
	}

	return mean - variance
}
