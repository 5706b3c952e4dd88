// internal/survey/matcher.go
package survey

import "strings"

// labelsMatch reports whether an option label corresponds to the model's
// answer. The comparison is exact equality of whitespace-trimmed strings.
// Exact matching is brittle (localization, truncation), so it lives behind
// this one function; a fuzzier strategy can replace it without touching the
// executor's control flow.
func labelsMatch(label, answer string) bool {
	return strings.TrimSpace(label) == strings.TrimSpace(answer)
}
