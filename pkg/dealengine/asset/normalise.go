package asset

import "strings"

// trimAndLower is the single normalisation step every synonym lookup in
// this package applies: trim surrounding whitespace, then lower-case.
// Centralised so validator and adapter code can never drift into two
// slightly different normalisation rules.
func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
