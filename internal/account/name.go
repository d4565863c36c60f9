package account

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName folds an account name to the canonical form the directory
// keys on. Folding uses Unicode case folding so that names differing only
// in case (including non-ASCII case pairs) identify the same account on
// every node, regardless of locale.
//
// A Caser is stateful, so one is built per call rather than shared.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
