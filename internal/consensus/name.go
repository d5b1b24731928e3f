package consensus

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the canonical form of a scientific name used for
// tallying: Unicode NFC with surrounding and repeated whitespace collapsed.
// Case is preserved, so "Quercus alba" and "quercus alba" stay distinct.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}
