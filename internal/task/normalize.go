package task

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle returns the NFC form of s with surrounding whitespace removed.
//
// Titles arrive from the remote in whatever normalization form the server
// used. Comparing them in NFC keeps a composed and a decomposed spelling of
// the same title from being treated as a remote change on every sync.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ValidTitle reports whether s is acceptable as a task title.
func ValidTitle(s string) bool {
	return NormalizeTitle(s) != ""
}

// TitleContains reports whether title contains query, ignoring case and
// normalization form. An empty query matches every title.
func TitleContains(title, query string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(NormalizeTitle(title)), fold.String(NormalizeTitle(query)))
}
