package reconstruct

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// footnoteRe matches trailing footnote markers: "Delhi*", "Kolkata (2)".
var footnoteRe = regexp.MustCompile(`(\s*\(\d+\)|\s*\*+)$`)

// NormalizeName canonicalizes an agglomeration name: NFC form, single
// spaces, no trailing footnote markers.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	for {
		t := strings.TrimSpace(footnoteRe.ReplaceAllString(s, ""))
		if t == s {
			return s
		}
		s = t
	}
}
