package ml

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// smartPunct folds typographic punctuation to plain ASCII so that curly
// quotes and dash variants cannot split the vocabulary.
var smartPunct = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", ",",
	"‛", "'",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

// Normalize canonicalizes raw message text into the stable form used for both
// vocabulary fitting and inference. The two sides MUST run the identical
// transform: a mismatch silently degrades match rate with no error raised.
//
// Steps, in order: strip BOM/zero-width chars, NFKC fold, map smart
// punctuation to ASCII, replace C0/C1 control characters with spaces,
// collapse whitespace, lowercase. Total function; any input yields a string,
// empty input yields "".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\uFEFF", "")
	s = strings.ReplaceAll(s, "​", "")

	s = norm.NFKC.String(s)
	s = smartPunct.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
	}

	s = strings.Join(strings.Fields(b.String()), " ")
	return strings.ToLower(s)
}
