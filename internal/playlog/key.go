package playlog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var quoteReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"‐", "-",
	"–", "-",
	"—", "-",
)

// Key builds the normalized dedup key for an (artist, title) pair: case and
// quote folded, diacritics stripped, whitespace collapsed. The daily record
// and the in-process dedup window both index on this key.
func Key(artist, title string) string {
	return NormalizeName(artist) + "|" + NormalizeName(title)
}

// NormalizeName folds one name component the way Key does.
func NormalizeName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = quoteReplacer.Replace(value)
	if folded, _, err := transform.String(foldTransformer, value); err == nil {
		value = folded
	}
	return strings.Join(strings.Fields(value), " ")
}
