package inventory

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lca-cli/internal/model"
)

// GlobalLocation is the location token used when none is declared.
const GlobalLocation = "global"

var multiUnderscoreRe = regexp.MustCompile(`_{2,}`)

// NormalizeToken reduces a material, technology or location label to a key
// token:
//  1. Stripping diacritics
//  2. Lowercasing
//  3. Removing commas and parentheses
//  4. Turning separators (" - ", spaces, dashes, slashes) into underscores
//  5. Collapsing and trimming underscores
func NormalizeToken(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(
		",", "",
		"(", "",
		")", "",
		" - ", "_",
		" ", "_",
		"-", "_",
		"/", "_",
	).Replace(s)

	s = multiUnderscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Key composes a lookup key from raw labels. An empty location becomes
// GlobalLocation.
func Key(kind, technology, location string) model.LookupKey {
	loc := NormalizeToken(location)
	if loc == "" {
		loc = GlobalLocation
	}
	return model.NewLookupKey(NormalizeToken(kind), NormalizeToken(technology), loc)
}
