// Package brand detects brand mentions in generated answers and source lists
// and rolls them up into per-brand visibility statistics.
package brand

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punctuation   = strings.NewReplacer("'", "", "’", "", ".", "")
	camelRe       = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	gluedAndRe    = regexp.MustCompile(`(\p{L})and(\p{L})`)
	letterDigitRe = regexp.MustCompile(`(\p{L})(\p{N})`)
	digitLetterRe = regexp.MustCompile(`(\p{N})(\p{L})`)
	nonAlnumRe    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Normalize canonicalizes a brand name or entity for pattern building:
//  1. Strip apostrophes and periods
//  2. Replace & with " and "
//  3. Split CamelCase
//  4. Lowercase
//  5. Replace hyphens with spaces
//  6. Split an "and" glued between letters
//  7. Split digits from adjacent letters
//  8. Fold accents
//  9. Collapse whitespace
func Normalize(name string) string {
	s := punctuation.Replace(name)
	s = strings.ReplaceAll(s, "&", " and ")
	s = camelRe.ReplaceAllString(s, "$1 $2")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = replaceUntilStable(gluedAndRe, s, "$1 and $2")
	s = letterDigitRe.ReplaceAllString(s, "$1 $2")
	s = digitLetterRe.ReplaceAllString(s, "$1 $2")
	s = foldAccents(s)
	return strings.Join(strings.Fields(s), " ")
}

// MatchKey is the identity used to decide whether two names are the same
// brand: Normalize with every non-alphanumeric character removed.
func MatchKey(name string) string {
	return nonAlnumRe.ReplaceAllString(Normalize(name), "")
}

// replaceUntilStable reapplies re so overlapping matches such as "xandyandz"
// are all rewritten.
func replaceUntilStable(re *regexp.Regexp, s, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}

func foldAccents(s string) string {
	// Transformers carry state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
