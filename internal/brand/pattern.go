package brand

import (
	"regexp"
	"slices"
	"strings"
)

// accentClasses widens vowels and n to their common accented forms.
var accentClasses = map[rune]string{
	'a': "[aàáâãäå]",
	'e': "[eèéêë]",
	'i': "[iìíîï]",
	'o': "[oòóôõöø]",
	'u': "[uùúûü]",
	'n': "[nñ]",
}

const (
	// separator joins words; it allows glued, spaced, hyphenated and
	// ampersand forms.
	separator = `(?:[\s\-'&]|and)*`
	// innerPunct tolerates the apostrophes Normalize strips. Periods are
	// not tolerated: dotted hosts are found by the domain pattern.
	innerPunct = `['\x{2019}]?`
	optionalAnd = `(?:&|and)?`
)

// BuildPattern compiles the fuzzy pattern for name. The brand text is the
// first capture group; the surrounding groups require a non-alphanumeric
// character or a string boundary on both sides. It returns nil when name
// normalizes to nothing.
func BuildPattern(name string) *regexp.Regexp {
	words := strings.Fields(Normalize(name))
	if len(words) == 0 {
		return nil
	}

	onlyAnd := !slices.ContainsFunc(words, func(w string) bool { return w != "and" })
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w == "and" && !onlyAnd {
			parts = append(parts, optionalAnd)
			continue
		}
		parts = append(parts, wordPattern(w))
	}

	expr := `(?i)(?:^|[^\p{L}\p{N}])(` + strings.Join(parts, separator) + `)(?:[^\p{L}\p{N}]|$)`
	return regexp.MustCompile(expr)
}

func wordPattern(w string) string {
	var b strings.Builder
	first := true
	for _, r := range w {
		if !first {
			b.WriteString(innerPunct)
		}
		first = false
		if class, ok := accentClasses[r]; ok {
			b.WriteString(class)
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// domainPattern matches domain as a case-insensitive literal.
func domainPattern(domain string) *regexp.Regexp {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(domain))
}

// index returns the byte offset of the first match of re in text, or -1.
// For boundary patterns the offset is that of the brand text itself.
func index(re *regexp.Regexp, text string) int {
	if re == nil {
		return -1
	}
	loc := re.FindStringSubmatchIndex(text)
	switch {
	case loc == nil:
		return -1
	case len(loc) >= 4 && loc[2] >= 0:
		return loc[2]
	default:
		return loc[0]
	}
}
