package brand

import (
	"cmp"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/sells-group/visibility-cli/internal/model"
)

// Mention is one brand found in a text.
type Mention struct {
	// Name is the brand's short name, or the raw entity name for entities
	// that match no known brand.
	Name string
	// Position is the byte offset of the first occurrence.
	Position int
	// Brand is the known brand mentioned; nil for ad hoc entity mentions.
	Brand *model.Brand
}

type compiledBrand struct {
	brand  model.Brand
	key    string
	name   *regexp.Regexp
	domain *regexp.Regexp
}

// Matcher finds known brands in text. Patterns are compiled once when the
// Matcher is built; entity patterns are compiled on first use and cached.
// A Matcher is safe for concurrent use.
type Matcher struct {
	brands []compiledBrand
	byKey  map[string]int

	mu       sync.Mutex
	entities map[string]*regexp.Regexp
}

// NewMatcher compiles patterns for brands. Brands sharing a MatchKey are
// collapsed, keeping the first.
func NewMatcher(brands []model.Brand) *Matcher {
	m := &Matcher{
		byKey:    make(map[string]int, len(brands)),
		entities: make(map[string]*regexp.Regexp),
	}
	for _, b := range brands {
		key := MatchKey(b.Label())
		if key == "" {
			continue
		}
		if _, dup := m.byKey[key]; dup {
			continue
		}
		m.byKey[key] = len(m.brands)
		m.brands = append(m.brands, compiledBrand{
			brand:  b,
			key:    key,
			name:   BuildPattern(b.Label()),
			domain: domainPattern(b.Domain),
		})
	}
	return m
}

// Brands returns the deduplicated brand list in input order.
func (m *Matcher) Brands() []model.Brand {
	out := make([]model.Brand, len(m.brands))
	for i, cb := range m.brands {
		out[i] = cb.brand
	}
	return out
}

// Find returns every brand mentioned in text ordered by first occurrence.
//
// A known brand's position is the earliest of: a brand-type entity with the
// same MatchKey, the brand's short name, and the brand's domain. Brand-type
// entities that match no known brand are reported under their own name when
// their pattern occurs in text.
func (m *Matcher) Find(text string, entities []model.Entity) []Mention {
	byKey := make(map[string][]string)
	var order []string
	for _, e := range entities {
		if e.Type != model.EntityTypeBrand {
			continue
		}
		key := MatchKey(e.Name)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], e.Name)
	}

	var out []Mention
	for i := range m.brands {
		cb := &m.brands[i]
		pos := -1
		for _, name := range byKey[cb.key] {
			pos = earliest(pos, index(m.entityPattern(name), text))
		}
		pos = earliest(pos, index(cb.name, text))
		pos = earliest(pos, index(cb.domain, text))
		if pos >= 0 {
			out = append(out, Mention{Name: cb.brand.Label(), Position: pos, Brand: &cb.brand})
		}
	}

	for _, key := range order {
		if _, known := m.byKey[key]; known {
			continue
		}
		name := byKey[key][0]
		if pos := index(m.entityPattern(name), text); pos >= 0 {
			out = append(out, Mention{Name: name, Position: pos})
		}
	}

	slices.SortStableFunc(out, func(a, b Mention) int { return cmp.Compare(a.Position, b.Position) })
	return out
}

// Rank returns the names of the brands mentioned in text ordered by first
// occurrence.
func (m *Matcher) Rank(text string, entities []model.Entity) []string {
	mentions := m.Find(text, entities)
	out := make([]string, len(mentions))
	for i, mn := range mentions {
		out[i] = mn.Name
	}
	return out
}

// EnrichSource annotates src with the known brands its title or URL mentions
// and the brand, if any, whose domain it is hosted on.
func (m *Matcher) EnrichSource(src model.Source) model.EnrichedSource {
	es := model.EnrichedSource{
		Source:               src,
		MentionedBrands:      []string{},
		MentionedCompetitors: []string{},
	}

	for _, mn := range m.Find(src.Title+"\n"+src.URL, nil) {
		if mn.Brand.IsCompetitor {
			es.MentionedCompetitors = append(es.MentionedCompetitors, mn.Name)
		} else {
			es.MentionedBrands = append(es.MentionedBrands, mn.Name)
		}
	}

	host := sourceHost(src)
	if host == "" {
		return es
	}
	for _, cb := range m.brands {
		if !hostMatches(host, cb.brand.Domain) {
			continue
		}
		if cb.brand.IsCompetitor {
			if es.LinkedCompetitor == "" {
				es.LinkedCompetitor = cb.brand.Label()
			}
		} else if es.LinkedBrand == "" {
			es.LinkedBrand = cb.brand.Label()
		}
	}
	return es
}

func (m *Matcher) entityPattern(name string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.entities[name]; ok {
		return re
	}
	re := BuildPattern(name)
	m.entities[name] = re
	return re
}

func earliest(cur, pos int) int {
	if pos < 0 {
		return cur
	}
	if cur < 0 || pos < cur {
		return pos
	}
	return cur
}

func sourceHost(src model.Source) string {
	if src.Domain != "" {
		return canonicalHost(src.Domain)
	}
	u, err := url.Parse(strings.TrimSpace(src.URL))
	if err != nil {
		return ""
	}
	return canonicalHost(u.Hostname())
}

func canonicalHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	h, _, _ = strings.Cut(h, "/")
	return strings.TrimPrefix(h, "www.")
}

// hostMatches reports whether host is domain or one of its subdomains.
func hostMatches(host, domain string) bool {
	domain = canonicalHost(domain)
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
