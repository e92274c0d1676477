package brand

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/visibility-cli/internal/model"
)

// NormalizeURL strips the fragment, and the query when stripQuery is set,
// then lowercases what is left.
func NormalizeURL(raw string, stripQuery bool) string {
	u, _, _ := strings.Cut(strings.TrimSpace(raw), "#")
	if stripQuery {
		u, _, _ = strings.Cut(u, "?")
	}
	return strings.ToLower(u)
}

// Aggregator accumulates visibility records across a batch of results.
type Aggregator struct {
	stripQuery bool
	brands     []model.Brand
	stats      map[string]*model.VisibilityStats
	citations  map[string]map[string]struct{}
	references map[string]map[string]struct{}
}

// NewAggregator tracks brands. Brands sharing a MatchKey are collapsed,
// keeping the first.
func NewAggregator(brands []model.Brand, stripQuery bool) *Aggregator {
	a := &Aggregator{
		stripQuery: stripQuery,
		stats:      make(map[string]*model.VisibilityStats, len(brands)),
		citations:  make(map[string]map[string]struct{}, len(brands)),
		references: make(map[string]map[string]struct{}, len(brands)),
	}
	seen := make(map[string]bool, len(brands))
	for _, b := range brands {
		key := MatchKey(b.Label())
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		label := b.Label()
		a.brands = append(a.brands, b)
		a.stats[label] = &model.VisibilityStats{Name: label, IsCompetitor: b.IsCompetitor}
		a.citations[label] = make(map[string]struct{})
		a.references[label] = make(map[string]struct{})
	}
	return a
}

// Add folds one result's records into the running totals. Records for
// brands outside the tracked list are ignored.
func (a *Aggregator) Add(records map[string]model.VisibilityRecord) {
	for _, b := range a.brands {
		label := b.Label()
		rec, ok := records[label]
		if !ok {
			continue
		}
		st := a.stats[label]
		if rec.InContent {
			st.Answer++
		}
		for _, u := range rec.Citations {
			st.Citations++
			if a.firstSeen(a.citations[label], u) {
				st.UniqueCitations++
			}
		}
		for _, u := range rec.References {
			st.References++
			if a.firstSeen(a.references[label], u) {
				st.UniqueReferences++
			}
		}
	}
}

func (a *Aggregator) firstSeen(set map[string]struct{}, raw string) bool {
	key := NormalizeURL(raw, a.stripQuery)
	if _, ok := set[key]; ok {
		return false
	}
	set[key] = struct{}{}
	return true
}

// Stats returns the totals ordered by descending answer count, ties kept in
// brand order.
func (a *Aggregator) Stats() []model.VisibilityStats {
	out := make([]model.VisibilityStats, 0, len(a.brands))
	for _, b := range a.brands {
		out = append(out, *a.stats[b.Label()])
	}
	slices.SortStableFunc(out, func(x, y model.VisibilityStats) int { return cmp.Compare(y.Answer, x.Answer) })
	return out
}

// Aggregate is a one-shot Aggregator over results.
func Aggregate(brands []model.Brand, results []map[string]model.VisibilityRecord, stripQuery bool) []model.VisibilityStats {
	a := NewAggregator(brands, stripQuery)
	for _, r := range results {
		a.Add(r)
	}
	return a.Stats()
}
