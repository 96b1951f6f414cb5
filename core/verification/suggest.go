package verification

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// minSuggestRatio is the similarity below which a candidate is not suggested.
const minSuggestRatio = 0.4

type Suggestion struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// SuggestOutlets ranks "code - name" strings by similarity to query. Every suggestion
// resolves through MatchOutlet when typed back verbatim.
func (t *Tables) SuggestOutlets(query string, limit int) []Suggestion {
	candidates := make([]string, 0, len(t.Outlets))
	for _, o := range t.Outlets {
		candidates = append(candidates, o.Code+" - "+o.Name)
	}
	return suggest(query, candidates, limit)
}

// SuggestDivisions ranks division names by similarity to query.
func (t *Tables) SuggestDivisions(query string, limit int) []Suggestion {
	candidates := make([]string, 0, len(t.Divisions))
	for _, d := range t.Divisions {
		candidates = append(candidates, d.Name)
	}
	return suggest(query, candidates, limit)
}

func suggest(query string, candidates []string, limit int) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Suggestion, 0)
	if q == "" {
		return out
	}

	for _, c := range candidates {
		lc := strings.ToLower(c)
		score := difflib.NewMatcher(strings.Split(q, ""), strings.Split(lc, "")).Ratio()
		if strings.Contains(lc, q) && score < 1 {
			// substring hits rank above fuzzy ones
			score = 0.5 + score/2
		}
		if score >= minSuggestRatio {
			out = append(out, Suggestion{Value: c, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
