package patient

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/textnorm"
	"github.com/xrash/smetrics"
)

// NameMatcher narrows a name index to the ids matching query, best first.
type NameMatcher interface {
	Filter(ctx context.Context, query string, candidates []NameAndID, limit int) ([]uuid.UUID, error)
}

type MatchScore struct {
	ID    uuid.UUID
	Name  string
	Score float64
}

// NameFilter ranks candidates by Jaro-Winkler similarity of their
// searchable names. A name containing the query scores 1.
type NameFilter struct {
	threshold float64
}

func NewNameFilter(threshold float64) *NameFilter {
	if threshold <= 0 {
		threshold = 0.85
	}
	return &NameFilter{threshold: threshold}
}

const cancelCheckInterval = 256

func (f *NameFilter) Filter(ctx context.Context, query string, candidates []NameAndID, limit int) ([]uuid.UUID, error) {
	scores, err := f.Score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	ids := make([]uuid.UUID, 0, len(scores))
	for _, s := range scores {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// Score returns every candidate at or above the threshold, highest first.
// Ties keep the index order.
func (f *NameFilter) Score(ctx context.Context, query string, candidates []NameAndID) ([]MatchScore, error) {
	target := strings.ToLower(textnorm.Searchable(query))
	if target == "" {
		return nil, nil
	}

	var matches []MatchScore
	for i, candidate := range candidates {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		name := strings.ToLower(textnorm.Searchable(candidate.FullName))
		score := similarity(target, name)
		if score >= f.threshold {
			matches = append(matches, MatchScore{ID: candidate.ID, Name: candidate.FullName, Score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches, nil
}

func similarity(query, name string) float64 {
	if name == "" {
		return 0
	}
	if strings.Contains(name, query) {
		return 1.0
	}
	return smetrics.JaroWinkler(query, name, 0.7, 4)
}

// PhoneticMatcher implements the legacy fuzzy search: a name matches when
// it sounds like the query or sits within a small edit distance of it.
type PhoneticMatcher struct {
	maxDistance int
}

func NewPhoneticMatcher(maxDistance int) *PhoneticMatcher {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	return &PhoneticMatcher{maxDistance: maxDistance}
}

// Matches reports whether name is a fuzzy match and its edit distance,
// used to rank matches closest first.
func (m *PhoneticMatcher) Matches(query, name string) (bool, int) {
	q := strings.ToUpper(textnorm.Searchable(query))
	n := strings.ToUpper(textnorm.Searchable(name))
	if q == "" || n == "" {
		return false, 0
	}

	distance := smetrics.WagnerFischer(q, n, 1, 1, 1)
	if distance <= m.maxDistance {
		return true, distance
	}

	code := soundex(q)
	if code == "" {
		return false, distance
	}
	for _, token := range strings.Fields(strings.ToUpper(name)) {
		if soundex(textnorm.Searchable(token)) == code {
			return true, distance
		}
	}
	return soundex(n) == code, distance
}

func soundex(s string) string {
	if s == "" {
		return ""
	}
	if first := s[0]; first < 'A' || first > 'Z' {
		return ""
	}
	return smetrics.Soundex(s)
}
