// Package match scores catalog entries against an input name by
// whitespace token overlap and picks the best one.
package match

import (
	"sort"
	"strings"
	"sync"

	"stocktake-service/internal/models"
)

// Matcher associates free-text item names with catalog entries.
type Matcher struct{}

// NewMatcher creates a new fuzzy matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// BestMatch scores every catalog entry concurrently and returns the one
// sharing the most name tokens with inputName. Entries with zero
// overlap are discarded; with nothing left it returns (nil, false).
// Equal top scores resolve to the lowest catalog index, so results are
// deterministic regardless of goroutine completion order.
func (m *Matcher) BestMatch(inputName string, catalog []models.Product) (*models.Product, bool) {
	if len(catalog) == 0 {
		return nil, false
	}

	inputTokens := tokenize(inputName)

	// Scoring is pure per entry: fan out one goroutine each, collect
	// into an indexed slice, no locking needed.
	scores := make([]int, len(catalog))
	var wg sync.WaitGroup
	for i := range catalog {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i] = overlap(inputTokens, tokenize(catalog[i].Name))
		}(i)
	}
	wg.Wait()

	candidates := make([]models.MatchCandidate, 0, len(catalog))
	for i := range catalog {
		if scores[i] > 0 {
			candidates = append(candidates, models.MatchCandidate{
				Product: &catalog[i],
				Score:   scores[i],
			})
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	// Stable sort keeps catalog order among equal scores.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	return candidates[0].Product, true
}

func tokenize(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(name) {
		tokens[t] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
