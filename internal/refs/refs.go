// Package refs resolves user-typed names of categories and bank accounts against backend listings.
package refs

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/bnema/finchat/internal/textnorm"
)

const DefaultSuggestionLimit = 3

// Entry is one named backend entity.
type Entry struct {
	ID   string
	Name string
}

// Exact returns the entries whose name folds equal to name.
func Exact(name string, entries []Entry) []Entry {
	matches := make([]Entry, 0, 1)
	for _, entry := range entries {
		if textnorm.Equal(entry.Name, name) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Resolve returns the single entry matching name: an exact match first, otherwise the only
// entry whose name contains name as a word. ok is false when there is no match or several.
func Resolve(name string, entries []Entry) (Entry, []Entry, bool) {
	if exact := Exact(name, entries); len(exact) > 0 {
		return exact[0], exact, len(exact) == 1
	}

	partial := make([]Entry, 0, 2)
	for _, entry := range entries {
		if textnorm.ContainsWord(entry.Name, name) {
			partial = append(partial, entry)
		}
	}
	if len(partial) == 1 {
		return partial[0], partial, true
	}
	return Entry{}, partial, false
}

type candidate struct {
	entry    Entry
	distance int
	score    int
}

// Suggest ranks entries close to name, by edit distance then subsequence score. At most limit
// entries are returned; limit <= 0 uses DefaultSuggestionLimit.
func Suggest(name string, entries []Entry, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	needle := textnorm.Fold(name)
	if needle == "" || len(entries) == 0 {
		return nil
	}

	folded := make([]string, len(entries))
	for i, entry := range entries {
		folded[i] = textnorm.Fold(entry.Name)
	}

	byIndex := make(map[int]*candidate, len(entries))
	for _, match := range fuzzy.Find(needle, folded) {
		byIndex[match.Index] = &candidate{entry: entries[match.Index], distance: editDistance(needle, folded[match.Index]), score: match.Score}
	}
	maxDistance := max(2, len([]rune(needle))/3)
	for i, value := range folded {
		if _, seen := byIndex[i]; seen {
			continue
		}
		distance := editDistance(needle, value)
		if distance <= maxDistance || strings.Contains(value, needle) || strings.Contains(needle, value) {
			byIndex[i] = &candidate{entry: entries[i], distance: distance}
		}
	}

	ranked := make([]candidate, 0, len(byIndex))
	for _, c := range byIndex {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entry.Name < ranked[j].entry.Name
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	suggestions := make([]Entry, len(ranked))
	for i, c := range ranked {
		suggestions[i] = c.entry
	}
	return suggestions
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

// editDistance is the Levenshtein distance over runes, kept to two rows.
func editDistance(a, b string) int {
	left, right := []rune(a), []rune(b)
	if len(left) < len(right) {
		left, right = right, left
	}
	if len(right) == 0 {
		return len(left)
	}

	prev := make([]int, len(right)+1)
	curr := make([]int, len(right)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(left); i++ {
		curr[0] = i
		for j := 1; j <= len(right); j++ {
			cost := 1
			if left[i-1] == right[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(right)]
}
