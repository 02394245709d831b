package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/types"
)

var (
	markupRe     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// highlightWindow is the number of characters captured around a matched
// term.
const highlightWindow = 60

// normalizeHighlight strips markup, collapses whitespace, and lowercases.
func normalizeHighlight(h string) string {
	cleaned := markupRe.ReplaceAllString(h, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// DedupeHighlights removes highlights whose normalized form duplicates, is
// contained in, or contains one already kept. When one highlight subsumes
// another, the longer survives. Output order: longest normalized form
// first, ties by first appearance.
func DedupeHighlights(highlights []string) []string {
	type candidate struct {
		original   string
		normalized string
		index      int
	}

	candidates := make([]candidate, 0, len(highlights))
	for i, h := range highlights {
		norm := normalizeHighlight(h)
		if norm == "" {
			continue
		}
		candidates = append(candidates, candidate{original: h, normalized: norm, index: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].normalized) != len(candidates[j].normalized) {
			return len(candidates[i].normalized) > len(candidates[j].normalized)
		}
		return candidates[i].index < candidates[j].index
	})

	var kept []candidate
	for _, c := range candidates {
		subsumed := false
		for _, k := range kept {
			if strings.Contains(k.normalized, c.normalized) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, c)
		}
	}

	out := make([]string, len(kept))
	for i, k := range kept {
		out[i] = k.original
	}
	return out
}

// searchableText returns the text fields highlights are drawn from.
func searchableText(record types.Record) []string {
	switch r := record.(type) {
	case *types.MemoryRecord:
		return []string{r.Content}
	case *types.CodeRecord:
		return []string{r.Content, r.Path, r.Name}
	case *types.SummaryRecord:
		return []string{r.Summary}
	case *types.PatternRecord:
		return []string{r.Name}
	default:
		return nil
	}
}

// snippetHighlights extracts a short window around the first occurrence of
// each term in the record's searchable text.
func snippetHighlights(record types.Record, terms []string) []string {
	var highlights []string
	for _, text := range searchableText(record) {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		for _, term := range terms {
			idx := strings.Index(lower, term)
			if idx < 0 {
				continue
			}
			start := idx - highlightWindow/2
			if start < 0 {
				start = 0
			}
			end := idx + len(term) + highlightWindow/2
			if end > len(text) {
				end = len(text)
			}
			highlights = append(highlights, strings.TrimSpace(text[start:end]))
		}
	}
	return highlights
}
