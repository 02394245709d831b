// Package search implements the five retrieval strategies and the
// orchestrator that fuses their results into one ranked, faceted response.
package search

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// Similarity floors and enrichment bounds shared by the strategies.
const (
	SimilarityFloor        = 0.65
	PatternConfidenceFloor = 0.7
	MaxRelatedEntities     = 5
	strategyFetchLimit     = 30
)

// Query is the resolved input handed to every strategy: the raw text, the
// tokenized terms, the classification, and the compiled ownership filter.
// Strategies must render the filter for every node alias they match.
type Query struct {
	Text           string
	Terms          []string
	Interpretation types.Interpretation
	Scope          scope.Context
	Filter         *scope.Filter
	Options        types.SearchOptions
}

// Strategy is one independent retrieval method.
type Strategy interface {
	Name() types.StrategyName
	Execute(ctx context.Context, q *Query) ([]types.SearchResult, error)
}

var termSplitRe = regexp.MustCompile(`[^\pL\pN_]+`)

// QueryTerms tokenizes query text, dropping terms of two characters or
// fewer. Length is counted in runes so multibyte terms get the same cutoff.
func QueryTerms(text string) []string {
	raw := termSplitRe.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, term := range raw {
		if utf8.RuneCountInString(term) > 2 {
			terms = append(terms, term)
		}
	}
	return terms
}

// termsRegex builds a single case-insensitive alternation over the terms,
// with each term quoted. Returns "" when there are no usable terms.
func termsRegex(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return "(?i).*(" + strings.Join(quoted, "|") + ").*"
}

// entityKindClause renders the requested-entity-type inclusion check for an
// alias, honoring the include flags.
func entityKindClause(alias string, opts types.SearchOptions) string {
	switch {
	case opts.IncludeMemories && opts.IncludeCode:
		return "(" + alias + ":" + types.LabelMemory + " OR " + alias + ":" + types.LabelCode + ")"
	case opts.IncludeMemories:
		return alias + ":" + types.LabelMemory
	case opts.IncludeCode:
		return alias + ":" + types.LabelCode
	default:
		// Nothing requested reads as everything requested.
		return "(" + alias + ":" + types.LabelMemory + " OR " + alias + ":" + types.LabelCode + ")"
	}
}

// decodeRelated converts the enrichment column (a list of {rel, node} maps
// collected with OPTIONAL MATCH) into RelatedEntity values. Absence of
// enrichment is not an error.
func decodeRelated(value any) []types.RelatedEntity {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	related := make([]types.RelatedEntity, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node, ok := entry["node"].(driver.Node)
		if !ok {
			continue
		}
		record, err := driver.RecordFromNode(node)
		if err != nil {
			continue
		}
		relation, _ := entry["rel"].(string)
		related = append(related, types.RelatedEntity{
			ID:       record.RecordID(),
			Kind:     record.Kind(),
			Relation: relation,
			Title:    relatedTitle(record),
		})
		if len(related) >= MaxRelatedEntities {
			break
		}
	}
	if len(related) == 0 {
		return nil
	}
	return related
}

func relatedTitle(record types.Record) string {
	switch r := record.(type) {
	case *types.CodeRecord:
		if r.Name != "" {
			return r.Name
		}
		return r.Path
	case *types.MemoryRecord:
		return firstN(r.Content, 80)
	case *types.PatternRecord:
		return r.Name
	case *types.SummaryRecord:
		return firstN(r.Summary, 80)
	default:
		return ""
	}
}

func firstN(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// enrichmentClause is the shared one-hop OPTIONAL MATCH used by strategies
// to attach cross-links. The related node gets its own ownership filter.
func enrichmentClause(entityAlias, relatedAlias string, filter *scope.Filter) string {
	return "OPTIONAL MATCH (" + entityAlias + ")-[enrich_rel:" + types.RelReferencesCode + "|" + types.RelDiscussedIn + "]-(" + relatedAlias + ")\n" +
		"WHERE " + filter.Render(relatedAlias)
}
