package search

import (
	"sort"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// mergeKey identifies one entity across strategy outputs.
type mergeKey struct {
	id    string
	label string
}

// MergeResults fuses the per-strategy result lists. The same entity found
// by several strategies keeps its maximum score, prefers the semantic match
// type when any contributor was semantic, and unions highlights and
// relationships. The operation is commutative and associative, so the
// undefined arrival order of concurrent strategies cannot change the
// output; it is also idempotent over an already-merged list.
func MergeResults(resultSets ...[]types.SearchResult) []types.SearchResult {
	var order []mergeKey
	merged := make(map[mergeKey]*types.SearchResult)

	for _, set := range resultSets {
		for _, result := range set {
			if result.Entity == nil {
				continue
			}
			key := mergeKey{id: result.Entity.RecordID(), label: result.Entity.RecordLabel()}
			existing, ok := merged[key]
			if !ok {
				copied := result
				copied.Highlights = append([]string(nil), result.Highlights...)
				copied.Relationships = append([]types.RelatedEntity(nil), result.Relationships...)
				merged[key] = &copied
				order = append(order, key)
				continue
			}

			if result.Score > existing.Score {
				existing.Score = result.Score
			}
			if result.MatchType == types.MatchSemantic {
				existing.MatchType = types.MatchSemantic
			}
			existing.Highlights = append(existing.Highlights, result.Highlights...)
			existing.Relationships = mergeRelationships(existing.Relationships, result.Relationships)
		}
	}

	out := make([]types.SearchResult, 0, len(order))
	for _, key := range order {
		result := merged[key]
		result.Highlights = DedupeHighlights(result.Highlights)
		out = append(out, *result)
	}
	return out
}

func mergeRelationships(existing, incoming []types.RelatedEntity) []types.RelatedEntity {
	seen := make(map[string]bool, len(existing))
	for _, rel := range existing {
		seen[rel.ID+"|"+rel.Relation] = true
	}
	for _, rel := range incoming {
		key := rel.ID + "|" + rel.Relation
		if !seen[key] {
			seen[key] = true
			existing = append(existing, rel)
		}
	}
	return existing
}

// Intent-conditioned rank boosts.
const (
	intentBoost       = 0.1
	relationshipBoost = 0.05
)

// RankResults applies intent-conditioned boosts and stable-sorts descending
// by score. Ties keep merge order; there is no secondary key.
func RankResults(results []types.SearchResult, interp types.Interpretation) []types.SearchResult {
	for i := range results {
		results[i].Score = clampScore(results[i].Score + boostFor(&results[i], interp))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func boostFor(result *types.SearchResult, interp types.Interpretation) float64 {
	var boost float64
	switch interp.PrimaryIntent {
	case types.IntentFindCode:
		if code, ok := result.Entity.(*types.CodeRecord); ok && code.Path != "" {
			boost += intentBoost
		}
	case types.IntentFindMemory, types.IntentRecent:
		if memory, ok := result.Entity.(*types.MemoryRecord); ok && !memory.OccurredAt.IsZero() {
			boost += intentBoost
		}
	}
	if len(result.Relationships) > 0 {
		boost += relationshipBoost
	}
	return boost
}

// ApplyFilters applies the caller's conjunctive post-filters in order: date
// range, project allow-list, language allow-list, must-have-relationships.
func ApplyFilters(results []types.SearchResult, filters types.SearchFilters) []types.SearchResult {
	out := results[:0]
	for _, result := range results {
		if !matchesDateRange(result, filters) {
			continue
		}
		if !matchesAllowList(resultProject(result.Entity), filters.Projects) {
			continue
		}
		if !matchesAllowList(resultLanguage(result.Entity), filters.Languages) {
			continue
		}
		if filters.MustHaveRelation && len(result.Relationships) == 0 {
			continue
		}
		out = append(out, result)
	}
	return out
}

func matchesDateRange(result types.SearchResult, filters types.SearchFilters) bool {
	if filters.DateFrom == nil && filters.DateTo == nil {
		return true
	}
	ts := recordTimestamp(result.Entity)
	if ts.IsZero() {
		return false
	}
	if filters.DateFrom != nil && ts.Before(*filters.DateFrom) {
		return false
	}
	if filters.DateTo != nil && ts.After(*filters.DateTo) {
		return false
	}
	return true
}

func matchesAllowList(value string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func resultProject(record types.Record) string {
	switch r := record.(type) {
	case *types.MemoryRecord:
		return r.ProjectName
	case *types.CodeRecord:
		return r.Project
	case *types.PatternRecord:
		return r.Scope.Project
	default:
		return ""
	}
}

func resultLanguage(record types.Record) string {
	if code, ok := record.(*types.CodeRecord); ok {
		return code.Language
	}
	return ""
}
