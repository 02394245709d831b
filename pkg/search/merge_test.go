package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/types"
)

func memoryResult(id string, score float64, matchType types.MatchType) types.SearchResult {
	return types.SearchResult{
		Entity: &types.MemoryRecord{
			ID:         id,
			Content:    "content of " + id,
			OccurredAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		},
		Score:     score,
		MatchType: matchType,
	}
}

func codeResult(id string, score float64, matchType types.MatchType) types.SearchResult {
	return types.SearchResult{
		Entity:    &types.CodeRecord{ID: id, Path: "pkg/store/" + id + ".go", Language: "go"},
		Score:     score,
		MatchType: matchType,
	}
}

func TestMergeKeepsMaxScoreAndSemanticMatchType(t *testing.T) {
	keyword := []types.SearchResult{codeResult("c1", 0.6, types.MatchKeyword)}
	semantic := []types.SearchResult{codeResult("c1", 0.82, types.MatchSemantic)}

	merged := MergeResults(keyword, semantic)
	require.Len(t, merged, 1)
	assert.Equal(t, 0.82, merged[0].Score)
	assert.Equal(t, types.MatchSemantic, merged[0].MatchType)
}

func TestMergeScoreMonotonicityEitherOrder(t *testing.T) {
	a := []types.SearchResult{codeResult("c1", 0.82, types.MatchSemantic)}
	b := []types.SearchResult{codeResult("c1", 0.6, types.MatchKeyword)}

	first := MergeResults(a, b)
	second := MergeResults(b, a)
	assert.Equal(t, first[0].Score, second[0].Score)
	assert.Equal(t, first[0].MatchType, second[0].MatchType)
}

func TestMergeIdempotent(t *testing.T) {
	merged := MergeResults(
		[]types.SearchResult{memoryResult("m1", 0.9, types.MatchSemantic), codeResult("c1", 0.7, types.MatchKeyword)},
	)

	again := MergeResults(merged)
	assert.Equal(t, merged, again)
}

func TestMergeDistinguishesLabels(t *testing.T) {
	// Same id under different labels stays two results.
	merged := MergeResults(
		[]types.SearchResult{memoryResult("x", 0.5, types.MatchKeyword)},
		[]types.SearchResult{codeResult("x", 0.5, types.MatchKeyword)},
	)
	assert.Len(t, merged, 2)
}

func TestMergeUnionsHighlightsAndRelationships(t *testing.T) {
	a := memoryResult("m1", 0.5, types.MatchKeyword)
	a.Highlights = []string{"alpha beta"}
	a.Relationships = []types.RelatedEntity{{ID: "c1", Relation: types.RelReferencesCode}}

	b := memoryResult("m1", 0.4, types.MatchKeyword)
	b.Highlights = []string{"gamma delta", "alpha beta"}
	b.Relationships = []types.RelatedEntity{{ID: "c1", Relation: types.RelReferencesCode}, {ID: "c2", Relation: types.RelDiscussedIn}}

	merged := MergeResults([]types.SearchResult{a}, []types.SearchResult{b})
	require.Len(t, merged, 1)
	assert.Len(t, merged[0].Highlights, 2)
	assert.Len(t, merged[0].Relationships, 2)
}

func TestRankBoostsCodeIntent(t *testing.T) {
	results := []types.SearchResult{
		memoryResult("m1", 0.7, types.MatchSemantic),
		codeResult("c1", 0.65, types.MatchKeyword),
	}

	ranked := RankResults(results, types.Interpretation{PrimaryIntent: types.IntentFindCode})
	// Code gets +0.1 for having a path: 0.75 beats 0.7.
	assert.Equal(t, "c1", ranked[0].Entity.RecordID())
}

func TestRankRelationshipBoostAndStability(t *testing.T) {
	withRel := memoryResult("m1", 0.6, types.MatchKeyword)
	withRel.Relationships = []types.RelatedEntity{{ID: "c1"}}
	without := memoryResult("m2", 0.6, types.MatchKeyword)

	ranked := RankResults([]types.SearchResult{without, withRel}, types.Interpretation{PrimaryIntent: types.IntentExplore})
	assert.Equal(t, "m1", ranked[0].Entity.RecordID())

	// Equal scores keep merge order.
	tied := RankResults([]types.SearchResult{
		memoryResult("a", 0.5, types.MatchKeyword),
		memoryResult("b", 0.5, types.MatchKeyword),
	}, types.Interpretation{PrimaryIntent: types.IntentExplore})
	assert.Equal(t, "a", tied[0].Entity.RecordID())
	assert.Equal(t, "b", tied[1].Entity.RecordID())
}

func TestApplyFiltersConjunctive(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	inRange := memoryResult("m1", 0.9, types.MatchSemantic)
	other := types.SearchResult{
		Entity: &types.MemoryRecord{ID: "m2", OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), ProjectName: "api"},
		Score:  0.8,
	}
	goCode := codeResult("c1", 0.7, types.MatchKeyword)

	filtered := ApplyFilters([]types.SearchResult{inRange, other, goCode}, types.SearchFilters{
		DateFrom: &from,
		DateTo:   &to,
	})
	require.Len(t, filtered, 1)
	assert.Equal(t, "m1", filtered[0].Entity.RecordID())

	byLanguage := ApplyFilters([]types.SearchResult{memoryResult("m3", 0.9, types.MatchSemantic), codeResult("c2", 0.6, types.MatchKeyword)}, types.SearchFilters{
		Languages: []string{"go"},
	})
	require.Len(t, byLanguage, 1)
	assert.Equal(t, "c2", byLanguage[0].Entity.RecordID())

	mustRelate := ApplyFilters([]types.SearchResult{memoryResult("m4", 0.9, types.MatchSemantic)}, types.SearchFilters{MustHaveRelation: true})
	assert.Empty(t, mustRelate)
}
