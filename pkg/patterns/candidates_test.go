package patterns

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/types"
)

var debugCat = categories[types.PatternDebugging]

func match(id, owner, project string, day int, sim float64) summaryMatch {
	return summaryMatch{
		SummaryID:  id,
		Owner:      owner,
		Project:    project,
		CreatedAt:  time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC),
		Similarity: sim,
	}
}

func TestBuildCandidatesGroupsByOwnerProjectBucket(t *testing.T) {
	matches := []summaryMatch{
		match("s1", "user:u1", "api", 3, 0.8),
		match("s2", "user:u1", "api", 3, 0.7),
		match("s3", "user:u1", "api", 4, 0.9), // different day bucket
		match("s4", "user:u2", "api", 3, 0.9), // different owner
	}

	candidates := buildCandidates(matches, debugCat, true)
	// Only the (u1, api, Mar 3) group reaches MinSupport=2.
	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, 2, c.Frequency)
	assert.Equal(t, "u1", c.Scope.UserID)
	assert.Equal(t, "2026-03-03", c.Scope.TimeBucket)
}

func TestBuildCandidatesConfidenceFormula(t *testing.T) {
	matches := []summaryMatch{
		match("s1", "user:u1", "api", 3, 0.8),
		match("s2", "user:u1", "api", 3, 0.7),
		match("s3", "user:u1", "api", 3, 0.9),
	}

	candidates := buildCandidates(matches, debugCat, true)
	require.Len(t, candidates, 1)
	// avg(0.8,0.7,0.9)=0.8, count/normalizer=3/5: 0.48.
	assert.InDelta(t, 0.48, candidates[0].Confidence, 1e-9)
}

func TestBuildCandidatesConfidenceCapped(t *testing.T) {
	var matches []summaryMatch
	for i := 0; i < 20; i++ {
		matches = append(matches, match(fmt.Sprintf("s%d", i), "user:u1", "api", 3, 1.0))
	}

	candidates := buildCandidates(matches, debugCat, false)
	require.Len(t, candidates, 1)
	assert.Equal(t, DefaultConfidenceCap, candidates[0].Confidence)
}

func TestBuildCandidatesSampleBound(t *testing.T) {
	var matches []summaryMatch
	for i := 0; i < 9; i++ {
		matches = append(matches, match(fmt.Sprintf("s%d", i), "user:u1", "api", 3, 0.7+float64(i)*0.01))
	}

	candidates := buildCandidates(matches, debugCat, true)
	require.Len(t, candidates, 1)
	assert.Equal(t, 9, candidates[0].Frequency)
	assert.Len(t, candidates[0].SampleIDs, types.MaxPatternSamples)
	// Strongest evidence kept.
	assert.Contains(t, candidates[0].SampleIDs, "s8")
}

func TestTimeBucketGranularity(t *testing.T) {
	ts := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-07", timeBucket(ts, bucketDay))
	assert.Equal(t, "2026-W02", timeBucket(ts, bucketWeek))
}

func TestScopeFromKeyOwnerForms(t *testing.T) {
	personal := scopeFromKey(groupKey{owner: "user:u1", project: "api", bucket: "b"})
	assert.Equal(t, "u1", personal.UserID)
	assert.Empty(t, personal.WorkspaceID)

	team := scopeFromKey(groupKey{owner: "team:t1", project: "api", bucket: "b"})
	assert.Equal(t, "team:t1", team.WorkspaceID)
	assert.Empty(t, team.UserID)
}

func TestMergeCandidatesPrefersSemanticWithEvidenceUnion(t *testing.T) {
	sc := types.PatternScope{UserID: "u1", Project: "api", TimeBucket: "2026-03-03"}
	semantic := []candidate{{
		Type: types.PatternDebugging, Name: "debugging_session", Scope: sc,
		Confidence: 0.6, Frequency: 3, SampleIDs: []string{"s1", "s2", "s3"}, semantic: true,
	}}
	keyword := []candidate{{
		Type: types.PatternDebugging, Name: "debugging_session", Scope: sc,
		Confidence: 0.8, Frequency: 5, SampleIDs: []string{"s2", "s4"},
	}}

	merged := mergeCandidates(semantic, keyword)
	require.Len(t, merged, 1)
	c := merged[0]
	// Semantic wins the slot and its confidence, but carries the union of
	// evidence: the keyword pass's larger frequency and missing sample.
	assert.True(t, c.semantic)
	assert.Equal(t, 0.6, c.Confidence)
	assert.Equal(t, 5, c.Frequency)
	assert.ElementsMatch(t, []string{"s1", "s2", "s3", "s4"}, c.SampleIDs)
}

func TestMergeCandidatesDisjointScopes(t *testing.T) {
	a := candidate{Type: types.PatternDebugging, Name: "debugging_session",
		Scope: types.PatternScope{UserID: "u1", Project: "api", TimeBucket: "d1"}, Frequency: 2}
	b := candidate{Type: types.PatternDebugging, Name: "debugging_session",
		Scope: types.PatternScope{UserID: "u1", Project: "api", TimeBucket: "d2"}, Frequency: 3}

	merged := mergeCandidates([]candidate{a}, []candidate{b})
	assert.Len(t, merged, 2)
}
