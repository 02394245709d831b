package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// fakeGraph records every executed query and returns canned rows. When
// failOn is set, queries containing it fail while the rest succeed.
type fakeGraph struct {
	queries []string
	params  []map[string]any
	rows    []map[string]any
	err     error
	failOn  string
}

func (f *fakeGraph) ExecuteQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, &types.UpstreamServiceError{Service: "neo4j", Err: errors.New("no such index")}
	}
	return f.rows, nil
}

func (f *fakeGraph) Close(ctx context.Context) error { return nil }

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func testQuery(t *testing.T, text string) *Query {
	t.Helper()
	filter, err := scope.Compile(scope.Context{UserID: "u1"})
	require.NoError(t, err)
	return &Query{
		Text:    text,
		Terms:   QueryTerms(text),
		Scope:   scope.Context{UserID: "u1"},
		Filter:  filter,
		Options: types.DefaultSearchOptions(),
	}
}

func memoryRow(id, content string) map[string]any {
	return map[string]any{
		"entity": driver.Node{
			Labels: []string{types.LabelMemory},
			Props: map[string]any{
				"id":           id,
				"content":      content,
				"user_id":      "u1",
				"occurred_at":  time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
				"project_name": "api",
			},
		},
	}
}

func TestKeywordStrategyAppliesOwnershipFilterToEveryAlias(t *testing.T) {
	graph := &fakeGraph{rows: []map[string]any{memoryRow("m1", "session store bug")}}
	strategy := NewKeywordStrategy(graph)

	results, err := strategy.Execute(context.Background(), testQuery(t, "session store"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.MatchKeyword, results[0].MatchType)

	query := graph.queries[0]
	// Both the matched entity and the enrichment hop carry the filter.
	assert.Contains(t, query, "entity.workspace_id = $scope_personal_ws")
	assert.Contains(t, query, "related.workspace_id = $scope_personal_ws")
	assert.Equal(t, "user:u1", graph.params[0]["scope_personal_ws"])
}

func TestKeywordStrategyScoreTiers(t *testing.T) {
	code := &types.CodeRecord{Path: "pkg/auth/session.go", Name: "SessionStore", Content: "func new"}
	assert.Equal(t, keywordPathScore, keywordScore(code, []string{"session"}))

	named := &types.CodeRecord{Name: "sessionstore", Content: "session"}
	assert.Equal(t, keywordNameScore, keywordScore(named, []string{"session"}))

	memory := &types.MemoryRecord{Content: "about the session"}
	assert.Equal(t, keywordContentScore, keywordScore(memory, []string{"session"}))
}

func TestKeywordStrategyNoTerms(t *testing.T) {
	graph := &fakeGraph{}
	strategy := NewKeywordStrategy(graph)

	results, err := strategy.Execute(context.Background(), testQuery(t, "a is of"))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, graph.queries)
}

func TestSimilarityStrategyVectorPath(t *testing.T) {
	graph := &fakeGraph{rows: []map[string]any{
		func() map[string]any {
			row := memoryRow("m1", "debugging the session store")
			row["score"] = 0.91
			return row
		}(),
	}}
	strategy := NewSimilarityStrategy(graph, &fakeEmbedder{vector: []float32{0.1, 0.2}}, nil)

	results, err := strategy.Execute(context.Background(), testQuery(t, "session debugging"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.91, results[0].Score)
	assert.Equal(t, types.MatchSemantic, results[0].MatchType)

	query := graph.queries[0]
	assert.Contains(t, query, "db.index.vector.queryNodes")
	assert.Contains(t, query, "s.workspace_id = $scope_personal_ws")
	assert.Contains(t, query, "entity.workspace_id = $scope_personal_ws")
	assert.Equal(t, SimilarityFloor, graph.params[0]["min_score"])
}

func TestSimilarityStrategyDegradesOnEmbeddingFailure(t *testing.T) {
	graph := &fakeGraph{rows: []map[string]any{memoryRow("m1", "session store")}}
	strategy := NewSimilarityStrategy(graph, &fakeEmbedder{err: &types.UpstreamServiceError{Service: "embedding", Err: errors.New("down")}}, nil)

	results, err := strategy.Execute(context.Background(), testQuery(t, "session store"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	// Same shape, semantic match type, regex query instead of vector call.
	assert.Equal(t, types.MatchSemantic, results[0].MatchType)
	assert.NotContains(t, graph.queries[0], "db.index.vector.queryNodes")
	assert.Contains(t, graph.queries[0], "=~ $pattern")
}

func TestSimilarityStrategyDegradesOnIndexFailureWithClientScoring(t *testing.T) {
	row := memoryRow("m1", "session store")
	row["entity"].(driver.Node).Props["embedding"] = []any{0.6, 0.8}
	graph := &fakeGraph{rows: []map[string]any{row}, failOn: "db.index.vector"}
	strategy := NewSimilarityStrategy(graph, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	results, err := strategy.Execute(context.Background(), testQuery(t, "session store"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Index call failed but the query vector exists: the regex match is
	// scored against the stored embedding instead of the flat tier.
	require.Len(t, graph.queries, 2)
	assert.Contains(t, graph.queries[1], "=~ $pattern")
	assert.InDelta(t, 0.6, results[0].Score, 1e-9)
}

func TestTemporalStrategyScansBothKindsAndScoresByRecency(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	graph := &fakeGraph{rows: []map[string]any{memoryRow("m1", "standup notes")}}
	strategy := NewTemporalStrategy(graph)
	strategy.now = func() time.Time { return now }

	results, err := strategy.Execute(context.Background(), testQuery(t, "what happened last week"))
	require.NoError(t, err)
	// Both entity kinds scanned: two queries issued.
	require.Len(t, graph.queries, 2)
	assert.Contains(t, graph.queries[0], "occurred_at >= $cutoff")
	assert.Contains(t, graph.queries[1], "created_at >= $cutoff")

	// m1 occurred 4h before now: score 1/(1+4*0.01).
	require.NotEmpty(t, results)
	assert.InDelta(t, 1.0/1.04, results[0].Score, 1e-9)
}

func TestRelationshipStrategyPrimarySide(t *testing.T) {
	row := map[string]any{
		"memory": driver.Node{Labels: []string{types.LabelMemory}, Props: map[string]any{
			"id": "m1", "content": "we changed the auth handler", "user_id": "u1"}},
		"code": driver.Node{Labels: []string{types.LabelCode}, Props: map[string]any{
			"id": "c1", "path": "pkg/auth/handler.go", "user_id": "u1"}},
		"link_type": types.RelReferencesCode,
	}
	graph := &fakeGraph{rows: []map[string]any{row}}
	strategy := NewRelationshipStrategy(graph)

	q := testQuery(t, "auth handler")
	results, err := strategy.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Entity.RecordID())
	require.Len(t, results[0].Relationships, 1)
	assert.Equal(t, "c1", results[0].Relationships[0].ID)

	// Code-only request flips the primary side.
	q.Options = types.SearchOptions{IncludeCode: true}
	results, err = strategy.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "c1", results[0].Entity.RecordID())

	// Both pair sides carry the ownership filter.
	assert.Contains(t, graph.queries[0], "memory.workspace_id = $scope_personal_ws")
	assert.Contains(t, graph.queries[0], "code.workspace_id = $scope_personal_ws")
}

func TestPatternStrategyDetection(t *testing.T) {
	detected := DetectPatternTypes("show my debugging sessions")
	assert.Contains(t, detected, types.PatternDebugging)

	all := DetectPatternTypes("any recurring patterns?")
	assert.Len(t, all, 4)

	assert.Nil(t, DetectPatternTypes("the parser grammar"))
}

func TestPatternStrategyScoresByConfidence(t *testing.T) {
	row := map[string]any{
		"pattern": driver.Node{Labels: []string{types.LabelPattern}, Props: map[string]any{
			"id": "p1", "pattern_type": "debugging", "pattern_name": "debugging_session",
			"confidence": 0.85, "frequency": int64(4)}},
		"entities": []any{driver.Node{Labels: []string{types.LabelMemory}, Props: map[string]any{
			"id": "m1", "content": "traced the crash", "user_id": "u1"}}},
	}
	graph := &fakeGraph{rows: []map[string]any{row}}
	strategy := NewPatternStrategy(graph)

	results, err := strategy.Execute(context.Background(), testQuery(t, "debugging sessions"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Entity.RecordID())
	assert.Equal(t, 0.85, results[0].Score)
	assert.Equal(t, types.MatchPattern, results[0].MatchType)

	assert.Equal(t, PatternConfidenceFloor, graph.params[0]["min_confidence"])
	assert.True(t, strings.Contains(graph.queries[0], "pattern.workspace_id"))
}
