package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/intent"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// stubStrategy returns canned results under a chosen strategy name.
type stubStrategy struct {
	name    types.StrategyName
	results []types.SearchResult
	err     error
}

func (s *stubStrategy) Name() types.StrategyName { return s.name }

func (s *stubStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func newTestOrchestrator(strategies ...Strategy) *Orchestrator {
	classifier := intent.NewClassifier(nil, nil)
	return NewOrchestrator(classifier, strategies, nil)
}

func TestSearchRequiresIdentity(t *testing.T) {
	o := newTestOrchestrator(&stubStrategy{name: types.StrategySemantic})

	_, err := o.Search(context.Background(), types.SearchRequest{Query: "debug"}, scope.Context{})
	require.Error(t, err)
	assert.True(t, types.IsConfiguration(err))
}

func TestSearchMergesAcrossStrategies(t *testing.T) {
	semantic := &stubStrategy{name: types.StrategySemantic, results: []types.SearchResult{
		codeResult("c1", 0.82, types.MatchSemantic),
	}}
	keyword := &stubStrategy{name: types.StrategyKeyword, results: []types.SearchResult{
		codeResult("c1", 0.6, types.MatchKeyword),
		memoryResult("m1", 0.55, types.MatchKeyword),
	}}
	o := newTestOrchestrator(semantic, keyword)

	resp, err := o.Search(context.Background(), types.SearchRequest{Query: "session store"}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	// c1 merged to max score with semantic match type.
	assert.Equal(t, "c1", resp.Results[0].ID)
	assert.Equal(t, types.MatchSemantic, resp.Results[0].MatchType)
	assert.InDelta(t, 0.82, resp.Results[0].Score, 1e-9)
}

func TestSearchStrategyFailureIsolation(t *testing.T) {
	failing := &stubStrategy{name: types.StrategySemantic, err: errors.New("vector index offline")}
	keyword := &stubStrategy{name: types.StrategyKeyword, results: []types.SearchResult{
		memoryResult("m1", 0.55, types.MatchKeyword),
	}}
	o := newTestOrchestrator(failing, keyword)

	resp, err := o.Search(context.Background(), types.SearchRequest{Query: "session"}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "m1", resp.Results[0].ID)
}

func TestSearchEmptyIsWellFormed(t *testing.T) {
	o := newTestOrchestrator(&stubStrategy{name: types.StrategySemantic}, &stubStrategy{name: types.StrategyKeyword})

	resp, err := o.Search(context.Background(), types.SearchRequest{Query: "nothing matches this"}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Facets.Projects)
	assert.Empty(t, resp.Facets.Types)
	assert.Equal(t, 0, resp.Pagination.Total)
}

func TestSearchFacetsOverFilteredSet(t *testing.T) {
	keyword := &stubStrategy{name: types.StrategyKeyword, results: []types.SearchResult{
		codeResult("c1", 0.7, types.MatchKeyword),
		codeResult("c2", 0.6, types.MatchKeyword),
		memoryResult("m1", 0.5, types.MatchKeyword),
	}}
	o := newTestOrchestrator(keyword)

	resp, err := o.Search(context.Background(), types.SearchRequest{Query: "store"}, scope.Context{UserID: "u1"})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Facets.Types)
	assert.Equal(t, types.FacetCount{Value: "code", Count: 2}, resp.Facets.Types[0])
	assert.Equal(t, types.FacetCount{Value: "go", Count: 2}, resp.Facets.Languages[0])
}

func TestSearchPaginationAcrossPipeline(t *testing.T) {
	var results []types.SearchResult
	for i := 0; i < 7; i++ {
		results = append(results, memoryResult(string(rune('a'+i)), 0.9-float64(i)*0.05, types.MatchKeyword))
	}
	o := newTestOrchestrator(&stubStrategy{name: types.StrategyKeyword, results: results})

	first, err := o.Search(context.Background(), types.SearchRequest{
		Query:      "anything",
		Pagination: types.Pagination{Limit: 3},
	}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, first.Results, 3)
	require.True(t, first.Pagination.HasMore)

	second, err := o.Search(context.Background(), types.SearchRequest{
		Query:      "anything",
		Pagination: types.Pagination{Limit: 3, Cursor: first.Pagination.NextCursor},
	}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, second.Results, 3)
	assert.NotEqual(t, first.Results[0].ID, second.Results[0].ID)
}

func TestSearchGroupsBySession(t *testing.T) {
	early := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC)
	keyword := &stubStrategy{name: types.StrategyKeyword, results: []types.SearchResult{
		{Entity: &types.MemoryRecord{ID: "m1", SessionID: "s1", OccurredAt: late, Content: "x"}, Score: 0.9, MatchType: types.MatchKeyword},
		{Entity: &types.MemoryRecord{ID: "m2", SessionID: "s1", OccurredAt: early, Content: "y"}, Score: 0.8, MatchType: types.MatchKeyword},
	}}
	o := newTestOrchestrator(keyword)

	resp, err := o.Search(context.Background(), types.SearchRequest{
		Query:   "anything",
		Options: types.SearchOptions{IncludeMemories: true, IncludeCode: true, GroupBySession: true},
	}, scope.Context{UserID: "u1"})
	require.NoError(t, err)

	require.NotNil(t, resp.Groups)
	require.Len(t, resp.Groups.Sessions, 1)
	group := resp.Groups.Sessions[0]
	assert.Equal(t, "s1", group.SessionID)
	assert.Equal(t, early, group.Start)
	assert.Equal(t, late, group.End)
	assert.Len(t, group.Items, 2)
}

func TestSearchTenantScenario(t *testing.T) {
	// A strategy backed by the fake graph sees only what its Cypher filter
	// admits; here we assert the orchestrator hands strategies a filter for
	// the caller and rejects an identity-free context outright. The
	// per-query filter application is covered in strategies_test.go.
	captured := &capturingStrategy{name: types.StrategyKeyword}
	o := newTestOrchestrator(captured)

	_, err := o.Search(context.Background(), types.SearchRequest{Query: "debug"}, scope.Context{UserID: "u1"})
	require.NoError(t, err)
	require.NotNil(t, captured.query)

	clause := captured.query.Filter.Render("n")
	assert.Contains(t, clause, "n.workspace_id = $scope_personal_ws")
	params := captured.query.Filter.Params()
	assert.Equal(t, "user:u1", params["scope_personal_ws"])
	// The filter for u1 can never admit another user's personal workspace.
	assert.NotContains(t, params, "user:u2")
}

type capturingStrategy struct {
	name  types.StrategyName
	query *Query
}

func (c *capturingStrategy) Name() types.StrategyName { return c.name }

func (c *capturingStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	c.query = q
	return nil, nil
}
