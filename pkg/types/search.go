package types

import (
	"time"
)

// StrategyName identifies one retrieval strategy.
type StrategyName string

const (
	StrategySemantic   StrategyName = "semantic"
	StrategyKeyword    StrategyName = "keyword"
	StrategyTemporal   StrategyName = "temporal"
	StrategyCodeLinked StrategyName = "code_linked"
	StrategyPattern    StrategyName = "pattern"
)

// MatchType records which kind of evidence produced a result.
type MatchType string

const (
	MatchSemantic     MatchType = "semantic"
	MatchKeyword      MatchType = "keyword"
	MatchRecency      MatchType = "recency"
	MatchRelationship MatchType = "relationship"
	MatchPattern      MatchType = "pattern"
)

// Intent is the classifier's primary-intent label.
type Intent string

const (
	IntentFindCode     Intent = "find_code"
	IntentFindMemory   Intent = "find_memory"
	IntentFindPattern  Intent = "find_pattern"
	IntentExplore      Intent = "explore"
	IntentRecent       Intent = "recent_activity"
)

// Timeframe is the classifier's coarse time sensitivity label.
type Timeframe string

const (
	TimeframeNone   Timeframe = "none"
	TimeframeRecent Timeframe = "recent"
	TimeframeRange  Timeframe = "range"
)

// Interpretation is the intent classifier's output: what the query seems to
// want and which strategies should run.
type Interpretation struct {
	PrimaryIntent Intent         `json:"primary_intent"`
	Timeframe     Timeframe      `json:"timeframe"`
	CodeRelevance float64        `json:"code_relevance"`
	Patterns      []string       `json:"patterns,omitempty"`
	Entities      []string       `json:"entities,omitempty"`
	Strategies    []StrategyName `json:"strategies"`
	Fallback      bool           `json:"fallback,omitempty"`
}

// SearchResult is the common output shape of every strategy.
type SearchResult struct {
	Entity        Record          `json:"entity"`
	Score         float64         `json:"score"`
	MatchType     MatchType       `json:"match_type"`
	Highlights    []string        `json:"highlights,omitempty"`
	Relationships []RelatedEntity `json:"relationships,omitempty"`
}

// SearchFilters are the caller-supplied conjunctive post-filters.
type SearchFilters struct {
	DateFrom         *time.Time `json:"date_from,omitempty"`
	DateTo           *time.Time `json:"date_to,omitempty"`
	Projects         []string   `json:"projects,omitempty"`
	Languages        []string   `json:"languages,omitempty"`
	MustHaveRelation bool       `json:"must_have_relationships,omitempty"`
}

// SearchOptions tune strategy behavior and response shaping.
type SearchOptions struct {
	IncludeMemories bool `json:"include_memories"`
	IncludeCode     bool `json:"include_code"`
	GroupBySession  bool `json:"group_by_session,omitempty"`
	GroupByProject  bool `json:"group_by_project,omitempty"`
}

// DefaultSearchOptions includes both entity kinds and no grouping.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{IncludeMemories: true, IncludeCode: true}
}

// Pagination is an opaque-cursor page request. Cursors encode a zero-based
// offset into the ranked-and-filtered array and are recomputable from the
// offset alone; concurrent writes between pages can shift results.
type Pagination struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// SearchRequest is the orchestrator's input.
type SearchRequest struct {
	Query      string        `json:"query"`
	Filters    SearchFilters `json:"filters,omitempty"`
	Options    SearchOptions `json:"options,omitempty"`
	Pagination Pagination    `json:"pagination,omitempty"`
}

// ResultItem is the unified display shape produced by the orchestrator.
type ResultItem struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"` // memory | code | pattern
	Title         string          `json:"title"`
	Snippet       string          `json:"snippet"`
	Score         float64         `json:"score"`
	MatchType     MatchType       `json:"match_type"`
	Project       string          `json:"project,omitempty"`
	Language      string          `json:"language,omitempty"`
	OccurredAt    *time.Time      `json:"occurred_at,omitempty"`
	ContentURL    string          `json:"content_url,omitempty"`
	Highlights    []string        `json:"highlights,omitempty"`
	Relationships []RelatedEntity `json:"relationships,omitempty"`
}

// FacetCount is one bucket in a facet.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are independent counts over the filtered result set.
type Facets struct {
	Projects  []FacetCount `json:"projects"`
	Languages []FacetCount `json:"languages"`
	Types     []FacetCount `json:"types"`
}

// SessionGroup clusters memory results that share a session id.
type SessionGroup struct {
	SessionID string       `json:"session_id"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Items     []ResultItem `json:"items"`
}

// ProjectGroup clusters code results by project.
type ProjectGroup struct {
	Project   string       `json:"project"`
	Languages []string     `json:"languages"`
	Items     []ResultItem `json:"items"`
}

// ResultGroups holds the optional groupings.
type ResultGroups struct {
	Sessions []SessionGroup `json:"sessions,omitempty"`
	Projects []ProjectGroup `json:"projects,omitempty"`
}

// PageInfo describes the returned page.
type PageInfo struct {
	Cursor     string `json:"cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	HasMore    bool   `json:"has_more"`
}

// SearchResponse is the orchestrator's output.
type SearchResponse struct {
	Interpretation Interpretation `json:"interpretation"`
	Results        []ResultItem   `json:"results"`
	Groups         *ResultGroups  `json:"groups,omitempty"`
	Facets         Facets         `json:"facets"`
	Pagination     PageInfo       `json:"pagination"`
}
