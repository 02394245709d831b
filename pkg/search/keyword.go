package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// Keyword score tiers: a path match outranks a name match outranks a
// content match.
const (
	keywordPathScore    = 0.8
	keywordNameScore    = 0.7
	keywordContentScore = 0.6
)

// KeywordStrategy matches query terms against content, path, and name with
// a case-insensitive regex. It is the guaranteed-recall fallback appended
// to every strategy set.
type KeywordStrategy struct {
	driver driver.GraphDriver
}

func NewKeywordStrategy(d driver.GraphDriver) *KeywordStrategy {
	return &KeywordStrategy{driver: d}
}

func (s *KeywordStrategy) Name() types.StrategyName { return types.StrategyKeyword }

func (s *KeywordStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	pattern := termsRegex(q.Terms)
	if pattern == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		MATCH (entity)
		WHERE %s AND %s
		  AND (entity.content =~ $pattern OR entity.path =~ $pattern OR entity.name =~ $pattern)
		%s
		RETURN entity, collect(DISTINCT {rel: type(enrich_rel), node: related})[0..$max_related] AS related
		LIMIT $limit`,
		entityKindClause("entity", q.Options),
		q.Filter.Render("entity"),
		enrichmentClause("entity", "related", q.Filter),
	)

	params := q.Filter.Params()
	params["pattern"] = pattern
	params["limit"] = strategyFetchLimit
	params["max_related"] = MaxRelatedEntities

	rows, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		node, ok := row["entity"].(driver.Node)
		if !ok {
			continue
		}
		record, err := driver.RecordFromNode(node)
		if err != nil {
			continue
		}
		results = append(results, types.SearchResult{
			Entity:        record,
			Score:         keywordScore(record, q.Terms),
			MatchType:     types.MatchKeyword,
			Highlights:    DedupeHighlights(snippetHighlights(record, q.Terms)),
			Relationships: decodeRelated(row["related"]),
		})
	}
	return results, nil
}

// keywordScore assigns the fixed tier for the strongest matching field.
func keywordScore(record types.Record, terms []string) float64 {
	var path, name, content string
	switch r := record.(type) {
	case *types.CodeRecord:
		path, name, content = r.Path, r.Name, r.Content
	case *types.MemoryRecord:
		content = r.Content
	}

	if fieldMatches(path, terms) {
		return keywordPathScore
	}
	if fieldMatches(name, terms) {
		return keywordNameScore
	}
	if fieldMatches(content, terms) {
		return keywordContentScore
	}
	return keywordContentScore
}

func fieldMatches(field string, terms []string) bool {
	if field == "" {
		return false
	}
	lower := strings.ToLower(field)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var _ Strategy = (*KeywordStrategy)(nil)
