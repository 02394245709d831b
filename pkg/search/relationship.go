package search

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/types"
)

const relationshipScore = 0.75

// RelationshipStrategy finds memory<->code pairs already linked by
// REFERENCES_CODE or DISCUSSED_IN whose content matches the query. Which
// side of the pair becomes the primary result depends on the requested
// entity kinds.
type RelationshipStrategy struct {
	driver driver.GraphDriver
}

func NewRelationshipStrategy(d driver.GraphDriver) *RelationshipStrategy {
	return &RelationshipStrategy{driver: d}
}

func (s *RelationshipStrategy) Name() types.StrategyName { return types.StrategyCodeLinked }

func (s *RelationshipStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	pattern := termsRegex(q.Terms)
	if pattern == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		MATCH (memory:%s)-[link:%s|%s]-(code:%s)
		WHERE %s AND %s
		  AND (memory.content =~ $pattern OR code.content =~ $pattern OR code.path =~ $pattern)
		RETURN memory, code, type(link) AS link_type
		LIMIT $limit`,
		types.LabelMemory, types.RelReferencesCode, types.RelDiscussedIn, types.LabelCode,
		q.Filter.Render("memory"),
		q.Filter.Render("code"),
	)

	params := q.Filter.Params()
	params["pattern"] = pattern
	params["limit"] = strategyFetchLimit

	rows, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	// When both kinds are requested, memories lead and the code side rides
	// along as a relationship; code-only requests flip that.
	codePrimary := q.Options.IncludeCode && !q.Options.IncludeMemories

	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		memoryNode, okM := row["memory"].(driver.Node)
		codeNode, okC := row["code"].(driver.Node)
		if !okM || !okC {
			continue
		}
		memory, errM := driver.RecordFromNode(memoryNode)
		code, errC := driver.RecordFromNode(codeNode)
		if errM != nil || errC != nil {
			continue
		}
		linkType := driver.StringProp(row, "link_type")

		primary, secondary := memory, code
		if codePrimary {
			primary, secondary = code, memory
		}

		results = append(results, types.SearchResult{
			Entity:    primary,
			Score:     relationshipScore,
			MatchType: types.MatchRelationship,
			Highlights: DedupeHighlights(append(
				snippetHighlights(memory, q.Terms),
				snippetHighlights(code, q.Terms)...)),
			Relationships: []types.RelatedEntity{{
				ID:       secondary.RecordID(),
				Kind:     secondary.Kind(),
				Relation: linkType,
				Title:    relatedTitle(secondary),
			}},
		})
	}
	return results, nil
}

var _ Strategy = (*RelationshipStrategy)(nil)
