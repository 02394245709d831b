package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// patternQueryVocabulary maps query vocabulary to mined pattern types.
var patternQueryVocabulary = map[types.PatternType][]string{
	types.PatternDebugging:      {"debug", "debugging", "error", "bug", "troubleshoot", "crash"},
	types.PatternLearning:       {"learn", "learning", "study", "tutorial", "documentation", "review"},
	types.PatternRefactoring:    {"refactor", "refactoring", "cleanup", "restructure"},
	types.PatternProblemSolving: {"solve", "solving", "solution", "problem", "figured"},
}

var genericPatternWords = []string{"pattern", "session", "habit", "recurring"}

// DetectPatternTypes derives the pattern categories a query asks about. A
// query that merely says "pattern" or "session" without naming a category
// searches all categories.
func DetectPatternTypes(text string) []types.PatternType {
	lower := strings.ToLower(text)

	var detected []types.PatternType
	for patternType, words := range patternQueryVocabulary {
		for _, word := range words {
			if strings.Contains(lower, word) {
				detected = append(detected, patternType)
				break
			}
		}
	}
	if len(detected) > 0 {
		return detected
	}

	for _, word := range genericPatternWords {
		if strings.Contains(lower, word) {
			return []types.PatternType{
				types.PatternDebugging,
				types.PatternLearning,
				types.PatternRefactoring,
				types.PatternProblemSolving,
			}
		}
	}
	return nil
}

// PatternStrategy returns entities backing mined Pattern nodes of the
// requested categories, scored by the pattern's confidence.
type PatternStrategy struct {
	driver driver.GraphDriver
}

func NewPatternStrategy(d driver.GraphDriver) *PatternStrategy {
	return &PatternStrategy{driver: d}
}

func (s *PatternStrategy) Name() types.StrategyName { return types.StrategyPattern }

func (s *PatternStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	patternTypes := DetectPatternTypes(q.Text)
	if len(patternTypes) == 0 {
		return nil, nil
	}
	typeStrings := make([]string, len(patternTypes))
	for i, pt := range patternTypes {
		typeStrings[i] = string(pt)
	}

	query := fmt.Sprintf(`
		MATCH (pattern:%s)
		WHERE pattern.pattern_type IN $pattern_types
		  AND pattern.confidence >= $min_confidence
		  AND %s
		OPTIONAL MATCH (pattern)-[:%s]->(entity)
		WHERE %s AND %s
		RETURN pattern, collect(DISTINCT entity)[0..$max_entities] AS entities
		ORDER BY pattern.confidence DESC
		LIMIT $limit`,
		types.LabelPattern,
		q.Filter.Render("pattern"),
		types.RelDerivedFrom,
		q.Filter.Render("entity"),
		entityKindClause("entity", q.Options),
	)

	params := q.Filter.Params()
	params["pattern_types"] = typeStrings
	params["min_confidence"] = PatternConfidenceFloor
	params["max_entities"] = strategyFetchLimit
	params["limit"] = strategyFetchLimit

	rows, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, row := range rows {
		patternNode, ok := row["pattern"].(driver.Node)
		if !ok {
			continue
		}
		pattern := driver.DecodePattern(patternNode.Props)

		entities, _ := row["entities"].([]any)
		if len(entities) == 0 {
			// No derived entities in scope: the pattern itself is the
			// result.
			results = append(results, types.SearchResult{
				Entity:    pattern,
				Score:     clampScore(pattern.Confidence),
				MatchType: types.MatchPattern,
			})
			continue
		}
		for _, item := range entities {
			node, ok := item.(driver.Node)
			if !ok {
				continue
			}
			record, err := driver.RecordFromNode(node)
			if err != nil {
				continue
			}
			results = append(results, types.SearchResult{
				Entity:    record,
				Score:     clampScore(pattern.Confidence),
				MatchType: types.MatchPattern,
				Relationships: []types.RelatedEntity{{
					ID:       pattern.ID,
					Kind:     types.KindPattern,
					Relation: types.RelDerivedFrom,
					Title:    pattern.Name,
				}},
			})
		}
	}
	return results, nil
}

var _ Strategy = (*PatternStrategy)(nil)
