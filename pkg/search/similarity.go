package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/embedder"
	"github.com/mnemograph/mnemograph/pkg/types"
	"github.com/mnemograph/mnemograph/pkg/utils"
)

// SimilarityStrategy searches summary embeddings through the graph's vector
// index and traverses SUMMARIZES to the underlying entity. When the
// embedding service is down it degrades to a case-insensitive regex scan
// over content and path, returning the same result shape.
type SimilarityStrategy struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	logger   *slog.Logger
}

func NewSimilarityStrategy(d driver.GraphDriver, e embedder.Client, logger *slog.Logger) *SimilarityStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimilarityStrategy{driver: d, embedder: e, logger: logger}
}

func (s *SimilarityStrategy) Name() types.StrategyName { return types.StrategySemantic }

func (s *SimilarityStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	vector, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		s.logger.Warn("embedding unavailable, degrading to regex match", "error", err)
		return s.regexFallback(ctx, q, nil)
	}
	results, err := s.vectorSearch(ctx, q, vector)
	if err != nil {
		s.logger.Warn("vector index unavailable, degrading to regex match", "error", err)
		return s.regexFallback(ctx, q, vector)
	}
	return results, nil
}

func (s *SimilarityStrategy) vectorSearch(ctx context.Context, q *Query, vector []float32) ([]types.SearchResult, error) {
	query := fmt.Sprintf(`
		CALL db.index.vector.queryNodes($index_name, $k, $embedding)
		YIELD node AS s, score
		WHERE score >= $min_score AND %s
		MATCH (s)-[:%s]->(entity)
		WHERE %s AND %s
		%s
		RETURN entity, score, collect(DISTINCT {rel: type(enrich_rel), node: related})[0..$max_related] AS related`,
		q.Filter.Render("s"),
		types.RelSummarizes,
		q.Filter.Render("entity"),
		entityKindClause("entity", q.Options),
		enrichmentClause("entity", "related", q.Filter),
	)

	params := q.Filter.Params()
	params["index_name"] = driver.SummaryVectorIndex
	params["k"] = strategyFetchLimit
	params["embedding"] = vector
	params["min_score"] = SimilarityFloor
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
			Score:         clampScore(driver.FloatProp(row, "score")),
			MatchType:     types.MatchSemantic,
			Highlights:    DedupeHighlights(snippetHighlights(record, q.Terms)),
			Relationships: decodeRelated(row["related"]),
		})
	}
	return results, nil
}

// regexFallback keeps the semantic strategy contributing when the vector
// path is unavailable. With a query vector in hand (index failure, embedder
// fine) matches with stored embeddings are scored client-side; otherwise
// scores are a flat tier below any real similarity hit.
func (s *SimilarityStrategy) regexFallback(ctx context.Context, q *Query, queryVec []float32) ([]types.SearchResult, error) {
	pattern := termsRegex(q.Terms)
	if pattern == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		MATCH (entity)
		WHERE %s AND %s
		  AND (entity.content =~ $pattern OR entity.path =~ $pattern)
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
		score := 0.5
		if sim := utils.CosineSimilarity(queryVec, recordEmbedding(record)); sim > 0 {
			score = clampScore(sim)
		}
		results = append(results, types.SearchResult{
			Entity:        record,
			Score:         score,
			MatchType:     types.MatchSemantic,
			Highlights:    DedupeHighlights(snippetHighlights(record, q.Terms)),
			Relationships: decodeRelated(row["related"]),
		})
	}
	return results, nil
}

func recordEmbedding(record types.Record) []float32 {
	switch r := record.(type) {
	case *types.MemoryRecord:
		return r.Embedding
	case *types.CodeRecord:
		return r.Embedding
	case *types.SummaryRecord:
		return r.Embedding
	default:
		return nil
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

var _ Strategy = (*SimilarityStrategy)(nil)
