package patterns

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// detectSemantic is the seed-and-expand pass: take a few recent summaries
// already flagged with the category signal, expand each by embedding
// similarity within the look-back window, and group the matches.
func (e *Engine) detectSemantic(ctx context.Context, cat category, filter *scope.Filter) ([]candidate, error) {
	seeds, err := e.fetchSeeds(ctx, cat, filter)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}
	if err := e.backfillEmbeddings(ctx, seeds); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var matches []summaryMatch
	for _, seed := range seeds {
		if len(seed.Embedding) == 0 {
			continue
		}
		expanded, err := e.expandSeed(ctx, seed, filter)
		if err != nil {
			return nil, err
		}
		// A seed supports its own cluster.
		expanded = append(expanded, summaryMatch{
			SummaryID:  seed.ID,
			Owner:      ownerOf(seed.Ownership),
			Project:    seed.ProjectName,
			CreatedAt:  seed.CreatedAt,
			Similarity: 1.0,
		})
		for _, match := range expanded {
			if !seen[match.SummaryID] {
				seen[match.SummaryID] = true
				matches = append(matches, match)
			}
		}
	}

	return buildCandidates(matches, cat, true), nil
}

// backfillEmbeddings embeds, in one batch, the seed summaries that have no
// stored vector yet. Freshly ingested summaries join clustering without
// waiting for the embedding backfill job.
func (e *Engine) backfillEmbeddings(ctx context.Context, seeds []*types.SummaryRecord) error {
	var missing []*types.SummaryRecord
	var texts []string
	for _, seed := range seeds {
		if len(seed.Embedding) == 0 && seed.Summary != "" {
			missing = append(missing, seed)
			texts = append(texts, seed.Summary)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	vectors, err := e.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embedder returned %d vectors for %d summaries", len(vectors), len(missing))
	}
	for i, seed := range missing {
		seed.Embedding = vectors[i]
	}
	return nil
}

func (e *Engine) fetchSeeds(ctx context.Context, cat category, filter *scope.Filter) ([]*types.SummaryRecord, error) {
	query := fmt.Sprintf(`
		MATCH (s:%s)
		WHERE s.%s = true AND s.created_at >= $since AND %s
		RETURN s
		ORDER BY s.created_at DESC
		LIMIT $limit`,
		types.LabelSummary, cat.Signal, filter.Render("s"))

	params := filter.Params()
	params["since"] = e.now().Add(-e.config.Lookback)
	params["limit"] = e.config.SeedLimit

	rows, err := e.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	seeds := make([]*types.SummaryRecord, 0, len(rows))
	for _, row := range rows {
		node, ok := row["s"].(driver.Node)
		if !ok {
			continue
		}
		seeds = append(seeds, driver.DecodeSummary(node.Props))
	}
	return seeds, nil
}

// expandSeed finds summaries similar to the seed within the same tenancy
// scope and look-back window.
func (e *Engine) expandSeed(ctx context.Context, seed *types.SummaryRecord, filter *scope.Filter) ([]summaryMatch, error) {
	query := fmt.Sprintf(`
		MATCH (other:%s)
		WHERE other.id <> $seed_id AND other.embedding IS NOT NULL
		  AND other.created_at >= $since AND %s
		WITH other, vector.similarity.cosine(other.embedding, $seed_embedding) AS sim
		WHERE sim >= $floor
		RETURN other, sim
		ORDER BY sim DESC
		LIMIT $limit`,
		types.LabelSummary, filter.Render("other"))

	params := filter.Params()
	params["seed_id"] = seed.ID
	params["seed_embedding"] = seed.Embedding
	params["since"] = e.now().Add(-e.config.Lookback)
	params["floor"] = e.config.SimilarityFloor
	params["limit"] = e.config.ExpandLimit

	rows, err := e.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	matches := make([]summaryMatch, 0, len(rows))
	for _, row := range rows {
		node, ok := row["other"].(driver.Node)
		if !ok {
			continue
		}
		summary := driver.DecodeSummary(node.Props)
		matches = append(matches, summaryMatch{
			SummaryID:  summary.ID,
			Owner:      ownerOf(summary.Ownership),
			Project:    summary.ProjectName,
			CreatedAt:  summary.CreatedAt,
			Similarity: driver.FloatProp(row, "sim"),
		})
	}
	return matches, nil
}

// detectKeyword is the embedding-free pass: group summaries on the
// precomputed boolean signal alone. Similarity contributes 1.0 per member,
// so confidence reduces to group fullness against the normalizer.
func (e *Engine) detectKeyword(ctx context.Context, cat category, filter *scope.Filter) ([]candidate, error) {
	query := fmt.Sprintf(`
		MATCH (s:%s)
		WHERE s.%s = true AND s.created_at >= $since AND %s
		RETURN s
		ORDER BY s.created_at DESC
		LIMIT $limit`,
		types.LabelSummary, cat.Signal, filter.Render("s"))

	params := filter.Params()
	params["since"] = e.now().Add(-e.config.Lookback)
	params["limit"] = e.config.ExpandLimit * 2

	rows, err := e.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	matches := make([]summaryMatch, 0, len(rows))
	for _, row := range rows {
		node, ok := row["s"].(driver.Node)
		if !ok {
			continue
		}
		summary := driver.DecodeSummary(node.Props)
		matches = append(matches, summaryMatch{
			SummaryID:  summary.ID,
			Owner:      ownerOf(summary.Ownership),
			Project:    summary.ProjectName,
			CreatedAt:  summary.CreatedAt,
			Similarity: 1.0,
		})
	}
	return buildCandidates(matches, cat, false), nil
}

func ownerOf(o types.Ownership) string {
	if o.WorkspaceID != "" {
		return o.WorkspaceID
	}
	return "user:" + o.UserID
}
