package patterns

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// storeCandidates upserts candidates in small batches, pacing the batches
// to bound write pressure on the shared graph.
func (e *Engine) storeCandidates(ctx context.Context, candidates []candidate, filter *scope.Filter) ([]*types.PatternRecord, error) {
	var stored []*types.PatternRecord
	batchSize := e.config.StoreBatchSize

	for start := 0; start < len(candidates); start += batchSize {
		if start > 0 {
			if err := e.limiter.Wait(ctx); err != nil {
				return stored, err
			}
		}
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, c := range candidates[start:end] {
			pattern, err := e.upsertPattern(ctx, c)
			if err != nil {
				return stored, err
			}
			if err := e.materialize(ctx, pattern, filter); err != nil {
				e.logger.Warn("pattern relationship materialization failed",
					"pattern", pattern.ID, "error", err)
			}
			stored = append(stored, pattern)
		}
	}
	return stored, nil
}

// upsertPattern merges a candidate into the graph keyed on
// (pattern_type, pattern_name, scope_id). First sighting sets all fields;
// repeat sightings keep frequency and confidence monotone (max-combined),
// so re-running detection over an unchanged graph converges instead of
// inflating counts.
func (e *Engine) upsertPattern(ctx context.Context, c candidate) (*types.PatternRecord, error) {
	now := e.now()
	query := fmt.Sprintf(`
		MERGE (p:%s {pattern_type: $pattern_type, pattern_name: $pattern_name, scope_id: $scope_id})
		ON CREATE SET
			p.id = $id,
			p.confidence = $confidence,
			p.frequency = $frequency,
			p.user_id = $user_id,
			p.workspace_id = $workspace_id,
			p.project = $project,
			p.time_bucket = $time_bucket,
			p.sample_ids = $sample_ids,
			p.created_at = $now,
			p.last_validated = $now
		ON MATCH SET
			p.frequency = CASE WHEN $frequency > p.frequency THEN $frequency ELSE p.frequency END,
			p.confidence = CASE WHEN $confidence > p.confidence THEN $confidence ELSE p.confidence END,
			p.sample_ids = $sample_ids,
			p.last_validated = $now
		RETURN p`,
		types.LabelPattern)

	// Personal-scope patterns carry the canonical personal workspace id so
	// the ownership filter matches them; an empty string would satisfy
	// neither the workspace equality nor the null-workspace disjunct.
	workspaceID := c.Scope.WorkspaceID
	if workspaceID == "" && c.Scope.UserID != "" {
		workspaceID = scope.PersonalWorkspace(c.Scope.UserID)
	}

	params := map[string]any{
		"pattern_type": string(c.Type),
		"pattern_name": c.Name,
		"scope_id":     c.Scope.ID(),
		"id":           uuid.NewString(),
		"confidence":   c.Confidence,
		"frequency":    c.Frequency,
		"user_id":      c.Scope.UserID,
		"workspace_id": workspaceID,
		"project":      c.Scope.Project,
		"time_bucket":  c.Scope.TimeBucket,
		"sample_ids":   c.SampleIDs,
		"now":          now,
	}

	rows, err := e.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("pattern upsert returned no row for scope %s", c.Scope.ID())
	}
	node, ok := rows[0]["p"].(driver.Node)
	if !ok {
		return nil, fmt.Errorf("pattern upsert returned unexpected value %T", rows[0]["p"])
	}
	return driver.DecodePattern(node.Props), nil
}

// materialize attaches the pattern to its bounded evidence sample: FOUND_IN
// to the summaries, DERIVED_FROM to the entities they summarize. Both hops
// re-apply the ownership filter.
func (e *Engine) materialize(ctx context.Context, pattern *types.PatternRecord, filter *scope.Filter) error {
	if len(pattern.SampleIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		MATCH (p:%s {id: $pattern_id})
		MATCH (s:%s)
		WHERE s.id IN $sample_ids AND %s
		MERGE (p)-[:%s]->(s)
		WITH p, s
		MATCH (s)-[:%s]->(entity)
		WHERE %s
		MERGE (p)-[:%s]->(entity)`,
		types.LabelPattern,
		types.LabelSummary, filter.Render("s"),
		types.RelFoundIn,
		types.RelSummarizes, filter.Render("entity"),
		types.RelDerivedFrom)

	params := filter.Params()
	params["pattern_id"] = pattern.ID
	params["sample_ids"] = pattern.SampleIDs

	_, err := e.driver.ExecuteQuery(ctx, query, params)
	return err
}
