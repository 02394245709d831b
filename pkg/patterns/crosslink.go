package patterns

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// linkCandidate is a memory/code pair proposed for a REFERENCES_CODE /
// DISCUSSED_IN relationship.
type linkCandidate struct {
	MemoryID string
	CodeID   string
}

// mineCrossLinks discovers memory<->code relationships by summary-embedding
// similarity within a project, then by exact name substring, and creates
// them under two hard caps: a per-entity cap on existing mined
// relationships and a per-run cap on total creations. The caps keep a
// densely connected graph from exploding when detection runs overlap.
func (e *Engine) mineCrossLinks(ctx context.Context, filter *scope.Filter) (int, error) {
	budget := e.config.MaxRelsPerRun
	created := 0

	similar, err := e.similarPairs(ctx, filter)
	if err != nil {
		return created, err
	}
	n, err := e.createLinks(ctx, similar, filter, budget-created)
	created += n
	if err != nil {
		return created, err
	}

	if created >= budget {
		e.logger.Info("cross-link run budget exhausted before name pass", "created", created)
		return created, nil
	}

	// Cheaper secondary pass: a code entity's name appearing verbatim in
	// memory content.
	byName, err := e.nameMatchPairs(ctx, filter)
	if err != nil {
		return created, err
	}
	n, err = e.createLinks(ctx, byName, filter, budget-created)
	created += n
	return created, err
}

func (e *Engine) similarPairs(ctx context.Context, filter *scope.Filter) ([]linkCandidate, error) {
	query := fmt.Sprintf(`
		MATCH (ms:%s)-[:%s]->(m:%s)
		WHERE ms.entity_kind = 'memory' AND ms.embedding IS NOT NULL
		  AND ms.created_at >= $since AND %s AND %s
		MATCH (cs:%s)-[:%s]->(c:%s)
		WHERE cs.entity_kind = 'code' AND cs.embedding IS NOT NULL
		  AND cs.project_name = ms.project_name AND %s AND %s
		WITH m, c, vector.similarity.cosine(ms.embedding, cs.embedding) AS sim
		WHERE sim >= $floor
		RETURN m.id AS memory_id, c.id AS code_id
		ORDER BY sim DESC
		LIMIT $limit`,
		types.LabelSummary, types.RelSummarizes, types.LabelMemory,
		filter.Render("ms"), filter.Render("m"),
		types.LabelSummary, types.RelSummarizes, types.LabelCode,
		filter.Render("cs"), filter.Render("c"))

	params := filter.Params()
	params["since"] = e.now().Add(-e.config.Lookback)
	params["floor"] = e.config.CrossLinkFloor
	params["limit"] = e.config.MaxRelsPerRun

	return e.collectPairs(ctx, query, params)
}

func (e *Engine) nameMatchPairs(ctx context.Context, filter *scope.Filter) ([]linkCandidate, error) {
	query := fmt.Sprintf(`
		MATCH (c:%s)
		WHERE c.name IS NOT NULL AND size(c.name) > 3 AND %s
		MATCH (m:%s)
		WHERE m.project_name = c.project AND m.content CONTAINS c.name AND %s
		RETURN m.id AS memory_id, c.id AS code_id
		LIMIT $limit`,
		types.LabelCode, filter.Render("c"),
		types.LabelMemory, filter.Render("m"))

	params := filter.Params()
	params["limit"] = e.config.MaxRelsPerRun

	return e.collectPairs(ctx, query, params)
}

func (e *Engine) collectPairs(ctx context.Context, query string, params map[string]any) ([]linkCandidate, error) {
	rows, err := e.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	pairs := make([]linkCandidate, 0, len(rows))
	for _, row := range rows {
		memoryID := driver.StringProp(row, "memory_id")
		codeID := driver.StringProp(row, "code_id")
		if memoryID == "" || codeID == "" {
			continue
		}
		pairs = append(pairs, linkCandidate{MemoryID: memoryID, CodeID: codeID})
	}
	return pairs, nil
}

// createLinks writes REFERENCES_CODE/DISCUSSED_IN pairs, skipping any pair
// whose endpoints already carry the per-entity maximum of mined
// relationships. Only true creations consume the run budget: MERGE on an
// existing relationship returns a row too, told apart by the ON CREATE
// timestamp. The count check happens in the same query as the write; that
// leaves a small race window between overlapping runs, accepted because the
// caps are soft guards, not serializable invariants.
func (e *Engine) createLinks(ctx context.Context, pairs []linkCandidate, filter *scope.Filter, budget int) (int, error) {
	if budget <= 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		MATCH (m:%s {id: $memory_id}), (c:%s {id: $code_id})
		WHERE %s AND %s
		  AND COUNT { (m)-[:%s|%s]-() } < $max_per_entity
		  AND COUNT { (c)-[:%s|%s]-() } < $max_per_entity
		MERGE (m)-[ref:%s]->(c)
		ON CREATE SET ref.mined_at = $now
		MERGE (c)-[disc:%s]->(m)
		ON CREATE SET disc.mined_at = $now
		RETURN ref.mined_at = $now AS created`,
		types.LabelMemory, types.LabelCode,
		filter.Render("m"), filter.Render("c"),
		types.RelReferencesCode, types.RelDiscussedIn,
		types.RelReferencesCode, types.RelDiscussedIn,
		types.RelReferencesCode, types.RelDiscussedIn)

	now := e.now()
	created := 0
	seen := make(map[linkCandidate]bool, len(pairs))
	for _, pair := range pairs {
		if created >= budget {
			break
		}
		if seen[pair] {
			continue
		}
		seen[pair] = true

		params := filter.Params()
		params["memory_id"] = pair.MemoryID
		params["code_id"] = pair.CodeID
		params["max_per_entity"] = e.config.MaxRelsPerEntity
		params["now"] = now

		rows, err := e.driver.ExecuteQuery(ctx, query, params)
		if err != nil {
			return created, err
		}
		if len(rows) > 0 && driver.BoolProp(rows[0], "created") {
			created++
		}
	}
	return created, nil
}
