package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// Neo4jDriver implements GraphDriver over a Neo4j (or compatible) server.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
	// EmbeddingDims is the dimensionality the vector index is created with.
	EmbeddingDims int
}

// SummaryVectorIndex is the name of the ANN index over summary embeddings.
const SummaryVectorIndex = "summary_embedding_idx"

// NewNeo4jDriver connects to a Neo4j server.
func NewNeo4jDriver(uri, username, password, database string, embeddingDims int) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	if embeddingDims <= 0 {
		embeddingDims = 3072
	}
	return &Neo4jDriver{client: client, database: database, EmbeddingDims: embeddingDims}, nil
}

// ExecuteQuery runs a Cypher query and materializes every row into a map.
func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.client, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(d.database))
	if err != nil {
		return nil, &types.UpstreamServiceError{Service: "graph", Err: err}
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		row := make(map[string]any, len(result.Keys))
		for _, key := range result.Keys {
			value, _ := record.Get(key)
			row[key] = convertValue(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// convertValue maps neo4j native values onto driver-neutral ones.
func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return Node{Labels: v.Labels, Props: v.Props}
	case dbtype.Relationship:
		return map[string]any{"type": v.Type, "props": v.Props}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	default:
		return value
	}
}

// Close releases the connection pool.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.client.Close(ctx)
}

// CreateIndices sets up the vector index and the ownership property
// indexes. All statements are idempotent.
func (d *Neo4jDriver) CreateIndices(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
			FOR (s:%s) ON (s.embedding)
			OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: 'cosine'}}`,
			SummaryVectorIndex, types.LabelSummary, d.EmbeddingDims),
		fmt.Sprintf("CREATE INDEX memory_user_idx IF NOT EXISTS FOR (m:%s) ON (m.user_id)", types.LabelMemory),
		fmt.Sprintf("CREATE INDEX memory_workspace_idx IF NOT EXISTS FOR (m:%s) ON (m.workspace_id)", types.LabelMemory),
		fmt.Sprintf("CREATE INDEX memory_occurred_idx IF NOT EXISTS FOR (m:%s) ON (m.occurred_at)", types.LabelMemory),
		fmt.Sprintf("CREATE INDEX code_user_idx IF NOT EXISTS FOR (c:%s) ON (c.user_id)", types.LabelCode),
		fmt.Sprintf("CREATE INDEX code_workspace_idx IF NOT EXISTS FOR (c:%s) ON (c.workspace_id)", types.LabelCode),
		fmt.Sprintf("CREATE INDEX summary_user_idx IF NOT EXISTS FOR (s:%s) ON (s.user_id)", types.LabelSummary),
		fmt.Sprintf("CREATE INDEX summary_workspace_idx IF NOT EXISTS FOR (s:%s) ON (s.workspace_id)", types.LabelSummary),
		fmt.Sprintf("CREATE INDEX pattern_scope_idx IF NOT EXISTS FOR (p:%s) ON (p.scope_id)", types.LabelPattern),
	}
	for _, statement := range statements {
		if _, err := d.ExecuteQuery(ctx, statement, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

var _ GraphDriver = (*Neo4jDriver)(nil)
var _ Admin = (*Neo4jDriver)(nil)
