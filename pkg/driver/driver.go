// Package driver abstracts the property-graph store. The rest of the system
// speaks Cypher through ExecuteQuery and receives rows of named values;
// graph nodes come back as Node wrappers and are decoded into typed records
// at this boundary.
package driver

import (
	"context"
)

// Node is the driver-neutral wrapper for a returned graph node.
type Node struct {
	Labels []string
	Props  map[string]any
}

// HasLabel reports whether the node carries the given label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// GraphDriver executes declarative graph queries. Implementations must be
// safe for concurrent use; the search path is read-only and the pattern
// engine is the only writer.
type GraphDriver interface {
	// ExecuteQuery runs a Cypher query with parameters and returns one map
	// per result row. Node values are returned as driver.Node.
	ExecuteQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// Close releases the underlying connection pool.
	Close(ctx context.Context) error
}

// Admin provides schema management, separate from the query path.
type Admin interface {
	// CreateIndices creates the vector index over summary embeddings and
	// the ownership property indexes. Idempotent.
	CreateIndices(ctx context.Context) error
}
