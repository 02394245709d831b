package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/types"
)

func TestRecordFromNodeMemory(t *testing.T) {
	occurred := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	node := Node{
		Labels: []string{types.LabelMemory},
		Props: map[string]any{
			"id":           "m1",
			"content":      "fixed the race in the session store",
			"occurred_at":  occurred,
			"project_name": "api",
			"session_id":   "s1",
			"user_id":      "u1",
			"workspace_id": "team:t1",
		},
	}

	record, err := RecordFromNode(node)
	require.NoError(t, err)

	memory, ok := record.(*types.MemoryRecord)
	require.True(t, ok)
	assert.Equal(t, types.KindMemory, memory.Kind())
	assert.Equal(t, "m1", memory.RecordID())
	assert.Equal(t, occurred, memory.OccurredAt)
	assert.Equal(t, "team:t1", memory.Ownership.WorkspaceID)
}

func TestRecordFromNodeSummarySignals(t *testing.T) {
	node := Node{
		Labels: []string{types.LabelSummary},
		Props: map[string]any{
			"id":           "sum1",
			"entity_id":    "m1",
			"entity_kind":  "memory",
			"is_debugging": true,
			"embedding":    []any{0.1, 0.2, 0.3},
		},
	}

	record, err := RecordFromNode(node)
	require.NoError(t, err)

	summary := record.(*types.SummaryRecord)
	assert.True(t, summary.Signals.IsDebugging)
	assert.False(t, summary.Signals.IsLearning)
	assert.Len(t, summary.Embedding, 3)
	assert.Equal(t, types.KindMemory, summary.EntityKind)
}

func TestRecordFromNodePattern(t *testing.T) {
	node := Node{
		Labels: []string{types.LabelPattern},
		Props: map[string]any{
			"id":           "p1",
			"pattern_type": "debugging",
			"pattern_name": "debugging_session",
			"confidence":   0.85,
			"frequency":    int64(4),
			"sample_ids":   []any{"s1", "s2"},
			"time_bucket":  "2026-03-14",
		},
	}

	record, err := RecordFromNode(node)
	require.NoError(t, err)

	pattern := record.(*types.PatternRecord)
	assert.Equal(t, types.PatternDebugging, pattern.Type)
	assert.Equal(t, 4, pattern.Frequency)
	assert.Equal(t, []string{"s1", "s2"}, pattern.SampleIDs)
}

func TestRecordFromNodeUnknownLabel(t *testing.T) {
	_, err := RecordFromNode(Node{Labels: []string{"Mystery"}})
	require.Error(t, err)
}

func TestPropHelpersTolerateMissingAndMistyped(t *testing.T) {
	props := map[string]any{
		"count":  int64(3),
		"ratio":  0.5,
		"when":   "2026-01-02T15:04:05Z",
		"flag":   "not-a-bool",
		"vector": []any{1.0, "skip", float32(2)},
	}

	assert.Equal(t, 3, IntProp(props, "count"))
	assert.Equal(t, 0.5, FloatProp(props, "ratio"))
	assert.Equal(t, 2026, TimeProp(props, "when").Year())
	assert.False(t, BoolProp(props, "flag"))
	assert.Equal(t, []float32{1, 2}, VectorProp(props, "vector"))
	assert.Equal(t, "", StringProp(props, "absent"))
	assert.True(t, TimeProp(props, "absent").IsZero())
}
