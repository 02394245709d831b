package driver

import (
	"fmt"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// RecordFromNode decodes a returned graph node into its typed record based
// on label. This is the only place node property bags are interpreted.
func RecordFromNode(node Node) (types.Record, error) {
	switch {
	case node.HasLabel(types.LabelMemory):
		return DecodeMemory(node.Props), nil
	case node.HasLabel(types.LabelCode):
		return DecodeCode(node.Props), nil
	case node.HasLabel(types.LabelSummary):
		return DecodeSummary(node.Props), nil
	case node.HasLabel(types.LabelPattern):
		return DecodePattern(node.Props), nil
	default:
		return nil, fmt.Errorf("node has no recognized label: %v", node.Labels)
	}
}

func decodeOwnership(props map[string]any) types.Ownership {
	return types.Ownership{
		UserID:      StringProp(props, "user_id"),
		TeamID:      StringProp(props, "team_id"),
		WorkspaceID: StringProp(props, "workspace_id"),
	}
}

// DecodeMemory builds a MemoryRecord from node properties.
func DecodeMemory(props map[string]any) *types.MemoryRecord {
	return &types.MemoryRecord{
		ID:          StringProp(props, "id"),
		Content:     StringProp(props, "content"),
		OccurredAt:  TimeProp(props, "occurred_at"),
		ProjectName: StringProp(props, "project_name"),
		SessionID:   StringProp(props, "session_id"),
		ChunkID:     StringProp(props, "chunk_id"),
		Ownership:   decodeOwnership(props),
		Embedding:   VectorProp(props, "embedding"),
		CreatedAt:   TimeProp(props, "created_at"),
	}
}

// DecodeCode builds a CodeRecord from node properties.
func DecodeCode(props map[string]any) *types.CodeRecord {
	return &types.CodeRecord{
		ID:        StringProp(props, "id"),
		Path:      StringProp(props, "path"),
		Language:  StringProp(props, "language"),
		Content:   StringProp(props, "content"),
		Name:      StringProp(props, "name"),
		Project:   StringProp(props, "project"),
		Ownership: decodeOwnership(props),
		Embedding: VectorProp(props, "embedding"),
		CreatedAt: TimeProp(props, "created_at"),
	}
}

// DecodeSummary builds a SummaryRecord from node properties.
func DecodeSummary(props map[string]any) *types.SummaryRecord {
	return &types.SummaryRecord{
		ID:          StringProp(props, "id"),
		EntityID:    StringProp(props, "entity_id"),
		EntityKind:  types.RecordKind(StringProp(props, "entity_kind")),
		Summary:     StringProp(props, "summary"),
		ProjectName: StringProp(props, "project_name"),
		Ownership:   decodeOwnership(props),
		Embedding:   VectorProp(props, "embedding"),
		Signals: types.PatternSignals{
			IsDebugging:      BoolProp(props, "is_debugging"),
			IsLearning:       BoolProp(props, "is_learning"),
			IsRefactoring:    BoolProp(props, "is_refactoring"),
			IsProblemSolving: BoolProp(props, "is_problem_solving"),
		},
		CreatedAt: TimeProp(props, "created_at"),
	}
}

// DecodePattern builds a PatternRecord from node properties.
func DecodePattern(props map[string]any) *types.PatternRecord {
	return &types.PatternRecord{
		ID:         StringProp(props, "id"),
		Type:       types.PatternType(StringProp(props, "pattern_type")),
		Name:       StringProp(props, "pattern_name"),
		Confidence: FloatProp(props, "confidence"),
		Frequency:  IntProp(props, "frequency"),
		Scope: types.PatternScope{
			UserID:      StringProp(props, "user_id"),
			WorkspaceID: StringProp(props, "workspace_id"),
			Project:     StringProp(props, "project"),
			TimeBucket:  StringProp(props, "time_bucket"),
		},
		SampleIDs:     StringSliceProp(props, "sample_ids"),
		LastValidated: TimeProp(props, "last_validated"),
		CreatedAt:     TimeProp(props, "created_at"),
	}
}
