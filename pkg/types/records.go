package types

import (
	"time"
)

// RecordKind discriminates the concrete record types behind the Record
// interface.
type RecordKind string

const (
	KindMemory  RecordKind = "memory"
	KindCode    RecordKind = "code"
	KindSummary RecordKind = "summary"
	KindPattern RecordKind = "pattern"
)

// Graph node labels.
const (
	LabelMemory  = "Memory"
	LabelCode    = "CodeEntity"
	LabelSummary = "EntitySummary"
	LabelPattern = "Pattern"
)

// Relationship types used across search and pattern detection.
const (
	RelSummarizes     = "SUMMARIZES"
	RelReferencesCode = "REFERENCES_CODE"
	RelDiscussedIn    = "DISCUSSED_IN"
	RelFoundIn        = "FOUND_IN"
	RelDerivedFrom    = "DERIVED_FROM"
)

// Record is the tagged union over the node shapes the graph can return.
// Decoding happens once, at the driver boundary; everything downstream
// switches on Kind instead of poking at property maps.
type Record interface {
	Kind() RecordKind
	RecordID() string
	RecordLabel() string
}

// Ownership carries the tenancy fields every stored node has. A record with
// an empty WorkspaceID is implicitly scoped to its creator's personal
// workspace ("user:<UserID>").
type Ownership struct {
	UserID      string `json:"user_id"`
	TeamID      string `json:"team_id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// MemoryRecord is a free-text memory entry. Content is immutable after
// creation; ownership fields are set once at creation.
type MemoryRecord struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	OccurredAt  time.Time  `json:"occurred_at"`
	ProjectName string     `json:"project_name,omitempty"`
	SessionID   string     `json:"session_id,omitempty"`
	ChunkID     string     `json:"chunk_id,omitempty"`
	Ownership   Ownership  `json:"ownership"`
	Embedding   []float32  `json:"embedding,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (m *MemoryRecord) Kind() RecordKind    { return KindMemory }
func (m *MemoryRecord) RecordID() string    { return m.ID }
func (m *MemoryRecord) RecordLabel() string { return LabelMemory }

// CodeRecord is a parsed source-code unit (function, class, file).
type CodeRecord struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Language  string    `json:"language,omitempty"`
	Content   string    `json:"content"`
	Name      string    `json:"name,omitempty"`
	Project   string    `json:"project,omitempty"`
	Ownership Ownership `json:"ownership"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *CodeRecord) Kind() RecordKind    { return KindCode }
func (c *CodeRecord) RecordID() string    { return c.ID }
func (c *CodeRecord) RecordLabel() string { return LabelCode }

// PatternSignals are the boolean behavioral flags computed once at summary
// creation. They seed pattern detection and never change afterwards.
type PatternSignals struct {
	IsDebugging      bool `json:"is_debugging"`
	IsLearning       bool `json:"is_learning"`
	IsRefactoring    bool `json:"is_refactoring"`
	IsProblemSolving bool `json:"is_problem_solving"`
}

// SummaryRecord is the embedding-bearing surrogate for exactly one Memory or
// Code record, linked by SUMMARIZES. Similarity search and pattern detection
// operate on summaries; the underlying entity is reached by traversal.
type SummaryRecord struct {
	ID          string            `json:"id"`
	EntityID    string            `json:"entity_id"`
	EntityKind  RecordKind        `json:"entity_kind"`
	Summary     string            `json:"summary"`
	ProjectName string            `json:"project_name,omitempty"`
	Ownership   Ownership         `json:"ownership"`
	Embedding   []float32         `json:"embedding,omitempty"`
	Keywords    map[string]int    `json:"keywords,omitempty"`
	Signals     PatternSignals    `json:"signals"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *SummaryRecord) Kind() RecordKind    { return KindSummary }
func (s *SummaryRecord) RecordID() string    { return s.ID }
func (s *SummaryRecord) RecordLabel() string { return LabelSummary }

// PatternType enumerates the mined behavioral categories.
type PatternType string

const (
	PatternDebugging         PatternType = "debugging"
	PatternLearning          PatternType = "learning"
	PatternRefactoring       PatternType = "refactoring"
	PatternProblemSolving    PatternType = "problem_solving"
	PatternSemanticCluster   PatternType = "semantic_cluster"
	PatternMemoryCodeRelated PatternType = "memory_code_relationship"
)

// PatternScope identifies the (owner, project, time-bucket) a pattern was
// mined in. ScopeID is the stable string key used for idempotent upserts.
type PatternScope struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	Project     string `json:"project,omitempty"`
	TimeBucket  string `json:"time_bucket"`
}

// ID returns the stable scope key.
func (s PatternScope) ID() string {
	owner := s.WorkspaceID
	if owner == "" {
		owner = "user:" + s.UserID
	}
	return owner + "|" + s.Project + "|" + s.TimeBucket
}

// MaxPatternSamples bounds the evidence-sample list stored on a pattern,
// regardless of frequency.
const MaxPatternSamples = 5

// PatternRecord is a materialized behavioral cluster.
type PatternRecord struct {
	ID            string       `json:"id"`
	Type          PatternType  `json:"type"`
	Name          string       `json:"name"`
	Confidence    float64      `json:"confidence"`
	Frequency     int          `json:"frequency"`
	Scope         PatternScope `json:"scope"`
	SampleIDs     []string     `json:"sample_ids,omitempty"`
	LastValidated time.Time    `json:"last_validated"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (p *PatternRecord) Kind() RecordKind    { return KindPattern }
func (p *PatternRecord) RecordID() string    { return p.ID }
func (p *PatternRecord) RecordLabel() string { return LabelPattern }

// RelatedEntity is a best-effort enrichment attached to a search result: a
// one-hop neighbor (code<->memory cross link, pattern, session sibling).
type RelatedEntity struct {
	ID       string     `json:"id"`
	Kind     RecordKind `json:"kind"`
	Relation string     `json:"relation"`
	Title    string     `json:"title,omitempty"`
}
