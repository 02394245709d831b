// Package patterns mines the graph for recurring behavioral clusters and
// materializes them as Pattern nodes, plus memory<->code relationships,
// under hard relationship-creation caps. It is the only component that
// writes to the graph; writes go out in small batches to bound contention.
package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/embedder"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// Engine defaults.
const (
	DefaultSimilarityFloor   = 0.68
	DefaultCrossLinkFloor    = 0.70
	DefaultSeedLimit         = 8
	DefaultLookback          = 30 * 24 * time.Hour
	DefaultExpandLimit       = 50
	DefaultMaxRelsPerEntity  = 25
	DefaultMaxRelsPerRun     = 100
	DefaultStoreBatchSize    = 5
	DefaultConfidenceCap     = 0.95
)

// bucketGranularity selects the time-bucket size a category groups by.
type bucketGranularity int

const (
	bucketDay bucketGranularity = iota
	bucketWeek
)

// category describes how one pattern type is detected.
type category struct {
	Type        types.PatternType
	Name        string
	Signal      string // boolean property on EntitySummary
	Granularity bucketGranularity
	MinSupport  int
	Normalizer  float64
}

var categories = map[types.PatternType]category{
	types.PatternDebugging: {
		Type: types.PatternDebugging, Name: "debugging_session", Signal: "is_debugging",
		Granularity: bucketDay, MinSupport: 2, Normalizer: 5,
	},
	types.PatternLearning: {
		Type: types.PatternLearning, Name: "learning_session", Signal: "is_learning",
		Granularity: bucketWeek, MinSupport: 3, Normalizer: 6,
	},
	types.PatternRefactoring: {
		Type: types.PatternRefactoring, Name: "refactoring_burst", Signal: "is_refactoring",
		Granularity: bucketDay, MinSupport: 2, Normalizer: 4,
	},
	types.PatternProblemSolving: {
		Type: types.PatternProblemSolving, Name: "problem_solving_session", Signal: "is_problem_solving",
		Granularity: bucketWeek, MinSupport: 3, Normalizer: 6,
	},
}

// Config tunes the engine. Zero values take the package defaults.
type Config struct {
	SimilarityFloor  float64
	CrossLinkFloor   float64
	SeedLimit        int
	Lookback         time.Duration
	ExpandLimit      int
	MaxRelsPerEntity int
	MaxRelsPerRun    int
	StoreBatchSize   int
	// StorePause is the minimum spacing between write batches.
	StorePause time.Duration
}

func (c Config) withDefaults() Config {
	if c.SimilarityFloor == 0 {
		c.SimilarityFloor = DefaultSimilarityFloor
	}
	if c.CrossLinkFloor == 0 {
		c.CrossLinkFloor = DefaultCrossLinkFloor
	}
	if c.SeedLimit == 0 {
		c.SeedLimit = DefaultSeedLimit
	}
	if c.Lookback == 0 {
		c.Lookback = DefaultLookback
	}
	if c.ExpandLimit == 0 {
		c.ExpandLimit = DefaultExpandLimit
	}
	if c.MaxRelsPerEntity == 0 {
		c.MaxRelsPerEntity = DefaultMaxRelsPerEntity
	}
	if c.MaxRelsPerRun == 0 {
		c.MaxRelsPerRun = DefaultMaxRelsPerRun
	}
	if c.StoreBatchSize == 0 {
		c.StoreBatchSize = DefaultStoreBatchSize
	}
	if c.StorePause == 0 {
		c.StorePause = 200 * time.Millisecond
	}
	return c
}

// Engine runs pattern detection as a batch job against a live graph.
type Engine struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	config   Config
	logger   *slog.Logger
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewEngine creates an engine. The embedder may be nil: detection then uses
// only the keyword path.
func NewEngine(d driver.GraphDriver, e embedder.Client, config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	return &Engine{
		driver:   d,
		embedder: e,
		config:   config,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(config.StorePause), 1),
		now:      time.Now,
	}
}

// DetectPatterns runs detection for the requested pattern types within one
// tenancy scope and returns the stored patterns. Repeated runs over an
// unchanged graph converge: the upsert is keyed on (type, name, scope) and
// frequency/confidence are monotone, never additive across runs.
func (e *Engine) DetectPatterns(ctx context.Context, batchID string, patternTypes []types.PatternType, limit int, sc scope.Context) ([]*types.PatternRecord, error) {
	filter, err := scope.Compile(sc)
	if err != nil {
		return nil, err
	}
	if len(patternTypes) == 0 {
		patternTypes = []types.PatternType{
			types.PatternDebugging,
			types.PatternLearning,
			types.PatternRefactoring,
			types.PatternProblemSolving,
			types.PatternMemoryCodeRelated,
		}
	}

	log := e.logger.With("batch_id", batchID)
	var stored []*types.PatternRecord

	for _, patternType := range patternTypes {
		if patternType == types.PatternMemoryCodeRelated {
			created, err := e.mineCrossLinks(ctx, filter)
			if err != nil {
				log.Warn("cross-link mining failed", "error", err)
			} else {
				log.Info("cross-link mining done", "created", created)
			}
			continue
		}

		cat, ok := categories[patternType]
		if !ok {
			log.Warn("unknown pattern type requested", "type", patternType)
			continue
		}

		candidates, err := e.detectCategory(ctx, cat, filter)
		if err != nil {
			log.Warn("category detection failed", "type", patternType, "error", err)
			continue
		}
		if limit > 0 && len(candidates) > limit {
			candidates = candidates[:limit]
		}

		patterns, err := e.storeCandidates(ctx, candidates, filter)
		if err != nil {
			return stored, fmt.Errorf("failed to store %s patterns: %w", patternType, err)
		}
		stored = append(stored, patterns...)
		log.Info("category detection done", "type", patternType, "patterns", len(patterns))
	}
	return stored, nil
}

// detectCategory runs the semantic seed-and-expand pass, the keyword
// fallback pass, and merges the two candidate sets.
func (e *Engine) detectCategory(ctx context.Context, cat category, filter *scope.Filter) ([]candidate, error) {
	var semantic []candidate
	if e.embedder != nil {
		var err error
		semantic, err = e.detectSemantic(ctx, cat, filter)
		if err != nil {
			// Semantic failure degrades to keyword-only, never aborts.
			e.logger.Warn("semantic detection degraded to keyword pass", "type", cat.Type, "error", err)
		}
	}

	keyword, err := e.detectKeyword(ctx, cat, filter)
	if err != nil {
		if len(semantic) == 0 {
			return nil, err
		}
		e.logger.Warn("keyword pass failed", "type", cat.Type, "error", err)
	}

	return mergeCandidates(semantic, keyword), nil
}
