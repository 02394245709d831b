package mnemograph

import (
	"context"
	"log/slog"
	"time"

	"github.com/mnemograph/mnemograph/pkg/config"
	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/embedder"
	"github.com/mnemograph/mnemograph/pkg/intent"
	"github.com/mnemograph/mnemograph/pkg/llm"
	"github.com/mnemograph/mnemograph/pkg/patterns"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/search"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// Client is the main entry point: a search orchestrator and a pattern
// engine sharing one graph driver and one tenancy model.
type Client struct {
	driver       driver.GraphDriver
	llm          llm.Client
	embedder     embedder.Client
	orchestrator *search.Orchestrator
	engine       *patterns.Engine
	logger       *slog.Logger
}

// NewClient wires a client from already-constructed components. The LLM
// client may be nil (intent classification falls back to keyword rules) and
// the embedder may be nil (semantic paths degrade to keyword scans).
func NewClient(d driver.GraphDriver, llmClient llm.Client, embedderClient embedder.Client, patternConfig patterns.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	classifier := intent.NewClassifier(llmClient, logger)
	strategies := []search.Strategy{
		search.NewSimilarityStrategy(d, embedderClient, logger),
		search.NewKeywordStrategy(d),
		search.NewTemporalStrategy(d),
		search.NewRelationshipStrategy(d),
		search.NewPatternStrategy(d),
	}

	return &Client{
		driver:       d,
		llm:          llmClient,
		embedder:     embedderClient,
		orchestrator: search.NewOrchestrator(classifier, strategies, logger),
		engine:       patterns.NewEngine(d, embedderClient, patternConfig, logger),
		logger:       logger,
	}
}

// NewClientFromConfig builds the full stack from configuration: Neo4j
// driver, OpenAI embedder behind a circuit breaker, and OpenAI classifier
// LLM.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d, err := driver.NewNeo4jDriver(
		cfg.Database.URI,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		0,
	)
	if err != nil {
		return nil, err
	}

	var embedderClient embedder.Client
	if cfg.Embedding.APIKey != "" {
		embedderClient = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model)
		if cfg.CircuitBreaker.Enabled {
			embedderClient = embedder.NewBreakerClient(embedderClient, embedder.BreakerSettings{
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
				Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, logger)
		}
	}

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		if cfg.CircuitBreaker.Enabled {
			llmClient = llm.NewBreakerClient(llmClient, llm.BreakerSettings{
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
				Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, logger)
		}
	}

	patternConfig := patterns.Config{
		SimilarityFloor:  cfg.Patterns.SimilarityFloor,
		CrossLinkFloor:   cfg.Patterns.CrossLinkFloor,
		Lookback:         time.Duration(cfg.Patterns.LookbackDays) * 24 * time.Hour,
		MaxRelsPerEntity: cfg.Patterns.MaxRelsPerEntity,
		MaxRelsPerRun:    cfg.Patterns.MaxRelsPerRun,
	}

	return NewClient(d, llmClient, embedderClient, patternConfig, logger), nil
}

// Search runs the full pipeline: intent classification, strategy fan-out,
// merge, rank, filter, facet, and paginate, all within the caller's scope.
func (c *Client) Search(ctx context.Context, req types.SearchRequest, sc scope.Context) (*types.SearchResponse, error) {
	return c.orchestrator.Search(ctx, req, sc)
}

// DetectPatterns runs pattern detection for the given types (all types when
// empty) and returns the stored patterns.
func (c *Client) DetectPatterns(ctx context.Context, batchID string, patternTypes []types.PatternType, limit int, sc scope.Context) ([]*types.PatternRecord, error) {
	return c.engine.DetectPatterns(ctx, batchID, patternTypes, limit, sc)
}

// CreateIndices sets up the vector and ownership indices when the driver
// supports schema administration.
func (c *Client) CreateIndices(ctx context.Context) error {
	if admin, ok := c.driver.(driver.Admin); ok {
		return admin.CreateIndices(ctx)
	}
	return nil
}

// GetDriver returns the underlying graph driver
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// GetEmbedder returns the embedder client
func (c *Client) GetEmbedder() embedder.Client {
	return c.embedder
}

// Close releases the graph connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
