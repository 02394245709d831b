// Package intent classifies a raw query into an Interpretation: what the
// query wants, how time-sensitive it is, and which retrieval strategies
// should run. The primary path is an LLM call; a deterministic keyword
// classifier takes over whenever that call fails or returns garbage, so
// classification never surfaces an error to the search caller.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/llm"
	"github.com/mnemograph/mnemograph/pkg/types"
)

const systemPrompt = `You are a search-intent classifier for a developer memory system.
Given a query, respond with only a JSON object of this exact shape:
{
  "primary_intent": "find_code" | "find_memory" | "find_pattern" | "recent_activity" | "explore",
  "timeframe": "none" | "recent" | "range",
  "code_relevance": <number 0.0-1.0>,
  "patterns": [<pattern category strings, if any>],
  "entities": [<named entities mentioned, if any>]
}

Examples:
Query: "the auth middleware function we changed"
{"primary_intent":"find_code","timeframe":"none","code_relevance":0.9,"patterns":[],"entities":["auth middleware"]}

Query: "what did I work on last week"
{"primary_intent":"recent_activity","timeframe":"recent","code_relevance":0.2,"patterns":[],"entities":[]}

Query: "debugging sessions about the payment service"
{"primary_intent":"find_pattern","timeframe":"none","code_relevance":0.4,"patterns":["debugging"],"entities":["payment service"]}`

// llmClassification is the wire shape the model is asked to produce.
type llmClassification struct {
	PrimaryIntent string   `json:"primary_intent"`
	Timeframe     string   `json:"timeframe"`
	CodeRelevance float64  `json:"code_relevance"`
	Patterns      []string `json:"patterns"`
	Entities      []string `json:"entities"`
}

// Classifier derives an Interpretation from query text.
type Classifier struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewClassifier creates a classifier. llmClient may be nil, in which case
// only the deterministic path is used.
func NewClassifier(llmClient llm.Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: llmClient, logger: logger}
}

// Classify interprets the query. It never returns an error: any failure on
// the LLM path falls back to the keyword classifier.
func (c *Classifier) Classify(ctx context.Context, query string) types.Interpretation {
	if c.llm != nil {
		if interp, err := c.classifyLLM(ctx, query); err == nil {
			return interp
		} else {
			c.logger.Debug("intent classification fell back to keywords", "error", err)
		}
	}
	return c.classifyKeywords(query)
}

func (c *Classifier) classifyLLM(ctx context.Context, query string) (types.Interpretation, error) {
	resp, err := c.llm.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage("Query: " + strings.TrimSpace(query)),
	})
	if err != nil {
		return types.Interpretation{}, err
	}

	var parsed llmClassification
	if err := llm.DecodeJSON(resp.Content, &parsed); err != nil {
		return types.Interpretation{}, err
	}

	interp := types.Interpretation{
		PrimaryIntent: normalizeIntent(parsed.PrimaryIntent),
		Timeframe:     normalizeTimeframe(parsed.Timeframe),
		CodeRelevance: clamp01(parsed.CodeRelevance),
		Patterns:      parsed.Patterns,
		Entities:      parsed.Entities,
	}
	interp.Strategies = SelectStrategies(interp)
	return interp, nil
}

func normalizeIntent(raw string) types.Intent {
	switch types.Intent(strings.TrimSpace(strings.ToLower(raw))) {
	case types.IntentFindCode:
		return types.IntentFindCode
	case types.IntentFindMemory:
		return types.IntentFindMemory
	case types.IntentFindPattern:
		return types.IntentFindPattern
	case types.IntentRecent:
		return types.IntentRecent
	default:
		return types.IntentExplore
	}
}

func normalizeTimeframe(raw string) types.Timeframe {
	switch types.Timeframe(strings.TrimSpace(strings.ToLower(raw))) {
	case types.TimeframeRecent:
		return types.TimeframeRecent
	case types.TimeframeRange:
		return types.TimeframeRange
	default:
		return types.TimeframeNone
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SelectStrategies applies the fixed selection rule to a classification,
// whichever path produced it: semantic always runs, temporal for
// time-sensitive queries, pattern when pattern indicators were detected,
// code_linked for code-seeking queries, and keyword always appended as the
// guaranteed-recall fallback.
func SelectStrategies(interp types.Interpretation) []types.StrategyName {
	selected := []types.StrategyName{types.StrategySemantic}

	if interp.Timeframe != types.TimeframeNone || interp.PrimaryIntent == types.IntentRecent {
		selected = append(selected, types.StrategyTemporal)
	}
	if len(interp.Patterns) > 0 || interp.PrimaryIntent == types.IntentFindPattern {
		selected = append(selected, types.StrategyPattern)
	}
	if interp.CodeRelevance >= 0.6 || interp.PrimaryIntent == types.IntentFindCode {
		selected = append(selected, types.StrategyCodeLinked)
	}
	selected = append(selected, types.StrategyKeyword)

	seen := make(map[types.StrategyName]bool, len(selected))
	out := selected[:0]
	for _, s := range selected {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
