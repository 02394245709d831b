package search

import (
	"context"
	"log/slog"

	"github.com/mnemograph/mnemograph/pkg/intent"
	"github.com/mnemograph/mnemograph/pkg/scope"
	"github.com/mnemograph/mnemograph/pkg/types"
	"github.com/mnemograph/mnemograph/pkg/utils"
)

// Orchestrator runs intent-selected strategies concurrently and fuses their
// output. It is stateless per call and read-only with respect to the graph.
type Orchestrator struct {
	strategies     map[types.StrategyName]Strategy
	classifier     *intent.Classifier
	logger         *slog.Logger
	maxConcurrency int
}

// NewOrchestrator wires the strategy set and the classifier.
func NewOrchestrator(classifier *intent.Classifier, strategies []Strategy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[types.StrategyName]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &Orchestrator{
		strategies:     byName,
		classifier:     classifier,
		logger:         logger,
		maxConcurrency: utils.DefaultConcurrency,
	}
}

// Search runs the full pipeline: classify, fan out, merge, rank, filter,
// transform, facet, group, paginate. The only hard failure is an ownership
// filter that cannot be compiled; everything else degrades.
func (o *Orchestrator) Search(ctx context.Context, req types.SearchRequest, sc scope.Context) (*types.SearchResponse, error) {
	filter, err := scope.Compile(sc)
	if err != nil {
		return nil, err
	}

	interp := o.classifier.Classify(ctx, req.Query)

	opts := req.Options
	if !opts.IncludeMemories && !opts.IncludeCode {
		opts = types.DefaultSearchOptions()
		opts.GroupBySession = req.Options.GroupBySession
		opts.GroupByProject = req.Options.GroupByProject
	}

	query := &Query{
		Text:           req.Query,
		Terms:          QueryTerms(req.Query),
		Interpretation: interp,
		Scope:          sc,
		Filter:         filter,
		Options:        opts,
	}

	resultSets := o.runStrategies(ctx, interp.Strategies, query)

	merged := MergeResults(resultSets...)
	ranked := RankResults(merged, interp)
	filtered := ApplyFilters(ranked, req.Filters)

	items := make([]types.ResultItem, len(filtered))
	for i, result := range filtered {
		items[i] = ToResultItem(result)
	}

	facets := BuildFacets(items)
	groups := BuildGroups(items, filtered, opts)
	page, pageInfo := Paginate(items, req.Pagination)

	return &types.SearchResponse{
		Interpretation: interp,
		Results:        page,
		Groups:         groups,
		Facets:         facets,
		Pagination:     pageInfo,
	}, nil
}

// runStrategies executes the selected strategies concurrently. A failing or
// unknown strategy contributes an empty result set and never aborts the
// others.
func (o *Orchestrator) runStrategies(ctx context.Context, selected []types.StrategyName, query *Query) [][]types.SearchResult {
	tasks := make([]func() ([]types.SearchResult, error), 0, len(selected))
	names := make([]types.StrategyName, 0, len(selected))
	for _, name := range selected {
		strategy, ok := o.strategies[name]
		if !ok {
			o.logger.Warn("selected strategy not registered", "strategy", name)
			continue
		}
		names = append(names, name)
		tasks = append(tasks, func() ([]types.SearchResult, error) {
			return strategy.Execute(ctx, query)
		})
	}

	results, errs := utils.ExecuteWithResults(ctx, o.maxConcurrency, tasks...)

	sets := make([][]types.SearchResult, 0, len(results))
	for i, result := range results {
		if errs[i] != nil {
			o.logger.Warn("strategy failed, contributing zero results",
				"strategy", names[i], "error", errs[i])
			continue
		}
		sets = append(sets, result)
	}
	return sets
}
