package search

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mnemograph/mnemograph/pkg/driver"
	"github.com/mnemograph/mnemograph/pkg/types"
)

// DefaultLookback is the window used when the query names no explicit one.
const DefaultLookback = 7 * 24 * time.Hour

var (
	explicitWindowRe = regexp.MustCompile(`(?i)(?:last|past|previous)\s+(\d+)?\s*(hour|day|week|month)s?`)
	agoWindowRe      = regexp.MustCompile(`(?i)(\d+)\s*(hour|day|week|month)s?\s+ago`)
)

// ParseTimeWindow extracts a relative look-back window from query text.
// Recognizes "last week", "past 3 days", "2 hours ago"; defaults to 7 days.
func ParseTimeWindow(text string) time.Duration {
	match := explicitWindowRe.FindStringSubmatch(text)
	if match == nil {
		match = agoWindowRe.FindStringSubmatch(text)
	}
	if match == nil {
		return DefaultLookback
	}

	count := 1
	if match[1] != "" {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			count = n
		}
	}

	var unit time.Duration
	switch match[2][0] | 0x20 { // lowercase first letter
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	case 'm':
		unit = 30 * 24 * time.Hour
	default:
		return DefaultLookback
	}
	return time.Duration(count) * unit
}

// TemporalStrategy scores purely by recency within a parsed look-back
// window, scanning memories by occurred_at and code by created_at.
type TemporalStrategy struct {
	driver driver.GraphDriver
	now    func() time.Time
}

func NewTemporalStrategy(d driver.GraphDriver) *TemporalStrategy {
	return &TemporalStrategy{driver: d, now: time.Now}
}

func (s *TemporalStrategy) Name() types.StrategyName { return types.StrategyTemporal }

func (s *TemporalStrategy) Execute(ctx context.Context, q *Query) ([]types.SearchResult, error) {
	window := ParseTimeWindow(q.Text)
	cutoff := s.now().Add(-window)

	var results []types.SearchResult
	if q.Options.IncludeMemories || !q.Options.IncludeCode {
		memories, err := s.scan(ctx, q, types.LabelMemory, "occurred_at", cutoff)
		if err != nil {
			return nil, err
		}
		results = append(results, memories...)
	}
	if q.Options.IncludeCode || !q.Options.IncludeMemories {
		code, err := s.scan(ctx, q, types.LabelCode, "created_at", cutoff)
		if err != nil {
			return nil, err
		}
		results = append(results, code...)
	}
	return results, nil
}

func (s *TemporalStrategy) scan(ctx context.Context, q *Query, label, timestampField string, cutoff time.Time) ([]types.SearchResult, error) {
	query := fmt.Sprintf(`
		MATCH (entity:%s)
		WHERE %s AND entity.%s >= $cutoff
		%s
		RETURN entity, collect(DISTINCT {rel: type(enrich_rel), node: related})[0..$max_related] AS related
		ORDER BY entity.%s DESC
		LIMIT $limit`,
		label,
		q.Filter.Render("entity"),
		timestampField,
		enrichmentClause("entity", "related", q.Filter),
		timestampField,
	)

	params := q.Filter.Params()
	params["cutoff"] = cutoff
	params["limit"] = strategyFetchLimit
	params["max_related"] = MaxRelatedEntities

	rows, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		node, ok := row["entity"].(driver.Node)
		if !ok {
			continue
		}
		record, err := driver.RecordFromNode(node)
		if err != nil {
			continue
		}
		results = append(results, types.SearchResult{
			Entity:        record,
			Score:         RecencyScore(recordTimestamp(record), now),
			MatchType:     types.MatchRecency,
			Relationships: decodeRelated(row["related"]),
		})
	}
	return results, nil
}

// RecencyScore is 1 / (1 + hoursAgo * 0.01): 1.0 for now, ~0.85 after a
// week, ~0.58 after a month.
func RecencyScore(ts time.Time, now time.Time) float64 {
	if ts.IsZero() {
		return 0
	}
	hoursAgo := now.Sub(ts).Hours()
	if hoursAgo < 0 {
		hoursAgo = 0
	}
	return 1 / (1 + hoursAgo*0.01)
}

func recordTimestamp(record types.Record) time.Time {
	switch r := record.(type) {
	case *types.MemoryRecord:
		return r.OccurredAt
	case *types.CodeRecord:
		return r.CreatedAt
	default:
		return time.Time{}
	}
}

var _ Strategy = (*TemporalStrategy)(nil)
