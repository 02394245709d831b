package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// BreakerSettings tune the circuit breaker around classifier calls.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// DefaultBreakerSettings trips after >=3 requests with a 60% failure ratio.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		ReadyToTripRatio: 0.6,
	}
}

// BreakerClient wraps a Client with circuit breaking. A tripped breaker is
// reported as an UpstreamServiceError so the classifier takes its keyword
// fallback without waiting on a failing model.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps client with a circuit breaker.
func NewBreakerClient(client Client, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	st := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= settings.ReadyToTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerClient{client: client, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.client.Chat(ctx, messages)
	})
	if err != nil {
		if types.IsUpstream(err) {
			return nil, err
		}
		return nil, &types.UpstreamServiceError{Service: "llm", Err: err}
	}
	return result.(*Response), nil
}

var _ Client = (*BreakerClient)(nil)
