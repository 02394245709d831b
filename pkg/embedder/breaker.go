package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// BreakerSettings tune the circuit breaker around embedding calls.
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
// reported as an UpstreamServiceError so strategies take their degrade path
// without waiting on a failing service.
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
		Name:        "embedding",
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

func (b *BreakerClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.client.Embed(ctx, text)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return result.([]float32), nil
}

func (b *BreakerClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.client.EmbedMany(ctx, texts)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return result.([][]float32), nil
}

func wrapBreakerErr(err error) error {
	if types.IsUpstream(err) {
		return err
	}
	return &types.UpstreamServiceError{Service: "embedding", Err: err}
}

var _ Client = (*BreakerClient)(nil)
