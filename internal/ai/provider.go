package ai

import (
	"context"
	"time"

	"github.com/reqmaster/reqmaster/internal/metrics"
)

// Completer sends a single prompt to a text-completion service and returns
// the reply. A nil temperature selects the provider's configured default.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature *float64) (string, error)
}

// Temperature is a convenience for passing literal temperatures.
func Temperature(v float64) *float64 { return &v }

type instrumented struct {
	name string
	next Completer
}

// Instrument records call counts and latency for c under the provider name.
func Instrument(name string, c Completer) Completer {
	return &instrumented{name: name, next: c}
}

func (i *instrumented) Complete(ctx context.Context, prompt string, temperature *float64) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, prompt, temperature)
	metrics.CompletionDuration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.CompletionRequests.WithLabelValues(i.name, outcome).Inc()
	return out, err
}
