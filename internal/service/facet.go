package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type FacetStatus string

const (
	FacetReady       FacetStatus = "ready"
	FacetAbsent      FacetStatus = "absent"
	FacetUnavailable FacetStatus = "unavailable"
)

// Facet wraps one independently computed view. An unavailable facet carries
// the reason instead of a value and is never reported as empty.
type Facet[T any] struct {
	Status FacetStatus `json:"status"`
	Value  *T          `json:"value,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (f Facet[T]) Ready() bool {
	return f.Status == FacetReady
}

type facetRunner struct {
	timeout  time.Duration
	recorder FacetRecorder
	logger   zerolog.Logger
}

// runFacet executes fn under its own deadline. fn returning (nil, nil) means
// the facet does not apply to the request.
func runFacet[T any](ctx context.Context, r facetRunner, name string, fn func(context.Context) (*T, error)) Facet[T] {
	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var out Facet[T]

	value, err := fn(fctx)
	switch {
	case err != nil:
		out.Status = FacetUnavailable
		out.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			out.Error = "facet timed out"
		}
		r.logger.Warn().Err(err).Str("facet", name).Msg("facet unavailable")
	case value == nil:
		out.Status = FacetAbsent
	default:
		out.Status = FacetReady
		out.Value = value
	}

	elapsed := time.Since(start)
	if r.recorder != nil {
		r.recorder.ObserveFacet(name, string(out.Status), elapsed.Seconds())
	}
	r.logger.Debug().Str("facet", name).Str("status", string(out.Status)).Dur("duration", elapsed).Msg("facet finished")

	return out
}
