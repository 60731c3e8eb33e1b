package service

import (
	"context"

	"salmon-stats/internal/domain"
)

// ResultStore is the read side of the match corpus. Implementations must
// honour ctx cancellation and must not issue a query once ctx is done.
type ResultStore interface {
	GetShift(ctx context.Context, shiftID int64) (*domain.Shift, error)
	QueryMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter) ([]domain.MatchResult, error)
	AggregateMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter, groupByNightless bool) ([]domain.MatchAggregate, error)
	ListDistinctTeams(ctx context.Context, shiftID int64, nightless bool, metric domain.Metric, limit int) ([]domain.MatchResult, error)
}

// NicknameResolver decorates player ids for presentation. It is never used to
// filter or rank.
type NicknameResolver interface {
	Resolve(ctx context.Context, playerIDs []string) (map[string]domain.Nickname, error)
}

// FacetRecorder receives the outcome of every facet run.
type FacetRecorder interface {
	ObserveFacet(facet, status string, elapsedSeconds float64)
}
