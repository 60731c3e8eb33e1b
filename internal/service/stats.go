package service

import (
	"context"
	"fmt"
	"time"

	"salmon-stats/internal/config"
	"salmon-stats/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type StatsRequest struct {
	ShiftID  int64
	PlayerID string
	IsClear  *bool
}

type ShiftInfo struct {
	ShiftID   int64     `json:"shift_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	StageID   int       `json:"stage_id"`
	Weapons   []int     `json:"weapons"`
	WaveCount int       `json:"wave_count"`
}

type ShiftStats struct {
	Shift       ShiftInfo            `json:"shift"`
	PlayerID    string               `json:"player_id,omitempty"`
	Waves       Facet[WaveBreakdown] `json:"waves"`
	Totals      Facet[GlobalTotals]  `json:"totals"`
	Player      Facet[PlayerTotals]  `json:"player"`
	Leaderboard Facet[Leaderboard]   `json:"leaderboard"`
	Summary     Facet[ShiftSummary]  `json:"summary"`
}

// StatsService fans one request out to the independent facet engines.
type StatsService struct {
	store       ResultStore
	waves       *WaveService
	totals      *TotalService
	leaderboard *LeaderboardService
	summary     *SummaryService
	runner      facetRunner
	logger      zerolog.Logger
}

func NewStatsService(
	store ResultStore,
	waves *WaveService,
	totals *TotalService,
	leaderboard *LeaderboardService,
	summary *SummaryService,
	recorder FacetRecorder,
	cfg *config.Config,
	logger zerolog.Logger,
) *StatsService {
	return &StatsService{
		store:       store,
		waves:       waves,
		totals:      totals,
		leaderboard: leaderboard,
		summary:     summary,
		runner:      facetRunner{timeout: cfg.FacetTimeout, recorder: recorder, logger: logger},
		logger:      logger,
	}
}

// Build resolves the shift, then computes every facet concurrently. A facet
// that fails or times out is reported as unavailable; only an unknown shift or
// a cancelled request fails the whole call.
func (s *StatsService) Build(ctx context.Context, req StatsRequest) (*ShiftStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := s.logger.With().Int64("shift_id", req.ShiftID).Str("player_id", req.PlayerID).Logger()

	shift, err := s.store.GetShift(ctx, req.ShiftID)
	if err != nil {
		log.Debug().Err(err).Msg("shift lookup failed")
		return nil, fmt.Errorf("failed to get shift %d: %w", req.ShiftID, err)
	}

	out := &ShiftStats{
		Shift: ShiftInfo{
			ShiftID:   shift.ID,
			StartTime: shift.StartTime(),
			EndTime:   shift.EndTime,
			StageID:   shift.StageID,
			Weapons:   shift.WeaponRotation,
			WaveCount: shift.WaveCount,
		},
		PlayerID: req.PlayerID,
	}

	start := time.Now()
	// Facets report their own failures, so the group only joins them.
	var g errgroup.Group

	g.Go(func() error {
		out.Waves = runFacet(ctx, s.runner, "waves", func(ctx context.Context) (*WaveBreakdown, error) {
			return s.waves.Breakdown(ctx, shift, req.PlayerID, req.IsClear)
		})
		return nil
	})
	g.Go(func() error {
		out.Totals = runFacet(ctx, s.runner, "totals", func(ctx context.Context) (*GlobalTotals, error) {
			return s.totals.Global(ctx, shift.ID, req.IsClear)
		})
		return nil
	})
	g.Go(func() error {
		out.Player = runFacet(ctx, s.runner, "player", func(ctx context.Context) (*PlayerTotals, error) {
			return s.totals.ForPlayer(ctx, shift.ID, req.PlayerID, req.IsClear)
		})
		return nil
	})
	g.Go(func() error {
		out.Leaderboard = runFacet(ctx, s.runner, "leaderboard", func(ctx context.Context) (*Leaderboard, error) {
			return s.leaderboard.Leaderboard(ctx, shift.ID)
		})
		return nil
	})
	g.Go(func() error {
		out.Summary = runFacet(ctx, s.runner, "summary", func(ctx context.Context) (*ShiftSummary, error) {
			return s.summary.Summary(ctx, shift)
		})
		return nil
	})

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("stats request cancelled")
		return nil, err
	}

	log.Info().Dur("duration", time.Since(start)).Msg("shift stats assembled")
	return out, nil
}

// Validate checks request fields that do not need the store.
func (r StatsRequest) Validate() error {
	if r.ShiftID <= 0 {
		return fmt.Errorf("%w: shift_id is required", domain.ErrInvalidRequest)
	}
	return nil
}
