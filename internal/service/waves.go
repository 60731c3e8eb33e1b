package service

import (
	"context"
	"fmt"
	"slices"

	"salmon-stats/internal/dimension"
	"salmon-stats/internal/domain"
	"salmon-stats/internal/stats"

	"github.com/rs/zerolog"
)

type WaveService struct {
	store  ResultStore
	logger zerolog.Logger
}

func NewWaveService(store ResultStore, logger zerolog.Logger) *WaveService {
	return &WaveService{store: store, logger: logger}
}

// WaveCell is the result for one legal (tide, event) cell. Player ranks the
// player's best golden eggs and is nil when no player was requested or the
// player never played the cell.
type WaveCell struct {
	Global EggStats      `json:"global"`
	Player *stats.Ranked `json:"player"`
}

// WaveBreakdown is keyed by tide then event. Cells outside the dimension
// matrix are present with a nil value so they render as null.
type WaveBreakdown struct {
	Cells map[string]map[string]*WaveCell `json:"cells"`
}

func (b *WaveBreakdown) Cell(tide domain.TideLevel, event domain.EventType) *WaveCell {
	return b.Cells[tide.String()][event.String()]
}

// Breakdown computes per-cell wave statistics. A non-nil isClear keeps only
// waves whose own clear flag matches, for both the global cells and the
// player's best.
func (s *WaveService) Breakdown(ctx context.Context, shift *domain.Shift, playerID string, isClear *bool) (*WaveBreakdown, error) {
	matches, err := s.store.QueryMatches(ctx, shift.ID, domain.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift waves: %w", err)
	}

	global, err := partitionWaves(flattenWaves(matches), isClear)
	if err != nil {
		s.logger.Error().Err(err).Int64("shift_id", shift.ID).Msg("wave outside dimension matrix")
		return nil, err
	}

	populations := make(map[dimension.Cell][]float64, len(global))
	reds := make(map[dimension.Cell][]float64, len(global))
	for cell, waves := range global {
		populations[cell] = stats.SortDesc(stats.Project(waves, waveGoldenEggs))
		reds[cell] = stats.Project(waves, waveRedEggs)
	}

	var best map[dimension.Cell]float64
	if playerID != "" {
		best, err = s.playerBest(ctx, shift.ID, playerID, isClear)
		if err != nil {
			return nil, err
		}
	}

	out := &WaveBreakdown{Cells: make(map[string]map[string]*WaveCell)}
	for _, tide := range domain.TideLevels() {
		row := make(map[string]*WaveCell)
		for _, event := range domain.EventTypes() {
			if !dimension.IsValidCell(tide, event) {
				row[event.String()] = nil
				continue
			}
			cell := dimension.Cell{Tide: tide, Event: event}
			population := populations[cell]
			wc := &WaveCell{Global: EggStats{
				GoldenEggs: stats.Aggregate(population),
				RedEggs:    stats.Aggregate(reds[cell]),
			}}
			if score, ok := best[cell]; ok {
				ranked := stats.RankIn(score, population)
				wc.Player = &ranked
			}
			row[event.String()] = wc
		}
		out.Cells[tide.String()] = row
	}

	s.logger.Debug().
		Int64("shift_id", shift.ID).
		Str("player_id", playerID).
		Int("match_count", len(matches)).
		Msg("wave breakdown computed")

	return out, nil
}

// playerBest returns the player's best golden egg count per cell.
func (s *WaveService) playerBest(ctx context.Context, shiftID int64, playerID string, isClear *bool) (map[dimension.Cell]float64, error) {
	matches, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{MemberID: &playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query player waves: %w", err)
	}

	parts, err := partitionWaves(flattenWaves(matches), isClear)
	if err != nil {
		return nil, err
	}

	best := make(map[dimension.Cell]float64, len(parts))
	for cell, waves := range parts {
		if v, ok := stats.Max(stats.Project(waves, waveGoldenEggs)); ok {
			best[cell] = v
		}
	}
	return best, nil
}

func flattenWaves(matches []domain.MatchResult) []domain.WaveRecord {
	var waves []domain.WaveRecord
	for i := range matches {
		waves = append(waves, matches[i].Waves...)
	}
	return waves
}

// partitionWaves validates every wave before filtering, so an illegal wave is
// rejected even when the filter would have dropped it.
func partitionWaves(waves []domain.WaveRecord, isClear *bool) (map[dimension.Cell][]domain.WaveRecord, error) {
	if err := dimension.Validate(waves); err != nil {
		return nil, err
	}
	if isClear != nil {
		waves = slices.DeleteFunc(waves, func(w domain.WaveRecord) bool { return w.IsClear != *isClear })
	}
	return dimension.Partition(waves)
}

func waveGoldenEggs(w domain.WaveRecord) int {
	return w.GoldenEggs
}

func waveRedEggs(w domain.WaveRecord) int {
	return w.RedEggs
}
