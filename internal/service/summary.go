package service

import (
	"context"
	"fmt"

	"salmon-stats/internal/dimension"
	"salmon-stats/internal/domain"
	"salmon-stats/internal/stats"

	"github.com/rs/zerolog"
)

type SummaryService struct {
	store  ResultStore
	logger zerolog.Logger
}

func NewSummaryService(store ResultStore, logger zerolog.Logger) *SummaryService {
	return &SummaryService{store: store, logger: logger}
}

type FailureCounts struct {
	TimeLimit int `json:"time_limit"`
	WipeOut   int `json:"wipe_out"`
}

func (f *FailureCounts) add(reason domain.FailureReason) {
	switch reason {
	case domain.ReasonTimeLimit:
		f.TimeLimit++
	case domain.ReasonWipeOut:
		f.WipeOut++
	}
}

// BossResult sums a boss type over the shift. The max fields are the most
// seen in one match, nil when the shift has no matches.
type BossResult struct {
	Boss           domain.BossType `json:"boss"`
	Appearances    int             `json:"appearances"`
	Defeated       int             `json:"defeated"`
	AppearancesMax *int            `json:"appearances_max"`
	DefeatedMax    *int            `json:"defeated_max"`
}

// WaveResult is the best single wave of one cell that occurred in the shift.
type WaveResult struct {
	Tide       string `json:"tide"`
	Event      string `json:"event"`
	GoldenEggs int    `json:"golden_eggs_max"`
	RedEggs    int    `json:"red_eggs_max"`
}

// ShiftSummary is the flat per-shift rollup. Boss totals are sums over every
// match of the shift.
type ShiftSummary struct {
	MatchCount    int                              `json:"match_count"`
	ClearCount    int                              `json:"is_clear_count"`
	FailureCount  int                              `json:"is_failure_count"`
	FailureByWave []FailureCounts                  `json:"failure_by_wave"`
	GoldenEggs    stats.Spread                     `json:"golden_eggs"`
	RedEggs       stats.Spread                     `json:"red_eggs"`
	Bosses        [domain.BossTypeCount]BossResult `json:"boss_results"`
	WaveResults   []WaveResult                     `json:"wave_results"`
}

func (s *SummaryService) Summary(ctx context.Context, shift *domain.Shift) (*ShiftSummary, error) {
	matches, err := s.store.QueryMatches(ctx, shift.ID, domain.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift matches: %w", err)
	}

	waveCount := shift.WaveCount
	if waveCount <= 0 {
		waveCount = domain.DefaultWaves
	}

	out := &ShiftSummary{
		MatchCount:    len(matches),
		FailureByWave: make([]FailureCounts, waveCount),
	}
	for i := range out.Bosses {
		out.Bosses[i].Boss = domain.BossType(i)
	}

	golden := make([]float64, 0, len(matches))
	red := make([]float64, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		golden = append(golden, float64(m.GoldenEggs))
		red = append(red, float64(m.RedEggs))

		if m.Outcome.IsClear {
			out.ClearCount++
		} else {
			out.FailureCount++
			if w := m.Outcome.FailedWave; w >= 0 && w < waveCount {
				out.FailureByWave[w].add(m.Outcome.FailureReason)
			} else {
				s.logger.Warn().Str("match_id", m.ID).Int("failed_wave", w).Msg("failure wave out of range")
			}
		}

		for b := range domain.BossTypeCount {
			r := &out.Bosses[b]
			r.Appearances += m.BossAppearances[b]
			r.Defeated += m.BossDefeats[b]
			r.AppearancesMax = maxOf(r.AppearancesMax, m.BossAppearances[b])
			r.DefeatedMax = maxOf(r.DefeatedMax, m.BossDefeats[b])
		}
	}

	out.GoldenEggs = stats.Deviation(golden)
	out.RedEggs = stats.Deviation(red)

	cells, err := dimension.Partition(flattenWaves(matches))
	if err != nil {
		s.logger.Error().Err(err).Int64("shift_id", shift.ID).Msg("wave outside dimension matrix")
		return nil, err
	}
	out.WaveResults = make([]WaveResult, 0, len(cells))
	for _, cell := range dimension.Cells() {
		waves, ok := cells[cell]
		if !ok || len(waves) == 0 {
			continue
		}
		golden, _ := stats.Max(stats.Project(waves, waveGoldenEggs))
		red, _ := stats.Max(stats.Project(waves, waveRedEggs))
		out.WaveResults = append(out.WaveResults, WaveResult{
			Tide:       cell.Tide.String(),
			Event:      cell.Event.String(),
			GoldenEggs: int(golden),
			RedEggs:    int(red),
		})
	}

	s.logger.Debug().Int64("shift_id", shift.ID).Int("match_count", len(matches)).Msg("shift summary computed")
	return out, nil
}

func maxOf(cur *int, v int) *int {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}
