package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"salmon-stats/internal/constants"
	"salmon-stats/internal/domain"
	"salmon-stats/internal/stats"

	"github.com/rs/zerolog"
)

// WeaponService ranks uploaders by how many distinct weapons a random
// rotation handed them during one shift.
type WeaponService struct {
	store    ResultStore
	resolver NicknameResolver
	logger   zerolog.Logger
}

func NewWeaponService(store ResultStore, resolver NicknameResolver, logger zerolog.Logger) *WeaponService {
	return &WeaponService{store: store, resolver: resolver, logger: logger}
}

type SuppliedWeapons struct {
	Rank         int             `json:"rank"`
	Player       domain.Nickname `json:"player"`
	WeaponKinds  int             `json:"supplied_weapon_counts"`
	ShiftsWorked int             `json:"shifts_worked"`
}

// weaponTally keeps, per weapon, the first job that supplied it.
type weaponTally struct {
	playerID string
	firstJob map[int]int
}

// shiftsWorked spans the first-seen jobs only, so repeat jobs after the set
// was complete do not extend it.
func (t *weaponTally) shiftsWorked() int {
	lo, hi := math.MaxInt, math.MinInt
	for _, job := range t.firstJob {
		lo = min(lo, job)
		hi = max(hi, job)
	}
	return hi - lo + 1
}

// Ranking counts distinct supplied weapons per uploader. Uploaders that were
// never supplied a weapon are left out.
func (s *WeaponService) Ranking(ctx context.Context, shiftID int64) ([]SuppliedWeapons, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if !shift.HasRandomWeapon() {
		return nil, fmt.Errorf("%w: %d", domain.ErrNoRandomWeapon, shiftID)
	}

	matches, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift matches: %w", err)
	}

	tallies := make(map[string]*weaponTally)
	for i := range matches {
		for _, p := range matches[i].Players {
			if p.Uploader == nil || len(p.SuppliedWeapons) == 0 {
				continue
			}
			t, ok := tallies[p.PlayerID]
			if !ok {
				t = &weaponTally{playerID: p.PlayerID, firstJob: make(map[int]int)}
				tallies[p.PlayerID] = t
			}
			job := p.Uploader.JobID
			for _, w := range p.SuppliedWeapons {
				if first, seen := t.firstJob[w]; !seen || job < first {
					t.firstJob[w] = job
				}
			}
		}
	}

	counts := make([]float64, 0, len(tallies))
	for _, t := range tallies {
		counts = append(counts, float64(len(t.firstJob)))
	}
	population := stats.SortDesc(counts)

	rows := make([]SuppliedWeapons, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, SuppliedWeapons{
			Rank:         *stats.Rank(float64(len(t.firstJob)), population),
			Player:       domain.Nickname{PlayerID: t.playerID},
			WeaponKinds:  len(t.firstJob),
			ShiftsWorked: t.shiftsWorked(),
		})
	}
	slices.SortFunc(rows, func(a, b SuppliedWeapons) int {
		if a.Rank != b.Rank {
			return a.Rank - b.Rank
		}
		if a.ShiftsWorked != b.ShiftsWorked {
			return a.ShiftsWorked - b.ShiftsWorked
		}
		return strings.Compare(a.Player.PlayerID, b.Player.PlayerID)
	})
	rows = rows[:min(constants.WeaponRankingLimit, len(rows))]

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].Player.PlayerID
	}
	names := lookupNicknames(ctx, s.resolver, s.logger, ids)
	for i := range rows {
		if n, ok := names[rows[i].Player.PlayerID]; ok {
			n.PlayerID = rows[i].Player.PlayerID
			rows[i].Player = n
		}
	}

	s.logger.Debug().Int64("shift_id", shiftID).Int("player_count", len(rows)).Msg("supplied weapon ranking computed")
	return rows, nil
}
