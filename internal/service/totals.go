package service

import (
	"context"
	"fmt"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/stats"

	"github.com/rs/zerolog"
)

type TotalService struct {
	store  ResultStore
	logger zerolog.Logger
}

func NewTotalService(store ResultStore, logger zerolog.Logger) *TotalService {
	return &TotalService{store: store, logger: logger}
}

type EggStats struct {
	GoldenEggs stats.Summary `json:"golden_eggs"`
	RedEggs    stats.Summary `json:"red_eggs"`
}

type PlayerStats struct {
	GoldenEggs stats.Summary `json:"golden_eggs"`
	RedEggs    stats.Summary `json:"red_eggs"`
	Rescues    stats.Summary `json:"rescues"`
	Rescued    stats.Summary `json:"rescued"`
}

type GlobalTotals struct {
	All       EggStats `json:"all"`
	Nightless EggStats `json:"nightless"`
	Night     EggStats `json:"night"`
}

// ScopeRank ranks the player's best match against every match of one
// nightless scope. The ranks are nil when the player has no match there.
type ScopeRank struct {
	GoldenEggs *stats.Ranked `json:"golden_eggs"`
	RedEggs    *stats.Ranked `json:"red_eggs"`
	Count      int           `json:"count"`
}

type TotalRanks struct {
	Nightless ScopeRank `json:"nightless"`
	Night     ScopeRank `json:"night"`
}

// PlayerTotals holds the player-scoped granularities. Team, Player and Crew
// share one match filter, the player's own matches, and differ only in which
// player rows of those matches they project: all, the player's, or the rest.
type PlayerTotals struct {
	Team   PlayerStats `json:"team"`
	Player PlayerStats `json:"player"`
	Crew   PlayerStats `json:"crew"`
	Rank   TotalRanks  `json:"rank"`
}

// ForPlayer returns nil without a player, which the orchestrator reports as
// absent. A player without matches gets zero counts instead.
func (s *TotalService) ForPlayer(ctx context.Context, shiftID int64, playerID string, isClear *bool) (*PlayerTotals, error) {
	if playerID == "" {
		return nil, nil
	}

	mine, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{MemberID: &playerID, IsClear: isClear})
	if err != nil {
		return nil, fmt.Errorf("failed to query player matches: %w", err)
	}

	ranks, err := s.Ranks(ctx, shiftID, playerID)
	if err != nil {
		return nil, err
	}

	out := &PlayerTotals{
		Team:   playerStats(mine, func(*domain.PlayerRecord) bool { return true }),
		Player: playerStats(mine, func(p *domain.PlayerRecord) bool { return p.PlayerID == playerID }),
		Crew:   playerStats(mine, func(p *domain.PlayerRecord) bool { return p.PlayerID != playerID }),
		Rank:   *ranks,
	}

	s.logger.Debug().
		Int64("shift_id", shiftID).
		Str("player_id", playerID).
		Int("match_count", len(mine)).
		Msg("player totals computed")

	return out, nil
}

// Global uses the store's pushed-down aggregation, once ungrouped and once
// grouped by the nightless flag.
func (s *TotalService) Global(ctx context.Context, shiftID int64, isClear *bool) (*GlobalTotals, error) {
	filter := domain.MatchFilter{IsClear: isClear}

	all, err := s.store.AggregateMatches(ctx, shiftID, filter, false)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shift: %w", err)
	}
	grouped, err := s.store.AggregateMatches(ctx, shiftID, filter, true)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shift by nightless: %w", err)
	}

	var out GlobalTotals
	if len(all) > 0 {
		out.All = eggStatsFromAggregate(all[0])
	}
	for _, g := range grouped {
		if g.Nightless == nil {
			continue
		}
		if *g.Nightless {
			out.Nightless = eggStatsFromAggregate(g)
		} else {
			out.Night = eggStatsFromAggregate(g)
		}
	}
	return &out, nil
}

// Ranks compares the player's best match with the match-level population of
// each nightless scope. Duplicate submissions of a team are not collapsed.
func (s *TotalService) Ranks(ctx context.Context, shiftID int64, playerID string) (*TotalRanks, error) {
	matches, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift matches: %w", err)
	}
	return &TotalRanks{
		Nightless: scopeRank(matches, playerID, true),
		Night:     scopeRank(matches, playerID, false),
	}, nil
}

func scopeRank(matches []domain.MatchResult, playerID string, nightless bool) ScopeRank {
	var golden, red, myGolden, myRed []float64
	for i := range matches {
		m := &matches[i]
		if m.Nightless != nightless {
			continue
		}
		golden = append(golden, float64(m.GoldenEggs))
		red = append(red, float64(m.RedEggs))
		if m.HasMember(playerID) {
			myGolden = append(myGolden, float64(m.GoldenEggs))
			myRed = append(myRed, float64(m.RedEggs))
		}
	}

	out := ScopeRank{Count: len(golden)}
	if best, ok := stats.Max(myGolden); ok {
		r := stats.RankIn(best, stats.SortDesc(golden))
		out.GoldenEggs = &r
	}
	if best, ok := stats.Max(myRed); ok {
		r := stats.RankIn(best, stats.SortDesc(red))
		out.RedEggs = &r
	}
	return out
}

func eggStatsFromAggregate(a domain.MatchAggregate) EggStats {
	return EggStats{
		GoldenEggs: stats.FromPushdown(a.Count, a.GoldenEggs.Max, a.GoldenEggs.Min, a.GoldenEggs.Avg),
		RedEggs:    stats.FromPushdown(a.Count, a.RedEggs.Max, a.RedEggs.Min, a.RedEggs.Avg),
	}
}

func playerStats(matches []domain.MatchResult, keep func(*domain.PlayerRecord) bool) PlayerStats {
	var rows []domain.PlayerRecord
	for i := range matches {
		for j := range matches[i].Players {
			if keep(&matches[i].Players[j]) {
				rows = append(rows, matches[i].Players[j])
			}
		}
	}
	return PlayerStats{
		GoldenEggs: stats.Aggregate(stats.Project(rows, func(p domain.PlayerRecord) int { return p.GoldenEggs })),
		RedEggs:    stats.Aggregate(stats.Project(rows, func(p domain.PlayerRecord) int { return p.RedEggs })),
		Rescues:    stats.Aggregate(stats.Project(rows, func(p domain.PlayerRecord) int { return p.Rescues })),
		Rescued:    stats.Aggregate(stats.Project(rows, func(p domain.PlayerRecord) int { return p.Rescued })),
	}
}
