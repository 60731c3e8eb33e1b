package service

import (
	"context"
	"fmt"
	"slices"

	"salmon-stats/internal/constants"
	"salmon-stats/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type LeaderboardService struct {
	store    ResultStore
	resolver NicknameResolver
	logger   zerolog.Logger
}

func NewLeaderboardService(store ResultStore, resolver NicknameResolver, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{store: store, resolver: resolver, logger: logger}
}

// TeamEntry is one distinct member set. The non-ranking metric is whatever the
// kept match recorded, not the team's own best for that metric.
type TeamEntry struct {
	Rank       int               `json:"rank"`
	MatchID    string            `json:"match_id"`
	Members    []domain.Nickname `json:"members"`
	GoldenEggs int               `json:"golden_eggs"`
	RedEggs    int               `json:"red_eggs"`
}

type MetricBoards struct {
	GoldenEggs []TeamEntry `json:"golden_eggs"`
	RedEggs    []TeamEntry `json:"red_eggs"`
}

type Leaderboard struct {
	Nightless MetricBoards `json:"nightless"`
	Night     MetricBoards `json:"night"`
}

type boardKey struct {
	nightless bool
	metric    domain.Metric
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, shiftID int64) (*Leaderboard, error) {
	keys := []boardKey{
		{true, domain.MetricGoldenEggs},
		{true, domain.MetricRedEggs},
		{false, domain.MetricGoldenEggs},
		{false, domain.MetricRedEggs},
	}
	rows := make([][]domain.MatchResult, len(keys))

	g, gCtx := errgroup.WithContext(ctx)
	for i, k := range keys {
		g.Go(func() error {
			matches, err := s.store.ListDistinctTeams(gCtx, shiftID, k.nightless, k.metric, constants.LeaderboardSize)
			if err != nil {
				return fmt.Errorf("failed to list teams (nightless=%t, metric=%s): %w", k.nightless, k.metric, err)
			}
			rows[i] = TopTeams(matches, k.metric, constants.LeaderboardSize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []string
	for _, matches := range rows {
		for i := range matches {
			ids = append(ids, matches[i].MemberIDs...)
		}
	}
	names := lookupNicknames(ctx, s.resolver, s.logger, ids)

	boards := make(map[boardKey][]TeamEntry, len(keys))
	for i, k := range keys {
		boards[k] = rankTeams(rows[i], names)
	}

	return &Leaderboard{
		Nightless: MetricBoards{
			GoldenEggs: boards[keys[0]],
			RedEggs:    boards[keys[1]],
		},
		Night: MetricBoards{
			GoldenEggs: boards[keys[2]],
			RedEggs:    boards[keys[3]],
		},
	}, nil
}

// TopTeams keeps the best match of each member set by metric and returns at
// most limit of them, best first. Ties keep the order the matches were seen
// in, so the first match seen for a team wins a tie with its later ones.
func TopTeams(matches []domain.MatchResult, metric domain.Metric, limit int) []domain.MatchResult {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b domain.MatchResult) int {
		return metric.Of(&b) - metric.Of(&a)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]domain.MatchResult, 0, min(limit, len(sorted)))
	for i := range sorted {
		if len(out) == limit {
			break
		}
		key := sorted[i].TeamKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sorted[i])
	}
	return out
}

// rankTeams numbers an already deduplicated, sorted list 1..n.
func rankTeams(matches []domain.MatchResult, names map[string]domain.Nickname) []TeamEntry {
	out := make([]TeamEntry, 0, len(matches))
	for i := range matches {
		out = append(out, TeamEntry{
			Rank:       i + 1,
			MatchID:    matches[i].ID,
			Members:    decorateMembers(matches[i].MemberIDs, names),
			GoldenEggs: matches[i].GoldenEggs,
			RedEggs:    matches[i].RedEggs,
		})
	}
	return out
}
