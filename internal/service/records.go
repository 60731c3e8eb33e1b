package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"salmon-stats/internal/constants"
	"salmon-stats/internal/dimension"
	"salmon-stats/internal/domain"
	"salmon-stats/internal/stats"

	"github.com/rs/zerolog"
)

// WaveRecordService ranks teams by their best single wave in one cell, and
// by their best whole match.
type WaveRecordService struct {
	store    ResultStore
	resolver NicknameResolver
	logger   zerolog.Logger
}

func NewWaveRecordService(store ResultStore, resolver NicknameResolver, logger zerolog.Logger) *WaveRecordService {
	return &WaveRecordService{store: store, resolver: resolver, logger: logger}
}

type TeamRecord struct {
	Rank       int               `json:"rank"`
	MatchID    string            `json:"match_id"`
	Members    []domain.Nickname `json:"members"`
	GoldenEggs int               `json:"golden_eggs"`
}

type WaveRecords struct {
	Tide    string       `json:"tide"`
	Event   string       `json:"event"`
	Records []TeamRecord `json:"records"`
}

type TotalRecords struct {
	Nightless bool         `json:"nightless"`
	Records   []TeamRecord `json:"records"`
}

type teamBest struct {
	members []string
	matchID string
	score   int
}

func (s *WaveRecordService) Records(ctx context.Context, shiftID int64, tide domain.TideLevel, event domain.EventType, limit int) (*WaveRecords, error) {
	if !dimension.IsValidCell(tide, event) {
		return nil, fmt.Errorf("%w: %s/%s is not a playable wave", domain.ErrInvalidRequest, tide, event)
	}
	if limit <= 0 {
		limit = constants.WaveRecordLimit
	}

	if _, err := s.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}

	matches, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift matches: %w", err)
	}

	teams := make(map[string]*teamBest)
	for i := range matches {
		m := &matches[i]
		if err := dimension.Validate(m.Waves); err != nil {
			return nil, err
		}
		for _, w := range m.Waves {
			if w.TideLevel != tide || w.EventType != event || w.GoldenEggs < constants.WaveRecordThreshold {
				continue
			}
			key := m.TeamKey()
			if cur, ok := teams[key]; !ok || w.GoldenEggs > cur.score {
				teams[key] = &teamBest{members: m.MemberIDs, matchID: m.ID, score: w.GoldenEggs}
			}
		}
	}

	best := make([]*teamBest, 0, len(teams))
	for _, t := range teams {
		best = append(best, t)
	}

	return &WaveRecords{
		Tide:    tide.String(),
		Event:   event.String(),
		Records: s.rankRecords(ctx, best, limit),
	}, nil
}

// TotalRecords ranks teams by their best match golden eggs among matches of
// one nightless flag at or above the record threshold.
func (s *WaveRecordService) TotalRecords(ctx context.Context, shiftID int64, nightless bool, limit int) (*TotalRecords, error) {
	if limit <= 0 {
		limit = constants.TotalRecordLimit
	}

	if _, err := s.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}

	matches, err := s.store.QueryMatches(ctx, shiftID, domain.MatchFilter{Nightless: &nightless})
	if err != nil {
		return nil, fmt.Errorf("failed to query shift matches: %w", err)
	}

	eligible := slices.DeleteFunc(matches, func(m domain.MatchResult) bool {
		return m.GoldenEggs < constants.TotalRecordThreshold
	})
	top := TopTeams(eligible, domain.MetricGoldenEggs, len(eligible))

	best := make([]*teamBest, len(top))
	for i := range top {
		best[i] = &teamBest{members: top[i].MemberIDs, matchID: top[i].ID, score: top[i].GoldenEggs}
	}

	return &TotalRecords{
		Nightless: nightless,
		Records:   s.rankRecords(ctx, best, limit),
	}, nil
}

// rankRecords ranks every team against the full population, then keeps the
// first limit entries and decorates them with nicknames.
func (s *WaveRecordService) rankRecords(ctx context.Context, best []*teamBest, limit int) []TeamRecord {
	slices.SortFunc(best, func(a, b *teamBest) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return strings.Compare(a.matchID, b.matchID)
	})

	population := make([]float64, len(best))
	for i, t := range best {
		population[i] = float64(t.score)
	}
	best = best[:min(limit, len(best))]

	var ids []string
	for _, t := range best {
		ids = append(ids, t.members...)
	}
	names := lookupNicknames(ctx, s.resolver, s.logger, ids)

	out := make([]TeamRecord, 0, len(best))
	for _, t := range best {
		out = append(out, TeamRecord{
			Rank:       *stats.Rank(float64(t.score), population),
			MatchID:    t.matchID,
			Members:    decorateMembers(t.members, names),
			GoldenEggs: t.score,
		})
	}
	return out
}
