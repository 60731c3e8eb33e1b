package service_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/service"
)

const testShift int64 = 1700000000

// memStore is an in-memory result store. Every call is counted, cancelled or
// not. A positive delay stalls QueryMatches until it elapses or ctx ends.
type memStore struct {
	shifts  map[int64]*domain.Shift
	matches []domain.MatchResult
	delay   time.Duration
	calls   atomic.Int32
}

var _ service.ResultStore = (*memStore)(nil)

func newMemStore(shift *domain.Shift, matches ...domain.MatchResult) *memStore {
	return &memStore{
		shifts:  map[int64]*domain.Shift{shift.ID: shift},
		matches: matches,
	}
}

func (s *memStore) enter(ctx context.Context) error {
	s.calls.Add(1)
	return ctx.Err()
}

func (s *memStore) GetShift(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	return shift, nil
}

func (s *memStore) QueryMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter) ([]domain.MatchResult, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.filter(shiftID, filter), nil
}

func (s *memStore) AggregateMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter, groupByNightless bool) ([]domain.MatchAggregate, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	matches := s.filter(shiftID, filter)
	if !groupByNightless {
		return []domain.MatchAggregate{aggregate(matches, nil)}, nil
	}

	var out []domain.MatchAggregate
	for _, nightless := range []bool{false, true} {
		var group []domain.MatchResult
		for _, m := range matches {
			if m.Nightless == nightless {
				group = append(group, m)
			}
		}
		if len(group) > 0 {
			out = append(out, aggregate(group, &nightless))
		}
	}
	return out, nil
}

func (s *memStore) ListDistinctTeams(ctx context.Context, shiftID int64, nightless bool, metric domain.Metric, limit int) ([]domain.MatchResult, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	return service.TopTeams(s.filter(shiftID, domain.MatchFilter{Nightless: &nightless}), metric, limit), nil
}

func (s *memStore) filter(shiftID int64, f domain.MatchFilter) []domain.MatchResult {
	out := []domain.MatchResult{}
	for i := range s.matches {
		if s.matches[i].ShiftID == shiftID && f.Matches(&s.matches[i]) {
			out = append(out, s.matches[i])
		}
	}
	return out
}

func aggregate(matches []domain.MatchResult, nightless *bool) domain.MatchAggregate {
	agg := domain.MatchAggregate{Nightless: nightless, Count: len(matches)}
	if len(matches) == 0 {
		return agg
	}
	egg := func(pick func(domain.MatchResult) int) domain.EggAggregate {
		vals := make([]int, len(matches))
		sum := 0
		for i, m := range matches {
			vals[i] = pick(m)
			sum += vals[i]
		}
		return domain.EggAggregate{
			Max: float64(slices.Max(vals)),
			Min: float64(slices.Min(vals)),
			Avg: float64(sum) / float64(len(vals)),
		}
	}
	agg.GoldenEggs = egg(func(m domain.MatchResult) int { return m.GoldenEggs })
	agg.RedEggs = egg(func(m domain.MatchResult) int { return m.RedEggs })
	return agg
}

type stubResolver struct {
	names map[string]string
	err   error
}

func (r stubResolver) Resolve(_ context.Context, ids []string) (map[string]domain.Nickname, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[string]domain.Nickname, len(ids))
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out[id] = domain.Nickname{PlayerID: id, DisplayName: name}
		}
	}
	return out, nil
}

var errResolver = errors.New("nickname service down")

type recorded struct {
	facet, status string
}

type memRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *memRecorder) ObserveFacet(facet, status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recorded{facet, status})
}

func testShiftOf(waveCount int, rotation ...int) *domain.Shift {
	return &domain.Shift{
		ID:             testShift,
		EndTime:        time.Unix(testShift, 0).Add(48 * time.Hour),
		WeaponRotation: rotation,
		WaveCount:      waveCount,
	}
}

type wave struct {
	tide   domain.TideLevel
	event  domain.EventType
	golden int
}

func dayWave(golden int) wave {
	return wave{domain.TideNormal, domain.EventWaterLevels, golden}
}

// match builds a match whose nightless flag follows its waves.
func match(id string, members []string, golden, red int, waves ...wave) domain.MatchResult {
	m := domain.MatchResult{
		ID:         id,
		ShiftID:    testShift,
		MemberIDs:  domain.NormalizeMembers(members),
		GoldenEggs: golden,
		RedEggs:    red,
		Outcome:    domain.Cleared(),
		Nightless:  true,
	}
	for i, w := range waves {
		m.Waves = append(m.Waves, domain.WaveRecord{
			MatchID:    id,
			WaveIndex:  i,
			TideLevel:  w.tide,
			EventType:  w.event,
			GoldenEggs: w.golden,
			IsClear:    true,
		})
		if w.event.IsNight() {
			m.Nightless = false
		}
	}
	return m
}

// failAt fails m on one wave and clears that wave's flag, as ingestion does.
func failAt(m domain.MatchResult, wave int, reason domain.FailureReason) domain.MatchResult {
	m.Outcome = domain.Failed(wave, reason)
	m.Waves = slices.Clone(m.Waves)
	for i := range m.Waves {
		m.Waves[i].IsClear = m.Waves[i].WaveIndex != wave
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
