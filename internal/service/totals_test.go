package service_test

import (
	"context"
	"testing"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalsStore() *memStore {
	m1 := match("m1", []string{"a", "b"}, 140, 4000, dayWave(50), dayWave(50), dayWave(40))
	m1.Players = []domain.PlayerRecord{
		{PlayerID: "a", GoldenEggs: 60, RedEggs: 1500, Rescues: 3, Rescued: 1},
		{PlayerID: "b", GoldenEggs: 80, RedEggs: 2500, Rescues: 1, Rescued: 2},
	}

	m2 := failAt(match("m2", []string{"a"}, 100, 3000, dayWave(30), dayWave(30), dayWave(40)), 2, domain.ReasonWipeOut)
	m2.Players = []domain.PlayerRecord{{PlayerID: "a", GoldenEggs: 100, RedEggs: 3000}}

	m3 := match("m3", []string{"c"}, 150, 2000, dayWave(50), wave{domain.TideNormal, domain.EventGriller, 50}, dayWave(50))
	m4 := match("m4", []string{"c"}, 60, 1000, dayWave(20), dayWave(20), dayWave(20))

	return newMemStore(testShiftOf(3), m1, m2, m3, m4)
}

func TestGlobalTotals(t *testing.T) {
	svc := service.NewTotalService(totalsStore(), zerolog.Nop())

	totals, err := svc.Global(context.Background(), testShift, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, totals.All.GoldenEggs.Count)
	assert.Equal(t, 150.0, *totals.All.GoldenEggs.Max)
	assert.Equal(t, 112.5, *totals.All.GoldenEggs.Avg)
	assert.Equal(t, 3, totals.Nightless.GoldenEggs.Count)
	assert.Equal(t, 1, totals.Night.GoldenEggs.Count)
}

func TestPlayerTotalsWithoutPlayerIsAbsent(t *testing.T) {
	store := totalsStore()
	svc := service.NewTotalService(store, zerolog.Nop())

	totals, err := svc.ForPlayer(context.Background(), testShift, "", nil)
	require.NoError(t, err)
	assert.Nil(t, totals)
	assert.Zero(t, store.calls.Load())
}

func TestPlayerTotals(t *testing.T) {
	svc := service.NewTotalService(totalsStore(), zerolog.Nop())

	totals, err := svc.ForPlayer(context.Background(), testShift, "a", nil)
	require.NoError(t, err)
	require.NotNil(t, totals)

	assert.Equal(t, 3, totals.Team.GoldenEggs.Count, "team projects every player row of the player's matches")
	assert.Equal(t, 80.0, *totals.Team.GoldenEggs.Avg)
	assert.Equal(t, 100.0, *totals.Team.GoldenEggs.Max)
	assert.Equal(t, 60.0, *totals.Team.GoldenEggs.Min)
	assert.Equal(t, 3000.0, *totals.Team.RedEggs.Max)
	assert.Equal(t, 1500.0, *totals.Team.RedEggs.Min)
	assert.Equal(t, 3.0, *totals.Team.Rescues.Max)
	assert.Equal(t, 2.0, *totals.Team.Rescued.Max)

	assert.Equal(t, 2, totals.Player.GoldenEggs.Count)
	assert.Equal(t, 100.0, *totals.Player.GoldenEggs.Max)
	assert.Equal(t, 3.0, *totals.Player.Rescues.Max)

	assert.Equal(t, 1, totals.Crew.GoldenEggs.Count)
	assert.Equal(t, 80.0, *totals.Crew.GoldenEggs.Max)
	assert.Equal(t, 2.0, *totals.Crew.Rescued.Max)

	nightless := totals.Rank.Nightless
	assert.Equal(t, 3, nightless.Count)
	require.NotNil(t, nightless.GoldenEggs)
	assert.Equal(t, 1, *nightless.GoldenEggs.Rank)
	assert.Equal(t, 140.0, nightless.GoldenEggs.Score)
	assert.Equal(t, 1, *nightless.RedEggs.Rank)

	night := totals.Rank.Night
	assert.Equal(t, 1, night.Count)
	assert.Nil(t, night.GoldenEggs, "player has no night match")
}

func TestTotalsClearFilter(t *testing.T) {
	svc := service.NewTotalService(totalsStore(), zerolog.Nop())
	ctx := context.Background()

	global, err := svc.Global(ctx, testShift, ptr(true))
	require.NoError(t, err)
	assert.Equal(t, 3, global.All.GoldenEggs.Count)

	totals, err := svc.ForPlayer(ctx, testShift, "a", ptr(true))
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Team.GoldenEggs.Count)
	assert.Equal(t, 60.0, *totals.Player.GoldenEggs.Max)
	assert.Equal(t, 3, totals.Rank.Nightless.Count, "ranks ignore the clear filter")
}

func TestPlayerTotalsUnknownPlayerIsEmpty(t *testing.T) {
	svc := service.NewTotalService(totalsStore(), zerolog.Nop())

	totals, err := svc.ForPlayer(context.Background(), testShift, "nobody", nil)
	require.NoError(t, err)
	require.NotNil(t, totals)

	assert.Zero(t, totals.Team.GoldenEggs.Count)
	assert.Nil(t, totals.Team.GoldenEggs.Avg)
	assert.Nil(t, totals.Rank.Nightless.GoldenEggs)
}
