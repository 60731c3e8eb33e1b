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

func recordsStore() *memStore {
	return newMemStore(testShiftOf(3),
		match("m1", []string{"a", "b"}, 0, 0, dayWave(45), dayWave(52), dayWave(30)),
		match("m2", []string{"b", "a"}, 0, 0, dayWave(60), dayWave(10), dayWave(10)),
		match("m3", []string{"c"}, 0, 0, dayWave(52), dayWave(39), dayWave(20)),
		match("m4", []string{"d"}, 0, 0, dayWave(41), dayWave(41), dayWave(41)),
		match("m5", []string{"e"}, 0, 0, dayWave(39), dayWave(39), dayWave(39)),
	)
}

func TestRecords(t *testing.T) {
	resolver := stubResolver{names: map[string]string{"c": "Tako"}}
	svc := service.NewWaveRecordService(recordsStore(), resolver, zerolog.Nop())

	out, err := svc.Records(context.Background(), testShift, domain.TideNormal, domain.EventWaterLevels, 0)
	require.NoError(t, err)

	assert.Equal(t, "normal", out.Tide)
	assert.Equal(t, "water-levels", out.Event)
	require.Len(t, out.Records, 3, "one entry per team, below-threshold teams dropped")

	assert.Equal(t, 1, out.Records[0].Rank)
	assert.Equal(t, "m2", out.Records[0].MatchID)
	assert.Equal(t, 60, out.Records[0].GoldenEggs)

	assert.Equal(t, 2, out.Records[1].Rank)
	assert.Equal(t, 52, out.Records[1].GoldenEggs)
	assert.Equal(t, "Tako", out.Records[1].Members[0].DisplayName)

	assert.Equal(t, 3, out.Records[2].Rank)
	assert.Equal(t, 41, out.Records[2].GoldenEggs)
}

func TestRecordsLimitKeepsRanks(t *testing.T) {
	svc := service.NewWaveRecordService(recordsStore(), nil, zerolog.Nop())

	out, err := svc.Records(context.Background(), testShift, domain.TideNormal, domain.EventWaterLevels, 1)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 60, out.Records[0].GoldenEggs)
}

func TestRecordsTiesShareRank(t *testing.T) {
	store := newMemStore(testShiftOf(3),
		match("m1", []string{"a"}, 0, 0, dayWave(50), dayWave(0), dayWave(0)),
		match("m2", []string{"b"}, 0, 0, dayWave(50), dayWave(0), dayWave(0)),
		match("m3", []string{"c"}, 0, 0, dayWave(45), dayWave(0), dayWave(0)),
	)
	svc := service.NewWaveRecordService(store, nil, zerolog.Nop())

	out, err := svc.Records(context.Background(), testShift, domain.TideNormal, domain.EventWaterLevels, 0)
	require.NoError(t, err)
	require.Len(t, out.Records, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{out.Records[0].Rank, out.Records[1].Rank, out.Records[2].Rank})
}

func TestRecordsRejectsIllegalCell(t *testing.T) {
	store := recordsStore()
	svc := service.NewWaveRecordService(store, nil, zerolog.Nop())

	_, err := svc.Records(context.Background(), testShift, domain.TideLow, domain.EventRush, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, store.calls.Load())
}

func TestRecordsUnknownShift(t *testing.T) {
	svc := service.NewWaveRecordService(recordsStore(), nil, zerolog.Nop())

	_, err := svc.Records(context.Background(), 1, domain.TideNormal, domain.EventWaterLevels, 0)
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
}

func totalRecordsStore() *memStore {
	fog := wave{domain.TideNormal, domain.EventFog, 60}
	return newMemStore(testShiftOf(3),
		match("m1", []string{"a", "b"}, 150, 0),
		match("m2", []string{"b", "a"}, 140, 0),
		match("m3", []string{"c"}, 150, 0),
		match("m4", []string{"d"}, 131, 0),
		match("m5", []string{"e"}, 129, 0),
		match("m6", []string{"f"}, 200, 0, fog),
	)
}

func TestTotalRecords(t *testing.T) {
	resolver := stubResolver{names: map[string]string{"d": "Kuma"}}
	svc := service.NewWaveRecordService(totalRecordsStore(), resolver, zerolog.Nop())

	out, err := svc.TotalRecords(context.Background(), testShift, true, 0)
	require.NoError(t, err)

	assert.True(t, out.Nightless)
	require.Len(t, out.Records, 3, "one entry per team, below-threshold and night matches dropped")

	assert.Equal(t, "m1", out.Records[0].MatchID)
	assert.Equal(t, 150, out.Records[0].GoldenEggs)
	assert.Equal(t, "m3", out.Records[1].MatchID)
	assert.Equal(t, []int{1, 1, 3}, []int{out.Records[0].Rank, out.Records[1].Rank, out.Records[2].Rank})
	assert.Equal(t, "Kuma", out.Records[2].Members[0].DisplayName)
}

func TestTotalRecordsNight(t *testing.T) {
	svc := service.NewWaveRecordService(totalRecordsStore(), nil, zerolog.Nop())

	out, err := svc.TotalRecords(context.Background(), testShift, false, 0)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "m6", out.Records[0].MatchID)
	assert.Equal(t, 1, out.Records[0].Rank)
}

func TestTotalRecordsLimitKeepsRanks(t *testing.T) {
	svc := service.NewWaveRecordService(totalRecordsStore(), nil, zerolog.Nop())

	out, err := svc.TotalRecords(context.Background(), testShift, true, 2)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, 1, out.Records[1].Rank)
}

func TestTotalRecordsUnknownShift(t *testing.T) {
	store := totalRecordsStore()
	svc := service.NewWaveRecordService(store, nil, zerolog.Nop())

	_, err := svc.TotalRecords(context.Background(), 1, true, 0)
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
	assert.Equal(t, int32(1), store.calls.Load())
}
