package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, TeamKey([]string{"b", "a"}), TeamKey([]string{"a", "b", "a", " "}))

	members, err := ParseTeamKey(TeamKey([]string{"z", "y"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, members)
}

func validMatch() MatchResult {
	m := MatchResult{
		ID:        "m1",
		MemberIDs: []string{"a", "b"},
		Outcome:   Cleared(),
		Players:   []PlayerRecord{{PlayerID: "a"}},
	}
	for i := range 3 {
		m.Waves = append(m.Waves, WaveRecord{WaveIndex: i})
	}
	return m
}

func TestValidate(t *testing.T) {
	require.NoError(t, func() error { m := validMatch(); return m.Validate(3) }())

	cases := map[string]func(*MatchResult){
		"no members":         func(m *MatchResult) { m.MemberIDs = nil },
		"five members":       func(m *MatchResult) { m.MemberIDs = []string{"a", "b", "c", "d", "e"} },
		"unsorted members":   func(m *MatchResult) { m.MemberIDs = []string{"b", "a"} },
		"defeats exceed":     func(m *MatchResult) { m.BossDefeats[3] = 1 },
		"wave count":         func(m *MatchResult) { m.Waves = m.Waves[:2] },
		"failed wave range":  func(m *MatchResult) { m.Outcome = Failed(3, ReasonWipeOut) },
		"bad failure reason": func(m *MatchResult) { m.Outcome = Failed(0, FailureReason(9)) },
		"wave index":         func(m *MatchResult) { m.Waves[2].WaveIndex = 5 },
		"stranger player":    func(m *MatchResult) { m.Players = append(m.Players, PlayerRecord{PlayerID: "x"}) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := validMatch()
			mutate(&m)
			assert.ErrorIs(t, m.Validate(3), ErrInvariant)
		})
	}
}

func TestParseEnums(t *testing.T) {
	tide, err := ParseTideLevel("HIGH")
	require.NoError(t, err)
	assert.Equal(t, TideHigh, tide)

	event, err := ParseEventType("cohock-charge")
	require.NoError(t, err)
	assert.Equal(t, EventCohockCharge, event)
	assert.True(t, event.IsNight())
	assert.False(t, EventWaterLevels.IsNight())

	_, err = ParseTideLevel("tsunami")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = ParseEventType("")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	reason, err := ParseFailureReason("wipe_out")
	require.NoError(t, err)
	assert.Equal(t, ReasonWipeOut, reason)
}

func TestBossTypes(t *testing.T) {
	assert.Equal(t, "steelhead", BossType(0).String())
	assert.Equal(t, 21, BossType(8).GameID())
	assert.Equal(t, 0, BossType(9).GameID())

	data, err := json.Marshal(BossType(7))
	require.NoError(t, err)
	assert.JSONEq(t, `"goldie"`, string(data))
}

func TestMatchFilter(t *testing.T) {
	m := validMatch()
	m.Nightless = true

	assert.True(t, MatchFilter{}.Matches(&m))
	member := "b"
	assert.True(t, MatchFilter{MemberID: &member}.Matches(&m))
	other := "c"
	assert.False(t, MatchFilter{MemberID: &other}.Matches(&m))
	night := false
	assert.False(t, MatchFilter{Nightless: &night}.Matches(&m))
	failed := false
	assert.False(t, MatchFilter{IsClear: &failed}.Matches(&m))
}

func TestShiftRandomWeapon(t *testing.T) {
	assert.True(t, (&Shift{WeaponRotation: []int{1, RandomWeaponID}}).HasRandomWeapon())
	assert.False(t, (&Shift{WeaponRotation: []int{1, 2}}).HasRandomWeapon())
}
