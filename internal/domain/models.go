package domain

import (
	"fmt"
	"slices"
	"time"
)

const (
	MaxMembers     = 4
	BossTypeCount  = 9
	DefaultWaves   = 3
	RandomWeaponID = -1
)

type Shift struct {
	ID             int64 // unix start time
	EndTime        time.Time
	StageID        int
	WeaponRotation []int
	WaveCount      int
	CreatedAt      time.Time
}

func (s *Shift) StartTime() time.Time {
	return time.Unix(s.ID, 0)
}

func (s *Shift) HasRandomWeapon() bool {
	return slices.Contains(s.WeaponRotation, RandomWeaponID)
}

type JobOutcome struct {
	IsClear       bool
	FailedWave    int // 0-based, valid when !IsClear
	FailureReason FailureReason
}

func Cleared() JobOutcome {
	return JobOutcome{IsClear: true}
}

func Failed(wave int, reason FailureReason) JobOutcome {
	return JobOutcome{FailedWave: wave, FailureReason: reason}
}

type MatchResult struct {
	ID              string
	ShiftID         int64
	PlayTime        time.Time
	Nightless       bool
	MemberIDs       []string // sorted, unique, team identity
	GoldenEggs      int
	RedEggs         int
	DangerRate      float64
	Outcome         JobOutcome
	BossAppearances [BossTypeCount]int
	BossDefeats     [BossTypeCount]int
	Waves           []WaveRecord
	Players         []PlayerRecord
}

// HasMember reports whether playerID belongs to the match's member set.
func (m *MatchResult) HasMember(playerID string) bool {
	_, ok := slices.BinarySearch(m.MemberIDs, playerID)
	return ok
}

// TeamKey is the identity of the member set.
func (m *MatchResult) TeamKey() string {
	return TeamKey(m.MemberIDs)
}

func (m *MatchResult) Player(playerID string) (*PlayerRecord, bool) {
	for i := range m.Players {
		if m.Players[i].PlayerID == playerID {
			return &m.Players[i], true
		}
	}
	return nil, false
}

// Validate checks the structural invariants of a committed match. The wave
// cell check lives in the dimension package.
func (m *MatchResult) Validate(waveCount int) error {
	if n := len(m.MemberIDs); n < 1 || n > MaxMembers {
		return fmt.Errorf("%w: match %s has %d members", ErrInvariant, m.ID, n)
	}
	for i := 1; i < len(m.MemberIDs); i++ {
		if m.MemberIDs[i-1] >= m.MemberIDs[i] {
			return fmt.Errorf("%w: match %s members not sorted and unique", ErrInvariant, m.ID)
		}
	}
	for i := range BossTypeCount {
		if m.BossAppearances[i] < m.BossDefeats[i] {
			return fmt.Errorf("%w: match %s boss %s defeated %d of %d", ErrInvariant, m.ID, BossType(i), m.BossDefeats[i], m.BossAppearances[i])
		}
	}
	if len(m.Waves) != waveCount {
		return fmt.Errorf("%w: match %s has %d waves, shift defines %d", ErrInvariant, m.ID, len(m.Waves), waveCount)
	}
	if !m.Outcome.IsClear {
		if m.Outcome.FailedWave < 0 || m.Outcome.FailedWave >= waveCount {
			return fmt.Errorf("%w: match %s failed on wave %d", ErrInvariant, m.ID, m.Outcome.FailedWave)
		}
		if !m.Outcome.FailureReason.Valid() {
			return fmt.Errorf("%w: match %s has unknown failure reason", ErrInvariant, m.ID)
		}
	}
	for _, w := range m.Waves {
		if w.WaveIndex < 0 || w.WaveIndex >= waveCount {
			return fmt.Errorf("%w: match %s wave index %d", ErrInvariant, m.ID, w.WaveIndex)
		}
	}
	for _, p := range m.Players {
		if !m.HasMember(p.PlayerID) {
			return fmt.Errorf("%w: match %s player %s is not a member", ErrInvariant, m.ID, p.PlayerID)
		}
	}
	return nil
}

type WaveRecord struct {
	MatchID         string
	WaveIndex       int
	EventType       EventType
	TideLevel       TideLevel
	GoldenEggs      int
	GoldenEggQuota  int
	GoldenEggPopped int
	RedEggs         int
	IsClear         bool
}

// UploaderFields are only known for the account that submitted the match.
// They are filled once and never overwritten.
type UploaderFields struct {
	JobID           int
	JobScore        int
	JobRate         int
	KumaPoint       int
	GradeID         int
	GradePoint      int
	GradePointDelta int
}

type PlayerRecord struct {
	MatchID          string
	PlayerID         string
	BossDefeats      [BossTypeCount]int
	Rescues          int
	Rescued          int
	GoldenEggs       int
	RedEggs          int
	SuppliedWeapons  []int
	SuppliedSpecial  int
	SpecialUseCounts []int
	Uploader         *UploaderFields
}

// Nickname is presentation metadata for a player id.
type Nickname struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}
