package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

type TideLevel int

const (
	TideLow TideLevel = iota
	TideNormal
	TideHigh
)

var tideNames = []string{"low", "normal", "high"}

func TideLevels() []TideLevel {
	return []TideLevel{TideLow, TideNormal, TideHigh}
}

func (t TideLevel) Valid() bool {
	return t >= TideLow && t <= TideHigh
}

func (t TideLevel) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tide(%d)", int(t))
	}
	return tideNames[t]
}

func ParseTideLevel(s string) (TideLevel, error) {
	i := slices.Index(tideNames, strings.ToLower(s))
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown tide level %q", ErrInvalidRequest, s)
	}
	return TideLevel(i), nil
}

// EventType ordinals are persisted; do not reorder.
type EventType int

const (
	EventWaterLevels EventType = iota
	EventRush
	EventGoldieSeeking
	EventGriller
	EventFog
	EventTheMothership
	EventCohockCharge
)

var eventNames = []string{
	"water-levels",
	"rush",
	"goldie-seeking",
	"griller",
	"fog",
	"the-mothership",
	"cohock-charge",
}

func EventTypes() []EventType {
	out := make([]EventType, len(eventNames))
	for i := range eventNames {
		out[i] = EventType(i)
	}
	return out
}

func (e EventType) Valid() bool {
	return e >= EventWaterLevels && e <= EventCohockCharge
}

// IsNight reports whether the event is a night wave.
func (e EventType) IsNight() bool {
	return e != EventWaterLevels
}

func (e EventType) String() string {
	if !e.Valid() {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

func ParseEventType(s string) (EventType, error) {
	i := slices.Index(eventNames, strings.ToLower(s))
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown event type %q", ErrInvalidRequest, s)
	}
	return EventType(i), nil
}

type FailureReason int

const (
	ReasonTimeLimit FailureReason = iota
	ReasonWipeOut
)

func (r FailureReason) Valid() bool {
	return r == ReasonTimeLimit || r == ReasonWipeOut
}

func (r FailureReason) String() string {
	switch r {
	case ReasonTimeLimit:
		return "time_limit"
	case ReasonWipeOut:
		return "wipe_out"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

func ParseFailureReason(s string) (FailureReason, error) {
	switch s {
	case "time_limit":
		return ReasonTimeLimit, nil
	case "wipe_out":
		return ReasonWipeOut, nil
	}
	return 0, fmt.Errorf("%w: unknown failure reason %q", ErrInvalidRequest, s)
}

// BossType is the ordinal into the fixed boss arrays of a match.
type BossType int

var bossTypes = []struct {
	name string
	id   int
}{
	{"steelhead", 3},
	{"flyfish", 6},
	{"scrapper", 9},
	{"steel-eel", 12},
	{"stinger", 13},
	{"maws", 14},
	{"griller", 15},
	{"goldie", 16},
	{"drizzler", 21},
}

func (b BossType) String() string {
	if b < 0 || int(b) >= len(bossTypes) {
		return fmt.Sprintf("boss(%d)", int(b))
	}
	return bossTypes[b].name
}

// GameID is the identifier the game client reports for the boss.
func (b BossType) GameID() int {
	if b < 0 || int(b) >= len(bossTypes) {
		return 0
	}
	return bossTypes[b].id
}

func (b BossType) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// Metric selects the match-level score a leaderboard is ordered by.
type Metric int

const (
	MetricGoldenEggs Metric = iota
	MetricRedEggs
)

func (m Metric) String() string {
	if m == MetricRedEggs {
		return "red_eggs"
	}
	return "golden_eggs"
}

// Of projects the metric out of a match.
func (m Metric) Of(match *MatchResult) int {
	if m == MetricRedEggs {
		return match.RedEggs
	}
	return match.GoldenEggs
}
