// Package dimension encodes which (tide level, wave event) cells can occur
// and splits wave records into them.
package dimension

import (
	"fmt"

	"salmon-stats/internal/domain"
)

type Cell struct {
	Tide  domain.TideLevel
	Event domain.EventType
}

func (c Cell) String() string {
	return c.Tide.String() + "/" + c.Event.String()
}

var legal = map[domain.TideLevel][]domain.EventType{
	domain.TideLow: {
		domain.EventWaterLevels,
		domain.EventTheMothership,
		domain.EventFog,
		domain.EventCohockCharge,
	},
	domain.TideNormal: {
		domain.EventWaterLevels,
		domain.EventRush,
		domain.EventGoldieSeeking,
		domain.EventGriller,
		domain.EventTheMothership,
		domain.EventFog,
	},
	domain.TideHigh: {
		domain.EventWaterLevels,
		domain.EventRush,
		domain.EventGoldieSeeking,
		domain.EventGriller,
		domain.EventTheMothership,
		domain.EventFog,
	},
}

var valid = func() map[Cell]struct{} {
	m := make(map[Cell]struct{})
	for tide, events := range legal {
		for _, ev := range events {
			m[Cell{Tide: tide, Event: ev}] = struct{}{}
		}
	}
	return m
}()

func IsValidCell(tide domain.TideLevel, event domain.EventType) bool {
	_, ok := valid[Cell{Tide: tide, Event: event}]
	return ok
}

// Cells lists every legal cell in tide, then event, order.
func Cells() []Cell {
	var out []Cell
	for _, tide := range domain.TideLevels() {
		for _, ev := range domain.EventTypes() {
			if IsValidCell(tide, ev) {
				out = append(out, Cell{Tide: tide, Event: ev})
			}
		}
	}
	return out
}

// CellError reports a wave recorded in a cell the game cannot produce.
type CellError struct {
	MatchID   string
	WaveIndex int
	Cell      Cell
}

func (e *CellError) Error() string {
	return fmt.Sprintf("match %s wave %d: illegal cell %s", e.MatchID, e.WaveIndex, e.Cell)
}

func (e *CellError) Unwrap() error {
	return domain.ErrInvariant
}

// Validate rejects the first wave whose cell is outside the matrix.
func Validate(waves []domain.WaveRecord) error {
	for _, w := range waves {
		if !IsValidCell(w.TideLevel, w.EventType) {
			return &CellError{MatchID: w.MatchID, WaveIndex: w.WaveIndex, Cell: Cell{Tide: w.TideLevel, Event: w.EventType}}
		}
	}
	return nil
}

// Partition groups waves by cell. Any wave outside the matrix fails the whole
// partition; nothing is moved to a neighbouring cell.
func Partition(waves []domain.WaveRecord) (map[Cell][]domain.WaveRecord, error) {
	if err := Validate(waves); err != nil {
		return nil, err
	}
	out := make(map[Cell][]domain.WaveRecord)
	for _, w := range waves {
		c := Cell{Tide: w.TideLevel, Event: w.EventType}
		out[c] = append(out[c], w)
	}
	return out, nil
}
