package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spread is the {sum,avg,sd} rollup used by the shift summary. SD is the
// population standard deviation. Avg and SD are nil for an empty input.
type Spread struct {
	Sum float64  `json:"sum"`
	Avg *float64 `json:"avg"`
	SD  *float64 `json:"sd"`
}

func Deviation(values []float64) Spread {
	if len(values) == 0 {
		return Spread{}
	}
	mean := Round3(stat.Mean(values, nil))
	sd := Round3(math.Sqrt(stat.PopVariance(values, nil)))
	return Spread{Sum: floats.Sum(values), Avg: &mean, SD: &sd}
}
