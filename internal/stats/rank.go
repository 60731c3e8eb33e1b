package stats

import "sort"

// Rank returns the standard competition rank of value inside population,
// which must be sorted descending: 1 + the number of entries strictly
// greater than value. Ties share the best rank. Value need not be a member
// of population. An empty population has no rank and yields nil.
func Rank(value float64, population []float64) *int {
	if len(population) == 0 {
		return nil
	}
	above := sort.Search(len(population), func(i int) bool {
		return population[i] <= value
	})
	r := above + 1
	return &r
}

// Ranked is a score with its position inside a population.
type Ranked struct {
	Rank  *int    `json:"rank"`
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

// RankIn ranks value against a descending population and reports the
// population size alongside.
func RankIn(value float64, population []float64) Ranked {
	return Ranked{Rank: Rank(value, population), Score: value, Count: len(population)}
}
