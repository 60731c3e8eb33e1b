package domain

// MatchFilter narrows a shift's matches. Nil fields do not filter.
type MatchFilter struct {
	MemberID  *string
	Nightless *bool
	IsClear   *bool
}

func (f MatchFilter) Matches(m *MatchResult) bool {
	if f.MemberID != nil && !m.HasMember(*f.MemberID) {
		return false
	}
	if f.Nightless != nil && m.Nightless != *f.Nightless {
		return false
	}
	if f.IsClear != nil && m.Outcome.IsClear != *f.IsClear {
		return false
	}
	return true
}

// EggAggregate is a store-side MAX/MIN/AVG over one egg column. Avg is not
// rounded.
type EggAggregate struct {
	Max float64
	Min float64
	Avg float64
}

// MatchAggregate is one group of a pushed-down aggregation. Nightless is nil
// when the aggregation was not grouped.
type MatchAggregate struct {
	Nightless  *bool
	Count      int
	GoldenEggs EggAggregate
	RedEggs    EggAggregate
}
