package model

// ComparisonEvent records one resolved pairwise outcome. A group choice of
// k members expands into k-1 events sharing the same GroupMembers slice.
type ComparisonEvent struct {
	EventID      string   // unique id, assigned when the outcome is resolved
	WinnerID     string
	LoserID      string
	GroupMembers []string // len > 2 marks a group choice
	Seq          int      // resolution sequence index, 1-based
	HighImpact   bool     // close ratings, low counts, mid-session phase
}

// IsGroup reports whether the event came from a group choice.
func (e ComparisonEvent) IsGroup() bool {
	return len(e.GroupMembers) > 2
}
