// Package model contains domain models passed between layers.
package model

// Item is a rankable entity. Identity and display metadata are supplied
// externally at session start and are immutable while ranking runs.
type Item struct {
	ID       string // unique identifier
	Title    string
	Year     int
	ImageRef string // opaque reference to display imagery; never fetched here
}

// RecentCapacity bounds the per-record ring of recent results.
const RecentCapacity = 10

// RecentResult is one entry in a record's recent-results ring.
type RecentResult struct {
	OpponentID   string
	Won          bool
	RatingDiff   float64 // rating difference at comparison time (self minus opponent)
	LearningRate float64 // effective learning rate used for the update
}

// GroupTally counts how often an item was offered in groups of three or
// more, and how often it won when offered.
type GroupTally struct {
	Chosen      int
	Appearances int
}

// Record is the per-item rating state. One exists per item for the
// lifetime of a session; only the rating updater and the consistency
// auditor mutate it.
type Record struct {
	ItemID string

	// Rating is the log-strength fed into the logistic expected-outcome
	// formula.
	Rating float64

	// RatingMean and RatingUncertainty form a Bayesian shadow of Rating.
	// Uncertainty starts at 1.0 and only ever decreases, floored at 0.1.
	RatingMean        float64
	RatingUncertainty float64

	Wins        int
	Losses      int
	Comparisons int // invariant: Wins + Losses == Comparisons

	// Recent holds the last RecentCapacity results, oldest first.
	Recent []RecentResult

	Group GroupTally

	// Momentum is an exponentially decayed running rating delta that
	// feeds the next update.
	Momentum float64
}

// NewRecord builds the initial record for an item.
func NewRecord(itemID string) *Record {
	return &Record{
		ItemID:            itemID,
		RatingUncertainty: 1.0,
		Recent:            make([]RecentResult, 0, RecentCapacity),
	}
}

// PushRecent appends a result to the ring, evicting the oldest entry once
// the ring is at capacity.
func (r *Record) PushRecent(result RecentResult) {
	if len(r.Recent) >= RecentCapacity {
		copy(r.Recent, r.Recent[1:])
		r.Recent[len(r.Recent)-1] = result
		return
	}
	r.Recent = append(r.Recent, result)
}

// WinRate returns Wins/Comparisons, or 0.5 with no data.
func (r *Record) WinRate() float64 {
	if r.Comparisons == 0 {
		return 0.5
	}
	return float64(r.Wins) / float64(r.Comparisons)
}

// Clone produces a deep value copy, detached from the live record.
func (r *Record) Clone() *Record {
	out := *r
	out.Recent = make([]RecentResult, len(r.Recent), RecentCapacity)
	copy(out.Recent, r.Recent)
	return &out
}
