package selection

import (
	"context"
	"math"
	"sort"

	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/metrics"
)

// selectGroup builds 2-3 candidate groups via distinct heuristics, scores
// each, and returns the best. The used pool resets once the remaining
// unused items cannot fill the target size.
func (s *Selector) selectGroup(ctx context.Context, ids []string, target int) []string {
	pool := s.eligible(ids)
	if len(pool) < target {
		// All items become eligible again; in-progress selection state
		// (recency window, last selection) is preserved.
		s.used = make(map[string]bool)
		pool = s.eligible(ids)
		s.poolResets++
		metrics.RecordPoolReset()
	}
	if target > len(ids) {
		target = len(ids)
	}

	candidates := [][]string{
		s.groupByUncertaintyBuckets(ctx, pool, target),
		s.groupByFewestComparisons(ctx, pool, target),
		s.groupByNearestNeighbors(ctx, pool, target),
	}

	var best []string
	bestValue := math.Inf(-1)
	for _, group := range candidates {
		if len(group) == 0 {
			continue
		}
		// Equal values keep the earlier strategy's group.
		if v := s.groupValue(ctx, group); v > bestValue {
			best, bestValue = group, v
		}
	}

	best = s.pad(best, ids, target)
	return best
}

func (s *Selector) eligible(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !s.used[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *Selector) records(ctx context.Context, ids []string) []*model.Record {
	out := make([]*model.Record, 0, len(ids))
	for _, id := range ids {
		if rec, err := s.store.Get(ctx, id); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// groupByUncertaintyBuckets anchors on the highest-uncertainty item and
// adds one representative from each rating bucket (low/mid/high, split at
// the bucket boundary) for diversity.
func (s *Selector) groupByUncertaintyBuckets(ctx context.Context, pool []string, target int) []string {
	recs := s.records(ctx, pool)
	if len(recs) == 0 {
		return nil
	}

	anchor := recs[0]
	for _, rec := range recs[1:] {
		if rec.RatingUncertainty > anchor.RatingUncertainty {
			anchor = rec
		}
	}

	group := []string{anchor.ItemID}
	taken := map[string]bool{anchor.ItemID: true}

	buckets := [3][]*model.Record{}
	for _, rec := range recs {
		if taken[rec.ItemID] {
			continue
		}
		switch {
		case rec.Rating < -ratingBucketSplit:
			buckets[0] = append(buckets[0], rec)
		case rec.Rating > ratingBucketSplit:
			buckets[2] = append(buckets[2], rec)
		default:
			buckets[1] = append(buckets[1], rec)
		}
	}

	for _, bucket := range buckets {
		if len(group) >= target {
			break
		}
		var pick *model.Record
		pickValue := -1.0
		for _, rec := range bucket {
			if v := s.value(ctx, rec); v > pickValue {
				pick, pickValue = rec, v
			}
		}
		if pick != nil {
			group = append(group, pick.ItemID)
			taken[pick.ItemID] = true
		}
	}

	// Top up from the pool when the buckets were too sparse.
	for _, rec := range recs {
		if len(group) >= target {
			break
		}
		if !taken[rec.ItemID] {
			group = append(group, rec.ItemID)
			taken[rec.ItemID] = true
		}
	}

	return group
}

// groupByFewestComparisons takes the least-compared items first, skipping
// candidates that would recreate a recently resolved pair when
// alternatives remain.
func (s *Selector) groupByFewestComparisons(ctx context.Context, pool []string, target int) []string {
	recs := s.records(ctx, pool)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Comparisons < recs[j].Comparisons
	})

	group := make([]string, 0, target)
	var skipped []string
	for _, rec := range recs {
		if len(group) >= target {
			break
		}
		recent := false
		for _, member := range group {
			if s.recentlyCompared(member, rec.ItemID) {
				recent = true
				break
			}
		}
		if recent {
			skipped = append(skipped, rec.ItemID)
			continue
		}
		group = append(group, rec.ItemID)
	}
	// Fall back on skipped items when the filter was too aggressive.
	for _, id := range skipped {
		if len(group) >= target {
			break
		}
		group = append(group, id)
	}

	return group
}

// groupByNearestNeighbors picks a random anchor and surrounds it with the
// items closest in rating, de-prioritizing recently compared ones.
func (s *Selector) groupByNearestNeighbors(ctx context.Context, pool []string, target int) []string {
	recs := s.records(ctx, pool)
	if len(recs) == 0 {
		return nil
	}

	anchor := recs[s.rng.Intn(len(recs))]

	type neighbor struct {
		id   string
		dist float64
	}
	neighbors := make([]neighbor, 0, len(recs)-1)
	for _, rec := range recs {
		if rec.ItemID == anchor.ItemID {
			continue
		}
		dist := math.Abs(rec.Rating - anchor.Rating)
		if s.recentlyCompared(anchor.ItemID, rec.ItemID) {
			dist += 10 // push recently compared items to the back
		}
		neighbors = append(neighbors, neighbor{id: rec.ItemID, dist: dist})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].dist < neighbors[j].dist
	})

	group := []string{anchor.ItemID}
	for _, n := range neighbors {
		if len(group) >= target {
			break
		}
		group = append(group, n.id)
	}

	return group
}

// groupValue scores a candidate group: the sum of individual item values
// plus a closeness reward for every near-rated pair inside the group.
func (s *Selector) groupValue(ctx context.Context, group []string) float64 {
	recs := s.records(ctx, group)

	var total float64
	for _, rec := range recs {
		total += s.value(ctx, rec)
	}
	for i := 0; i < len(recs); i++ {
		for j := i + 1; j < len(recs); j++ {
			diff := math.Abs(recs[i].Rating - recs[j].Rating)
			total += 1 / (diff + diffEpsilon)
		}
	}
	return total
}

// pad fills a short group with any remaining items, skipping duplicates.
func (s *Selector) pad(group []string, ids []string, target int) []string {
	if len(group) >= target {
		return group[:target]
	}
	have := make(map[string]bool, len(group))
	for _, id := range group {
		have[id] = true
	}
	for _, id := range ids {
		if len(group) >= target {
			break
		}
		if !have[id] {
			group = append(group, id)
			have[id] = true
		}
	}
	return group
}
