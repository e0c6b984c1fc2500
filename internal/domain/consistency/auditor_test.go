package consistency_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/consistency"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubHistory struct {
	events []model.ComparisonEvent
}

func (s *stubHistory) Events(ctx context.Context) []model.ComparisonEvent {
	return s.events
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(itemIDs []string) {
	r.ids = append(r.ids, itemIDs...)
}

func newStore(ctx context.Context, ratings map[string]float64) *repository.MemStore {
	store := repository.NewMemStore()
	items := make([]model.Item, 0, len(ratings))
	for id := range ratings {
		items = append(items, model.Item{ID: id})
	}
	store.Reset(ctx, items)
	for id, r := range ratings {
		rec, _ := store.Get(ctx, id)
		rec.Rating = r
	}
	return store
}

func pairwise(outcomes ...[2]string) []model.ComparisonEvent {
	events := make([]model.ComparisonEvent, len(outcomes))
	for i, o := range outcomes {
		events[i] = model.ComparisonEvent{WinnerID: o[0], LoserID: o[1], Seq: i + 1}
	}
	return events
}

func TestGraphConstruction(t *testing.T) {
	Convey("Given resolved outcomes including a repeat", t, func() {
		g := consistency.BuildGraph(pairwise(
			[2]string{"a", "b"},
			[2]string{"a", "b"},
			[2]string{"b", "c"},
		))

		Convey("Then edges and counts reflect distinct pairs", func() {
			So(g.Nodes(), ShouldResemble, []string{"a", "b", "c"})
			So(g.HasEdge("a", "b"), ShouldBeTrue)
			So(g.EdgeCount("a", "b"), ShouldEqual, 2)
			So(g.HasEdge("b", "a"), ShouldBeFalse)
			So(g.HasEdge("a", "c"), ShouldBeFalse)
		})
	})
}

func TestStronglyConnectedComponents(t *testing.T) {
	Convey("Given a graph with one 3-cycle and a detached chain", t, func() {
		g := consistency.BuildGraph(pairwise(
			[2]string{"a", "b"},
			[2]string{"b", "c"},
			[2]string{"c", "a"},
			[2]string{"a", "d"},
			[2]string{"d", "e"},
		))

		Convey("Then exactly the cycle members form a component", func() {
			comps := g.StronglyConnected()
			So(comps, ShouldHaveLength, 1)
			So(comps[0], ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("And elementary cycle search recovers the cycle", func() {
			cycles := g.ElementaryCycles([]string{"a", "b", "c"})
			So(cycles, ShouldHaveLength, 1)
			So(cycles[0], ShouldResemble, []string{"a", "b", "c"})
		})
	})

	Convey("Given an acyclic graph", t, func() {
		g := consistency.BuildGraph(pairwise(
			[2]string{"a", "b"},
			[2]string{"b", "c"},
			[2]string{"a", "c"},
		))

		Convey("Then no components of size above one exist", func() {
			So(g.StronglyConnected(), ShouldBeEmpty)
		})
	})
}

func TestDirectViolationCorrection(t *testing.T) {
	Convey("Given a winner rated below its recorded loser", t, func() {
		ctx := context.Background()
		store := newStore(ctx, map[string]float64{"w": -1.0, "l": 1.0})
		history := &stubHistory{events: pairwise([2]string{"w", "l"})}
		auditor := consistency.NewAuditor(store, history)

		Convey("When an audit pass runs", func() {
			res, err := auditor.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the violation is counted and corrected", func() {
				So(res.DirectViolations, ShouldEqual, 1)
				So(res.Corrections, ShouldBeGreaterThanOrEqualTo, 1)

				w, _ := store.Get(ctx, "w")
				l, _ := store.Get(ctx, "l")
				So(w.Rating, ShouldBeGreaterThan, l.Rating)
			})
		})
	})
}

func TestThreeCycleRepair(t *testing.T) {
	Convey("Given a recorded 3-cycle over spread ratings", t, func() {
		ctx := context.Background()
		store := newStore(ctx, map[string]float64{"a": 1.0, "b": 0.0, "c": -1.0})
		history := &stubHistory{events: pairwise(
			[2]string{"a", "b"},
			[2]string{"b", "c"},
			[2]string{"c", "a"},
		)}
		inv := &recordingInvalidator{}
		auditor := consistency.NewAuditor(store, history, consistency.WithInvalidator(inv))

		a0, _ := store.Get(ctx, "a")
		c0, _ := store.Get(ctx, "c")
		violationBefore := a0.Rating - c0.Rating

		Convey("When one audit pass runs", func() {
			res, err := auditor.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the contradiction edge shrinks in magnitude", func() {
				So(res.CycleViolations, ShouldBeGreaterThanOrEqualTo, 1)
				a1, _ := store.Get(ctx, "a")
				c1, _ := store.Get(ctx, "c")
				So(a1.Rating-c1.Rating, ShouldBeLessThan, violationBefore)
			})

			Convey("Then counts and uncertainty stay untouched", func() {
				for _, id := range []string{"a", "b", "c"} {
					rec, _ := store.Get(ctx, id)
					So(rec.RatingUncertainty, ShouldEqual, 1.0)
					So(rec.Comparisons, ShouldEqual, 0)
				}
			})

			Convey("Then every changed item is invalidated", func() {
				So(res.Changed, ShouldNotBeEmpty)
				So(inv.ids, ShouldHaveLength, len(res.Changed))
			})
		})
	})
}

func TestCleanStoreNeedsNoCorrection(t *testing.T) {
	Convey("Given ratings that agree with all recorded outcomes", t, func() {
		ctx := context.Background()
		store := newStore(ctx, map[string]float64{"a": 1.0, "b": 0.0, "c": -1.0})
		history := &stubHistory{events: pairwise(
			[2]string{"a", "b"},
			[2]string{"b", "c"},
			[2]string{"a", "c"},
		)}
		auditor := consistency.NewAuditor(store, history)

		Convey("When an audit pass runs", func() {
			res, err := auditor.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then nothing is corrected and ratings are untouched", func() {
				So(res.Corrections, ShouldEqual, 0)
				So(res.Changed, ShouldBeEmpty)
				a, _ := store.Get(ctx, "a")
				So(a.Rating, ShouldEqual, 1.0)
			})
		})
	})
}

func TestRunnerScheduling(t *testing.T) {
	Convey("Given a runner auditing every 10 comparisons", t, func() {
		ctx := context.Background()
		store := newStore(ctx, map[string]float64{"a": 1.0, "b": 0.0})
		history := &stubHistory{events: pairwise([2]string{"a", "b"})}
		runner := consistency.NewRunner(
			consistency.NewAuditor(store, history),
			consistency.WithAuditEvery(10),
			consistency.WithMinInterval(time.Millisecond),
		)

		Convey("Then it skips before the cadence is reached", func() {
			_, ran := runner.MaybeRun(ctx, 9)
			So(ran, ShouldBeFalse)
		})

		Convey("Then it runs once the cadence is reached", func() {
			_, ran := runner.MaybeRun(ctx, 10)
			So(ran, ShouldBeTrue)

			Convey("And it waits another full cadence before the next pass", func() {
				time.Sleep(2 * time.Millisecond)
				_, again := runner.MaybeRun(ctx, 15)
				So(again, ShouldBeFalse)
				_, again = runner.MaybeRun(ctx, 20)
				So(again, ShouldBeTrue)
			})
		})

		Convey("Then the minimum interval suppresses back-to-back passes", func() {
			slow := consistency.NewRunner(
				consistency.NewAuditor(store, history),
				consistency.WithAuditEvery(1),
				consistency.WithMinInterval(time.Hour),
			)
			_, first := slow.MaybeRun(ctx, 1)
			So(first, ShouldBeTrue)
			_, second := slow.MaybeRun(ctx, 2)
			So(second, ShouldBeFalse)
		})

		Convey("Then Reset clears the schedule", func() {
			_, ran := runner.MaybeRun(ctx, 10)
			So(ran, ShouldBeTrue)
			runner.Reset()
			time.Sleep(2 * time.Millisecond)
			_, again := runner.MaybeRun(ctx, 10)
			So(again, ShouldBeTrue)
		})
	})
}
