package selection_test

import (
	"context"
	"testing"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/internal/domain/selection"
	"github.com/okian/duelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newStore(ctx context.Context, ids ...string) *repository.MemStore {
	store := repository.NewMemStore()
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.Item{ID: id}
	}
	store.Reset(ctx, items)
	return store
}

func TestPhaseFor(t *testing.T) {
	Convey("Given the phase schedule", t, func() {
		So(selection.PhaseFor(0.0), ShouldEqual, selection.PhaseBroad)
		So(selection.PhaseFor(0.34), ShouldEqual, selection.PhaseBroad)
		So(selection.PhaseFor(0.35), ShouldEqual, selection.PhaseNarrow)
		So(selection.PhaseFor(0.74), ShouldEqual, selection.PhaseNarrow)
		So(selection.PhaseFor(0.75), ShouldEqual, selection.PhasePair)
		So(selection.PhaseFor(1.0), ShouldEqual, selection.PhasePair)

		Convey("And group sizes follow the phase", func() {
			So(selection.GroupSize(selection.PhaseBroad), ShouldEqual, 5)
			So(selection.GroupSize(selection.PhaseNarrow), ShouldEqual, 3)
			So(selection.GroupSize(selection.PhasePair), ShouldEqual, 2)
		})
	})
}

func TestNextTooFewItems(t *testing.T) {
	Convey("Given a store with a single item", t, func() {
		ctx := context.Background()
		store := newStore(ctx, "only")
		sel := selection.NewSelector(store, selection.WithSeed(1))

		Convey("Then selection fails with ErrInsufficientItems", func() {
			_, _, err := sel.Next(ctx, 0.9)
			So(err, ShouldEqual, selection.ErrInsufficientItems)
		})
	})
}

func TestPairSelection(t *testing.T) {
	Convey("Given four items in the pair phase", t, func() {
		ctx := context.Background()
		store := newStore(ctx, "a", "b", "c", "d")
		sel := selection.NewSelector(store, selection.WithSeed(1))

		set := func(id string, comparisons int, rating float64) {
			rec, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			rec.Comparisons = comparisons
			rec.Wins = comparisons
			rec.Rating = rating
		}
		set("a", 5, 1.0)
		set("b", 1, 0.2)
		set("c", 4, -0.2)
		set("d", 6, -1.0)

		Convey("When selecting", func() {
			ids, phase, err := sel.Next(ctx, 0.9)
			So(err, ShouldBeNil)

			Convey("Then the phase is pair and the size is 2", func() {
				So(phase, ShouldEqual, selection.PhasePair)
				So(len(ids), ShouldEqual, 2)
			})

			Convey("And the least-compared item anchors the pair", func() {
				So(ids[0], ShouldEqual, "b")
				So(ids[1], ShouldNotEqual, "b")
			})
		})

		Convey("When the anchor's best partner was just compared with it", func() {
			sel.NotePair("b", "c")
			first, _, err := sel.Next(ctx, 0.9)
			So(err, ShouldBeNil)

			Convey("Then the recency penalty steers away from repeating the pair", func() {
				So(first[0], ShouldEqual, "b")
				So(first[1], ShouldNotEqual, "c")
			})
		})
	})
}

func TestGroupSelection(t *testing.T) {
	Convey("Given eight items early in the session", t, func() {
		ctx := context.Background()
		store := newStore(ctx, "a", "b", "c", "d", "e", "f", "g", "h")
		sel := selection.NewSelector(store, selection.WithSeed(7))

		Convey("When selecting in the broad phase", func() {
			ids, phase, err := sel.Next(ctx, 0.1)
			So(err, ShouldBeNil)

			Convey("Then a five-item group is returned", func() {
				So(phase, ShouldEqual, selection.PhaseBroad)
				So(len(ids), ShouldEqual, 5)
			})

			Convey("And members are distinct", func() {
				seen := map[string]bool{}
				for _, id := range ids {
					So(seen[id], ShouldBeFalse)
					seen[id] = true
				}
			})
		})

		Convey("When selecting in the narrow phase", func() {
			ids, phase, err := sel.Next(ctx, 0.5)
			So(err, ShouldBeNil)
			So(phase, ShouldEqual, selection.PhaseNarrow)
			So(len(ids), ShouldEqual, 3)
		})

		Convey("When the group size exceeds the item count", func() {
			small := newStore(ctx, "x", "y", "z")
			smallSel := selection.NewSelector(small, selection.WithSeed(7))

			ids, _, err := smallSel.Next(ctx, 0.1)
			So(err, ShouldBeNil)

			Convey("Then the group degrades to all available items", func() {
				So(len(ids), ShouldEqual, 3)
			})
		})
	})
}

func TestUsedPoolReset(t *testing.T) {
	Convey("Given six items consumed by repeated broad selections", t, func() {
		ctx := context.Background()
		store := newStore(ctx, "a", "b", "c", "d", "e", "f")
		sel := selection.NewSelector(store, selection.WithSeed(3))

		Convey("When selecting more times than the pool can supply", func() {
			// Each cycle holds 6 items and consumes 5; the pool must reset
			// rather than ever produce an empty or short selection.
			for i := 0; i < 6; i++ {
				ids, _, err := sel.Next(ctx, 0.1)
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 5)
			}
		})
	})
}

func TestSeededDeterminism(t *testing.T) {
	Convey("Given two selectors with the same seed and state", t, func() {
		ctx := context.Background()
		storeA := newStore(ctx, "a", "b", "c", "d", "e", "f")
		storeB := newStore(ctx, "a", "b", "c", "d", "e", "f")
		selA := selection.NewSelector(storeA, selection.WithSeed(99))
		selB := selection.NewSelector(storeB, selection.WithSeed(99))

		Convey("Then they produce identical selection sequences", func() {
			for i := 0; i < 5; i++ {
				idsA, _, errA := selA.Next(ctx, 0.1)
				idsB, _, errB := selB.Next(ctx, 0.1)
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(idsA, ShouldResemble, idsB)
			}
		})
	})
}
