package repository_test

import (
	"context"
	"testing"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testItems(ids ...string) []model.Item {
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.Item{ID: id, Title: "title-" + id}
	}
	return items
}

func TestMemStoreReset(t *testing.T) {
	Convey("Given a store reset with three items", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		store.Reset(ctx, testItems("c", "a", "b"))

		Convey("Then every item has exactly one fresh record", func() {
			So(store.Count(ctx), ShouldEqual, 3)
			for _, id := range []string{"a", "b", "c"} {
				rec, err := store.Get(ctx, id)
				So(err, ShouldBeNil)
				So(rec.RatingUncertainty, ShouldEqual, 1.0)
				So(rec.Comparisons, ShouldEqual, 0)
			}
		})

		Convey("And IDs are returned in ascending order", func() {
			So(store.IDs(ctx), ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("When an unknown item is requested", func() {
			_, err := store.Get(ctx, "zzz")

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestMemStoreRanked(t *testing.T) {
	Convey("Given a store with distinct ratings", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		store.Reset(ctx, testItems("a", "b", "c", "d"))

		set := func(id string, rating float64) {
			rec, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			rec.Rating = rating
		}
		set("a", 1.5)
		set("b", 0.5)
		set("c", -0.5)
		set("d", -1.5)

		Convey("Then Ranked orders by rating descending", func() {
			entries := store.Ranked(ctx)
			So(len(entries), ShouldEqual, 4)
			So(entries[0].ItemID, ShouldEqual, "a")
			So(entries[3].ItemID, ShouldEqual, "d")
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[3].Rank, ShouldEqual, 4)
		})

		Convey("When two items tie", func() {
			set("b", -0.5)

			Convey("Then they share a rank and ties break by id", func() {
				entries := store.Ranked(ctx)
				So(entries[1].ItemID, ShouldEqual, "b")
				So(entries[2].ItemID, ShouldEqual, "c")
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].Rank, ShouldEqual, 2)
				So(entries[3].Rank, ShouldEqual, 3)
			})
		})
	})
}

func TestMemStoreSnapshotRestore(t *testing.T) {
	Convey("Given a store with mutated records", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		store.Reset(ctx, testItems("a", "b"))

		recA, err := store.Get(ctx, "a")
		So(err, ShouldBeNil)
		recA.Rating = 2.0
		recA.Wins = 1
		recA.Comparisons = 1

		Convey("When a snapshot is taken and the store mutates further", func() {
			snap := store.Snapshot(ctx)
			recA.Rating = 5.0
			recA.Losses = 3
			recA.Comparisons = 4

			Convey("Then the snapshot is detached from the live record", func() {
				So(snap["a"].Rating, ShouldEqual, 2.0)
				So(snap["a"].Losses, ShouldEqual, 0)
			})

			Convey("And Restore brings the store back to the snapshot state", func() {
				So(store.Restore(ctx, snap), ShouldBeNil)
				restored, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(restored.Rating, ShouldEqual, 2.0)
				So(restored.Wins, ShouldEqual, 1)
				So(restored.Comparisons, ShouldEqual, 1)
			})

			Convey("And restoring twice from the same snapshot still works", func() {
				So(store.Restore(ctx, snap), ShouldBeNil)
				rec, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				rec.Rating = 9.0
				So(store.Restore(ctx, snap), ShouldBeNil)
				rec, err = store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(rec.Rating, ShouldEqual, 2.0)
			})
		})

		Convey("When restoring a snapshot with a different item set", func() {
			snap := store.Snapshot(ctx)
			delete(snap, "b")

			Convey("Then ErrSnapshotMismatch is returned", func() {
				So(store.Restore(ctx, snap), ShouldEqual, repository.ErrSnapshotMismatch)
			})
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		ctx := context.Background()
		hist := repository.NewHistory()

		Convey("Then popping fails with ErrHistoryEmpty", func() {
			_, err := hist.Pop(ctx)
			So(err, ShouldEqual, repository.ErrHistoryEmpty)
		})

		Convey("When entries are pushed", func() {
			hist.Push(ctx, repository.HistoryEntry{
				Events: []model.ComparisonEvent{{WinnerID: "a", LoserID: "b", Seq: 1}},
			})
			hist.Push(ctx, repository.HistoryEntry{
				Events: []model.ComparisonEvent{
					{WinnerID: "c", LoserID: "a", GroupMembers: []string{"a", "b", "c"}, Seq: 2},
					{WinnerID: "c", LoserID: "b", GroupMembers: []string{"a", "b", "c"}, Seq: 2},
				},
			})

			Convey("Then Len and Events reflect all resolutions in order", func() {
				So(hist.Len(ctx), ShouldEqual, 2)
				events := hist.Events(ctx)
				So(len(events), ShouldEqual, 3)
				So(events[0].WinnerID, ShouldEqual, "a")
				So(events[2].LoserID, ShouldEqual, "b")
			})

			Convey("And Pop returns the most recent entry first", func() {
				last, err := hist.Pop(ctx)
				So(err, ShouldBeNil)
				So(len(last.Events), ShouldEqual, 2)
				So(hist.Len(ctx), ShouldEqual, 1)
			})

			Convey("And Reset discards everything", func() {
				hist.Reset(ctx)
				So(hist.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}
