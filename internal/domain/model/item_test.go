package model_test

import (
	"testing"

	"github.com/okian/duelrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewRecord(t *testing.T) {
	Convey("Given a fresh record", t, func() {
		rec := model.NewRecord("item-1")

		Convey("Then it should start with full uncertainty and no history", func() {
			So(rec.ItemID, ShouldEqual, "item-1")
			So(rec.Rating, ShouldEqual, 0)
			So(rec.RatingUncertainty, ShouldEqual, 1.0)
			So(rec.Comparisons, ShouldEqual, 0)
			So(rec.Recent, ShouldBeEmpty)
			So(rec.WinRate(), ShouldEqual, 0.5)
		})
	})
}

func TestPushRecent(t *testing.T) {
	Convey("Given a record receiving results", t, func() {
		rec := model.NewRecord("item-1")

		Convey("When fewer than capacity results are pushed", func() {
			for i := 0; i < 4; i++ {
				rec.PushRecent(model.RecentResult{OpponentID: "x", Won: i%2 == 0})
			}

			Convey("Then all results are retained in order", func() {
				So(len(rec.Recent), ShouldEqual, 4)
				So(rec.Recent[0].Won, ShouldBeTrue)
				So(rec.Recent[3].Won, ShouldBeFalse)
			})
		})

		Convey("When more than capacity results are pushed", func() {
			for i := 0; i < model.RecentCapacity+5; i++ {
				rec.PushRecent(model.RecentResult{RatingDiff: float64(i)})
			}

			Convey("Then the ring never exceeds its capacity", func() {
				So(len(rec.Recent), ShouldEqual, model.RecentCapacity)
			})

			Convey("And the oldest entries are evicted first", func() {
				So(rec.Recent[0].RatingDiff, ShouldEqual, 5.0)
				So(rec.Recent[model.RecentCapacity-1].RatingDiff, ShouldEqual, float64(model.RecentCapacity+4))
			})
		})
	})
}

func TestRecordClone(t *testing.T) {
	Convey("Given a record with accumulated state", t, func() {
		rec := model.NewRecord("item-1")
		rec.Rating = 1.5
		rec.Wins = 3
		rec.Comparisons = 4
		rec.Losses = 1
		rec.PushRecent(model.RecentResult{OpponentID: "item-2", Won: true})

		Convey("When cloned", func() {
			clone := rec.Clone()

			Convey("Then the clone matches the original", func() {
				So(clone.Rating, ShouldEqual, rec.Rating)
				So(clone.Wins, ShouldEqual, rec.Wins)
				So(len(clone.Recent), ShouldEqual, 1)
			})

			Convey("And mutating the clone leaves the original untouched", func() {
				clone.Rating = -2
				clone.PushRecent(model.RecentResult{OpponentID: "item-3"})
				So(rec.Rating, ShouldEqual, 1.5)
				So(len(rec.Recent), ShouldEqual, 1)
			})
		})
	})
}
