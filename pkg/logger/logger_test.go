package logger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/duelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an uninitialized logging package", t, func() {
		Convey("When Init is called", func() {
			err := logger.Init()

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
			})

			Convey("And Get should return a usable logger", func() {
				l := logger.Get()
				So(l, ShouldNotBeNil)
				// Must not panic when logging with fields.
				l.Info(context.Background(), "engine ready",
					logger.String("component", "test"),
					logger.Int("items", 10),
					logger.Float64("progress", 0.5),
					logger.Bool("finished", false),
					logger.Duration("elapsed", time.Second),
					logger.Error(errors.New("boom")),
				)
			})
		})
	})
}

func TestNamedLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When a named child logger is created", func() {
			child := logger.Named("selector")

			Convey("Then it should be distinct and usable", func() {
				So(child, ShouldNotBeNil)
				child.Debug(context.Background(), "pair scored", logger.Float64("value", 1.25))
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When setting known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			err := logger.SetLevelString("loud")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
