package config_test

import (
	"testing"

	"github.com/okian/duelrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.ComparisonMultiplier, convey.ShouldEqual, 0.8)
			convey.So(cfg.RecencyWindow, convey.ShouldEqual, 5)
			convey.So(cfg.AuditEvery, convey.ShouldEqual, 10)
			convey.So(cfg.MinComparisons, convey.ShouldEqual, 3)
			convey.So(cfg.MaxRankingsLimit, convey.ShouldEqual, 500)
		})

		convey.Convey("And the default confidence weights should sum to 1.0", func() {
			var sum float64
			for _, w := range cfg.ConfidenceWeights {
				sum += w
			}
			convey.So(sum, convey.ShouldAlmostEqual, 1.0, 1e-9)
			convey.So(len(cfg.ConfidenceWeights), convey.ShouldEqual, 7)
		})
	})
}
