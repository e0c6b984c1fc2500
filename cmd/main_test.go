package main

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/okian/duelrank/internal/adapters/http/api"
	engine "github.com/okian/duelrank/internal/app"
	"github.com/okian/duelrank/internal/config"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("DUELRANK_ADDR", ":8080")
			_ = os.Setenv("DUELRANK_SEED", "7")
			_ = os.Setenv("DUELRANK_AUDIT_EVERY", "5")
			defer func() {
				_ = os.Unsetenv("DUELRANK_ADDR")
				_ = os.Unsetenv("DUELRANK_SEED")
				_ = os.Unsetenv("DUELRANK_AUDIT_EVERY")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Seed, convey.ShouldEqual, 7)
				convey.So(cfg.AuditEvery, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the engine and routes are wired", func() {
			ctx := context.Background()
			eng := engine.New()
			convey.So(eng.Start(ctx), convey.ShouldBeNil)
			defer eng.Stop()

			mux := http.NewServeMux()
			api.NewServer(eng, 500).Register(ctx, mux)

			convey.Convey("Then the mux resolves the API routes", func() {
				for _, path := range []string{"/session", "/selection", "/outcomes", "/undo", "/rankings", "/progress", "/healthz"} {
					req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
					convey.So(err, convey.ShouldBeNil)
					handler, pattern := mux.Handler(req)
					convey.So(handler, convey.ShouldNotBeNil)
					convey.So(pattern, convey.ShouldEqual, path)
				}
			})
		})
	})
}
