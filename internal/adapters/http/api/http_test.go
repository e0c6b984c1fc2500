package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/duelrank/internal/adapters/http/api"
	engine "github.com/okian/duelrank/internal/app"
	"github.com/okian/duelrank/internal/domain/types"
	"github.com/okian/duelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer() *httptest.Server {
	ctx := context.Background()
	e := engine.New()
	if err := e.Start(ctx); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	api.NewServer(e, 500).Register(ctx, mux)
	return httptest.NewServer(mux)
}

func postJSON(ts *httptest.Server, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return http.Post(ts.URL+path, "application/json", bytes.NewReader(raw)) //nolint:noctx // test helper
}

func createSession(ts *httptest.Server, ids ...string) *http.Response {
	items := make([]types.Item, len(ids))
	for i, id := range ids {
		items[i] = types.Item{ID: id, Title: "Item " + id}
	}
	resp, err := postJSON(ts, "/session", map[string]any{
		"items":           items,
		"max_comparisons": 50,
		"seed":            1,
	})
	So(err, ShouldBeNil)
	return resp
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var v T
	So(json.NewDecoder(resp.Body).Decode(&v), ShouldBeNil)
	return v
}

func TestSessionEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When a valid session is created", func() {
			resp := createSession(ts, "a", "b", "c", "d")

			Convey("Then it returns 201 with a session id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				body := decode[map[string]any](resp)
				So(body["session_id"], ShouldNotBeEmpty)
				So(body["items"], ShouldEqual, 4)
			})
		})

		Convey("When the item list is too small", func() {
			resp, err := postJSON(ts, "/session", map[string]any{
				"items": []types.Item{{ID: "a"}},
			})
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it returns 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(ts.URL+"/session", "application/json", //nolint:noctx // test
				bytes.NewReader([]byte("not json")))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it returns 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestComparisonLoop(t *testing.T) {
	Convey("Given an API server with an active session", t, func() {
		ts := newTestServer()
		defer ts.Close()
		createSession(ts, "a", "b", "c", "d", "e", "f").Body.Close()

		Convey("When the selection is fetched", func() {
			resp, err := http.Get(ts.URL + "/selection") //nolint:noctx // test
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			sel := decode[types.Selection](resp)

			Convey("Then it offers a broad-phase group", func() {
				So(sel.Phase, ShouldEqual, "broad")
				So(len(sel.Items), ShouldBeGreaterThanOrEqualTo, 2)
			})

			Convey("And resolving the winner succeeds", func() {
				resp, err := postJSON(ts, "/outcomes", map[string]any{
					"winner_id": sel.Items[0].ID,
				})
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](resp)
				So(body["status"], ShouldEqual, "ok")

				Convey("And undo restores the same selection", func() {
					resp, err := postJSON(ts, "/undo", nil)
					So(err, ShouldBeNil)
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					restored := decode[types.Selection](resp)
					So(restored.Items, ShouldResemble, sel.Items)
				})
			})
		})

		Convey("When an outcome names an item outside the selection", func() {
			http.Get(ts.URL + "/selection") //nolint:noctx,errcheck // prime the selection
			resp, err := postJSON(ts, "/outcomes", map[string]any{
				"winner_id": "not-an-item",
			})
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it returns 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When undo is called with empty history", func() {
			resp, err := postJSON(ts, "/undo", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it returns 409", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestRankingsAndProgress(t *testing.T) {
	Convey("Given a session with resolved outcomes", t, func() {
		ts := newTestServer()
		defer ts.Close()
		createSession(ts, "a", "b", "c", "d").Body.Close()

		for _, o := range [][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}} {
			resp, err := postJSON(ts, "/outcomes", map[string]any{
				"winner_id": o[0],
				"members":   []string{o[0], o[1]},
			})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		}

		Convey("When rankings are fetched", func() {
			resp, err := http.Get(ts.URL + "/rankings") //nolint:noctx // test
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			entries := decode[[]types.RankedEntry](resp)

			Convey("Then the undefeated item leads", func() {
				So(entries, ShouldHaveLength, 4)
				So(entries[0].Item.ID, ShouldEqual, "a")
				So(entries[0].Wins, ShouldEqual, 3)
			})
		})

		Convey("When rankings are limited", func() {
			resp, err := http.Get(ts.URL + "/rankings?limit=2") //nolint:noctx // test
			So(err, ShouldBeNil)
			entries := decode[[]types.RankedEntry](resp)
			So(entries, ShouldHaveLength, 2)
		})

		Convey("When the limit is out of range", func() {
			for _, q := range []string{"limit=0", "limit=9999", "limit=abc"} {
				resp, err := http.Get(fmt.Sprintf("%s/rankings?%s", ts.URL, q)) //nolint:noctx // test
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			}
		})

		Convey("When progress is fetched", func() {
			resp, err := http.Get(ts.URL + "/progress") //nolint:noctx // test
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			body := decode[map[string]any](resp)
			So(body["comparisons"], ShouldEqual, 3)
			So(body["max_comparisons"], ShouldEqual, 50)
		})

		Convey("When a confidence score is fetched", func() {
			resp, err := http.Get(ts.URL + "/confidence/a") //nolint:noctx // test
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			body := decode[map[string]any](resp)
			So(body["item_id"], ShouldEqual, "a")
			So(body["confidence"], ShouldBeGreaterThanOrEqualTo, 0.2)
		})

		Convey("When confidence is fetched for an unknown item", func() {
			resp, err := http.Get(ts.URL + "/confidence/zzz") //nolint:noctx // test
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestNoSessionResponses(t *testing.T) {
	Convey("Given a server without a session", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("Then session-scoped reads return 404", func() {
			for _, path := range []string{"/selection", "/rankings", "/progress", "/confidence/a"} {
				resp, err := http.Get(ts.URL + path) //nolint:noctx // test
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			}
		})

		Convey("Then the health endpoint still serves metrics", func() {
			resp, err := http.Get(ts.URL + "/healthz") //nolint:noctx // test
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
