// Command simulate drives a running duelrank server with a synthetic
// ranking session: items get latent strengths, outcomes are sampled from
// the softmax model, and the final standings are scored against the
// latent order with Kendall's tau.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/okian/duelrank/internal/domain/types"
)

// Default configuration constants.
const (
	defaultItems      = 20
	defaultSeed       = 1
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 5 * time.Minute
	strengthSpread    = 2.0
)

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		items   = flag.Int("items", defaultItems, "Number of synthetic items to rank")
		budget  = flag.Int("budget", 0, "Comparison budget (0 lets the engine derive it)")
		seed    = flag.Int64("seed", defaultSeed, "Seed for strengths, outcomes and the engine")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	if err := run(ctx, *baseURL, *items, *budget, *seed, *timeout); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL string, n, budget int, seed int64, timeout time.Duration) error {
	if n < 2 {
		return fmt.Errorf("need at least 2 items, got %d", n)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible simulation
	c := &client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}

	// Latent strengths, spread evenly and shuffled so item ids carry no
	// ordering hint.
	strengths := make(map[string]float64, n)
	sessionItems := make([]types.Item, n)
	perm := rng.Perm(n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("item-%03d", i)
		sessionItems[i] = types.Item{ID: id, Title: fmt.Sprintf("Synthetic %d", i)}
		strengths[id] = strengthSpread * (float64(perm[i])/float64(n-1) - 0.5)
	}

	var created struct {
		SessionID string `json:"session_id"`
	}
	err := c.post(ctx, "/session", map[string]any{
		"items":           sessionItems,
		"max_comparisons": budget,
		"seed":            seed,
	}, &created)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Printf("session %s: %d items\n", created.SessionID, n)

	resolved := 0
	for {
		var sel types.Selection
		if err := c.get(ctx, "/selection", &sel); err != nil {
			// A conflict means the session finished between calls.
			if isConflict(err) {
				break
			}
			return fmt.Errorf("get selection: %w", err)
		}

		winner := sampleWinner(rng, sel.Items, strengths)
		var ack struct {
			Finished bool `json:"finished"`
		}
		if err := c.post(ctx, "/outcomes", map[string]any{"winner_id": winner}, &ack); err != nil {
			return fmt.Errorf("post outcome: %w", err)
		}
		resolved++
		if ack.Finished {
			break
		}
	}

	var ranked []types.RankedEntry
	if err := c.get(ctx, "/rankings", &ranked); err != nil {
		return fmt.Errorf("get rankings: %w", err)
	}
	var progress struct {
		Comparisons    int     `json:"comparisons"`
		MaxComparisons int     `json:"max_comparisons"`
		AvgConfidence  float64 `json:"avg_confidence"`
	}
	if err := c.get(ctx, "/progress", &progress); err != nil {
		return fmt.Errorf("get progress: %w", err)
	}

	tau := kendallTau(ranked, strengths)
	fmt.Printf("resolved %d comparisons (%d/%d budget)\n", resolved, progress.Comparisons, progress.MaxComparisons)
	fmt.Printf("avg confidence %.3f\n", progress.AvgConfidence)
	fmt.Printf("kendall tau vs latent order: %.3f\n", tau)

	top := len(ranked)
	if top > 5 {
		top = 5
	}
	for _, entry := range ranked[:top] {
		fmt.Printf("  #%d %s rating=%.3f confidence=%.3f (latent %.3f)\n",
			entry.Rank, entry.Item.ID, entry.Rating, entry.Confidence, strengths[entry.Item.ID])
	}
	return nil
}

// sampleWinner draws the choice from the softmax over latent strengths,
// so stronger items usually, but not always, win.
func sampleWinner(rng *rand.Rand, items []types.Item, strengths map[string]float64) string {
	max := math.Inf(-1)
	for _, it := range items {
		if s := strengths[it.ID]; s > max {
			max = s
		}
	}
	var total float64
	weights := make([]float64, len(items))
	for i, it := range items {
		weights[i] = math.Exp(strengths[it.ID] - max)
		total += weights[i]
	}
	target := rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target <= 0 {
			return items[i].ID
		}
	}
	return items[len(items)-1].ID
}

// kendallTau compares the served order against the latent strengths:
// +1 for perfect agreement, -1 for full reversal.
func kendallTau(ranked []types.RankedEntry, strengths map[string]float64) float64 {
	ids := make([]string, len(ranked))
	for i, entry := range ranked {
		ids[i] = entry.Item.ID
	}

	ideal := make([]string, len(ids))
	copy(ideal, ids)
	sort.SliceStable(ideal, func(i, j int) bool {
		return strengths[ideal[i]] > strengths[ideal[j]]
	})
	idealPos := make(map[string]int, len(ideal))
	for i, id := range ideal {
		idealPos[id] = i
	}

	concordant, discordant := 0, 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if idealPos[ids[i]] < idealPos[ids[j]] {
				concordant++
			} else {
				discordant++
			}
		}
	}
	pairs := concordant + discordant
	if pairs == 0 {
		return 0
	}
	return float64(concordant-discordant) / float64(pairs)
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.body)
}

func isConflict(err error) bool {
	var he *httpError
	return errors.As(err, &he) && he.status == http.StatusConflict
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &httpError{status: resp.StatusCode, body: buf.String()}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
