package consistency

import (
	"sort"

	"github.com/okian/duelrank/internal/domain/model"
)

// Cycle search bounds. Oversized components are reduced to their most
// conflicted nodes before elementary cycles are enumerated.
const (
	maxComponentSize = 8
	maxCycleLength   = 6
	maxCyclesPerComp = 32
)

// Graph is the directed preference graph derived from comparison history.
// An edge winner -> loser exists for every distinct resolved pair. It is
// rebuilt on every audit pass and never stored.
type Graph struct {
	nodes []string
	edges map[string]map[string]int // winner -> loser -> observation count
}

// BuildGraph derives the preference graph from resolved outcomes.
func BuildGraph(events []model.ComparisonEvent) *Graph {
	g := &Graph{edges: make(map[string]map[string]int)}
	seen := make(map[string]bool)
	for _, ev := range events {
		if ev.WinnerID == "" || ev.LoserID == "" || ev.WinnerID == ev.LoserID {
			continue
		}
		for _, id := range []string{ev.WinnerID, ev.LoserID} {
			if !seen[id] {
				seen[id] = true
				g.nodes = append(g.nodes, id)
			}
		}
		m := g.edges[ev.WinnerID]
		if m == nil {
			m = make(map[string]int)
			g.edges[ev.WinnerID] = m
		}
		m[ev.LoserID]++
	}
	sort.Strings(g.nodes)
	return g
}

// HasEdge reports whether winner has ever been preferred over loser.
func (g *Graph) HasEdge(winner, loser string) bool {
	return g.edges[winner][loser] > 0
}

// EdgeCount returns how often winner was preferred over loser.
func (g *Graph) EdgeCount(winner, loser string) int {
	return g.edges[winner][loser]
}

// Nodes returns all item ids seen in at least one outcome, sorted.
func (g *Graph) Nodes() []string {
	return g.nodes
}

// Edges visits every distinct edge in deterministic order.
func (g *Graph) Edges(visit func(winner, loser string, count int)) {
	for _, w := range g.nodes {
		losers := make([]string, 0, len(g.edges[w]))
		for l := range g.edges[w] {
			losers = append(losers, l)
		}
		sort.Strings(losers)
		for _, l := range losers {
			visit(w, l, g.edges[w][l])
		}
	}
}

// successors returns the sorted out-neighbors of a node restricted to the
// given allow set (nil means unrestricted).
func (g *Graph) successors(node string, allow map[string]bool) []string {
	out := make([]string, 0, len(g.edges[node]))
	for l := range g.edges[node] {
		if allow == nil || allow[l] {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// StronglyConnected returns all components of size > 1 using Tarjan's
// algorithm. Any such component contains at least one preference cycle.
func (g *Graph) StronglyConnected() [][]string {
	index := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	next := 0
	var components [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.successors(v, nil) {
			if _, visited := index[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] == index[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				sort.Strings(comp)
				components = append(components, comp)
			}
		}
	}

	for _, v := range g.nodes {
		if _, visited := index[v]; !visited {
			strongconnect(v)
		}
	}
	return components
}

// conflictScore counts mutual edges touching a node within the set.
// Nodes involved in direct back-and-forth disagreement anchor the cycles
// worth correcting.
func (g *Graph) conflictScore(node string, set map[string]bool) int {
	score := 0
	for other := range set {
		if other == node {
			continue
		}
		if g.HasEdge(node, other) && g.HasEdge(other, node) {
			score += 2
		} else if g.HasEdge(node, other) || g.HasEdge(other, node) {
			score++
		}
	}
	return score
}

// reduceComponent trims an oversized component down to its most
// conflicted members so cycle enumeration stays bounded.
func (g *Graph) reduceComponent(comp []string) []string {
	if len(comp) <= maxComponentSize {
		return comp
	}
	set := make(map[string]bool, len(comp))
	for _, id := range comp {
		set[id] = true
	}
	scored := make([]string, len(comp))
	copy(scored, comp)
	sort.SliceStable(scored, func(i, j int) bool {
		return g.conflictScore(scored[i], set) > g.conflictScore(scored[j], set)
	})
	reduced := scored[:maxComponentSize]
	sort.Strings(reduced)
	return reduced
}

// ElementaryCycles enumerates simple cycles within one strongly connected
// component, bounded in both length and count.
func (g *Graph) ElementaryCycles(comp []string) [][]string {
	comp = g.reduceComponent(comp)
	allow := make(map[string]bool, len(comp))
	for _, id := range comp {
		allow[id] = true
	}

	var cycles [][]string
	seen := make(map[string]bool)

	var path []string
	onPath := make(map[string]bool)

	var dfs func(start, v string)
	dfs = func(start, v string) {
		if len(cycles) >= maxCyclesPerComp {
			return
		}
		path = append(path, v)
		onPath[v] = true
		for _, w := range g.successors(v, allow) {
			if w == start && len(path) >= 2 {
				cycle := canonicalCycle(path)
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			// Only expand to nodes greater than start to avoid
			// rediscovering each cycle from every member.
			if !onPath[w] && w > start && len(path) < maxCycleLength {
				dfs(start, w)
			}
		}
		path = path[:len(path)-1]
		onPath[v] = false
	}

	for _, start := range comp {
		if len(cycles) >= maxCyclesPerComp {
			break
		}
		dfs(start, start)
	}
	return cycles
}

// canonicalCycle copies the path rotated so the smallest id leads.
func canonicalCycle(path []string) []string {
	min := 0
	for i := range path {
		if path[i] < path[min] {
			min = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[min:]...)
	out = append(out, path[:min]...)
	return out
}

func cycleKey(cycle []string) string {
	key := ""
	for _, id := range cycle {
		key += id + "\x00"
	}
	return key
}
