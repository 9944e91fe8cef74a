package graph

// Simple Cycle Enumeration
//
// Lists every simple directed cycle exactly once. A cycle is rooted at its
// lowest-numbered node (first appearance in the ledger) and reported as the
// path starting there, so rotations never produce duplicates:
//
//   for each start s in node order:
//     DFS from s over nodes numbered > s that share s's SCC,
//     report the current path whenever an edge closes back onto s.
//
// Enumeration order is fully determined by node order and successor order,
// which is what makes ring numbering reproducible across runs.
//
// The number of simple cycles can be exponential in the graph size. Two
// knobs bound the work:
//   - MaxLength prunes paths longer than the bound. Shorter cycles come out
//     in the same relative order as an unbounded run.
//   - MaxCycles stops enumeration after that many cycles.

// Cycle is an ordered list of distinct account ids; the last element has an
// edge back to the first.
type Cycle []string

// CycleOptions bounds cycle enumeration. Zero values mean unbounded.
type CycleOptions struct {
	MaxLength int // longest cycle to report (and to search for)
	MaxCycles int // stop after this many cycles
}

// EachSimpleCycle calls fn for every simple cycle in enumeration order.
// Returning false from fn stops the walk. The returned flag reports whether
// enumeration ended early because of MaxCycles or fn.
func (g *Graph) EachSimpleCycle(opts CycleOptions, fn func(Cycle) bool) (stopped bool) {
	n := len(g.ids)
	if n == 0 {
		return false
	}

	comp := g.componentLabels()
	onPath := make([]bool, n)
	path := make([]int, 0, 16)
	found := 0

	var walk func(s, u int) bool
	walk = func(s, u int) bool {
		for _, w := range g.succ[u] {
			if w == s {
				cycle := make(Cycle, len(path))
				for i, v := range path {
					cycle[i] = g.ids[v]
				}
				found++
				if !fn(cycle) {
					return false
				}
				if opts.MaxCycles > 0 && found >= opts.MaxCycles {
					return false
				}
				continue
			}
			if w < s || onPath[w] || comp[w] != comp[s] {
				continue
			}
			if opts.MaxLength > 0 && len(path) >= opts.MaxLength {
				continue
			}
			onPath[w] = true
			path = append(path, w)
			ok := walk(s, w)
			path = path[:len(path)-1]
			onPath[w] = false
			if !ok {
				return false
			}
		}
		return true
	}

	for s := 0; s < n; s++ {
		onPath[s] = true
		path = append(path[:0], s)
		ok := walk(s, s)
		onPath[s] = false
		if !ok {
			return true
		}
	}
	return false
}

// SimpleCycles collects the cycles produced by EachSimpleCycle.
func (g *Graph) SimpleCycles(opts CycleOptions) (cycles []Cycle, truncated bool) {
	cycles = make([]Cycle, 0)
	truncated = g.EachSimpleCycle(opts, func(c Cycle) bool {
		cycles = append(cycles, c)
		return true
	})
	return cycles, truncated
}

// CycleStats summarizes a set of cycles.
type CycleStats struct {
	TotalCycles   int     `json:"totalCycles"`
	ShortestCycle int     `json:"shortestCycle"`
	LongestCycle  int     `json:"longestCycle"`
	AverageLength float64 `json:"averageLength"`
	SelfLoops     int     `json:"selfLoops"`
}

// Add folds one cycle into the running statistics.
func (s *CycleStats) Add(c Cycle) {
	l := len(c)
	if s.TotalCycles == 0 || l < s.ShortestCycle {
		s.ShortestCycle = l
	}
	if l > s.LongestCycle {
		s.LongestCycle = l
	}
	if l == 1 {
		s.SelfLoops++
	}
	s.AverageLength = (s.AverageLength*float64(s.TotalCycles) + float64(l)) / float64(s.TotalCycles+1)
	s.TotalCycles++
}

// AnalyzeCycles computes length statistics over cycles.
func AnalyzeCycles(cycles []Cycle) CycleStats {
	var stats CycleStats
	for _, c := range cycles {
		stats.Add(c)
	}
	return stats
}
