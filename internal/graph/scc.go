package graph

// Strongly connected components (Tarjan).
//
// Every simple cycle lies inside a single SCC, so the cycle enumerator uses
// the component labels to avoid walking into parts of the graph that can
// never lead back to the start vertex.

// componentLabels assigns each node index the id of its SCC.
func (g *Graph) componentLabels() []int {
	n := len(g.ids)
	label := make([]int, n)
	idx := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range idx {
		idx[i] = -1
	}

	var (
		stack   []int
		counter int
		comps   int
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		idx[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			if idx[w] < 0 {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && idx[w] < low[v] {
				low[v] = idx[w]
			}
		}

		if low[v] == idx[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				label[w] = comps
				if w == v {
					break
				}
			}
			comps++
		}
	}

	for v := 0; v < n; v++ {
		if idx[v] < 0 {
			strongConnect(v)
		}
	}
	return label
}

// StronglyConnectedComponents groups account ids by SCC. Members of each
// component are listed in node order and components are ordered by their
// first member.
func (g *Graph) StronglyConnectedComponents() [][]string {
	label := g.componentLabels()
	pos := make(map[int]int)
	var out [][]string
	for v, c := range label {
		i, ok := pos[c]
		if !ok {
			i = len(out)
			pos[c] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], g.ids[v])
	}
	return out
}
