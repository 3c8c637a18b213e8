// Package graph provides ordering and loop detection over directed
// graphs of comparable node values.
package graph

// Graph is a directed graph. Insertion order of nodes and edges is kept
// so every traversal is deterministic.
type Graph[N comparable] struct {
	index map[N]int
	nodes []N
	edges [][]int
}

// New returns an empty graph.
func New[N comparable]() *Graph[N] {
	return &Graph[N]{index: make(map[N]int)}
}

// AddNode adds a node. Adding existing node is a no-op.
func (g *Graph[N]) AddNode(n N) {
	g.add(n)
}

// AddEdge adds nodes and a directed edge from -> to.
func (g *Graph[N]) AddEdge(from, to N) {
	f, t := g.add(from), g.add(to)
	for _, e := range g.edges[f] {
		if e == t {
			return
		}
	}
	g.edges[f] = append(g.edges[f], t)
}

// Predecessors returns nodes with an edge to the node.
func (g *Graph[N]) Predecessors(n N) []N {
	t, ok := g.index[n]
	if !ok {
		return nil
	}
	var result []N
	for f, edges := range g.edges {
		for _, e := range edges {
			if e == t {
				result = append(result, g.nodes[f])
				break
			}
		}
	}
	return result
}

// SelfLoops returns nodes that have an edge to themselves.
func (g *Graph[N]) SelfLoops() []N {
	var result []N
	for f, edges := range g.edges {
		for _, e := range edges {
			if e == f {
				result = append(result, g.nodes[f])
				break
			}
		}
	}
	return result
}

// Sort returns nodes reachable from roots so that every node precedes
// its successors. Cycles do not fail the sort: nodes of a cycle are
// ordered by discovery and every detected cycle is returned.
func (g *Graph[N]) Sort(roots ...N) (sorted []N, cycles [][]N) {
	var (
		done     = make([]bool, len(g.nodes))
		visiting = make([]bool, len(g.nodes))
		post     []int
	)
	var visit func(i int, path []int)
	visit = func(i int, path []int) {
		if done[i] {
			return
		}
		if visiting[i] {
			cycles = append(cycles, g.cycle(path, i))
			return
		}
		visiting[i] = true
		path = append(path, i)
		for _, e := range g.edges[i] {
			visit(e, path)
		}
		visiting[i] = false
		done[i] = true
		post = append(post, i)
	}
	for _, r := range roots {
		if i, ok := g.index[r]; ok {
			visit(i, nil)
		}
	}
	sorted = make([]N, 0, len(post))
	for i := len(post) - 1; i >= 0; i-- {
		sorted = append(sorted, g.nodes[post[i]])
	}
	return sorted, cycles
}

// cycle extracts nodes of the path starting at node i.
func (g *Graph[N]) cycle(path []int, i int) []N {
	var result []N
	for j := len(path) - 1; j >= 0; j-- {
		if path[j] == i {
			for _, k := range path[j:] {
				result = append(result, g.nodes[k])
			}
			break
		}
	}
	return result
}

func (g *Graph[N]) add(n N) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[n] = i
	g.nodes = append(g.nodes, n)
	g.edges = append(g.edges, nil)
	return i
}
