package network

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// maxTearCandidates caps the exhaustive tear-set search. Flowsheets with
// more arcs on cycles need an explicit tear set.
const maxTearCandidates = 20

// unitGraph is the unit connectivity of a network as a gonum directed graph.
type unitGraph struct {
	g     *simple.DirectedGraph
	ids   map[*Unit]int64
	units map[int64]*Unit
	// arcs between an ordered unit pair; parallel arcs share the edge
	arcs map[[2]int64][]*Arc
}

func buildUnitGraph(net *Network) *unitGraph {
	ug := &unitGraph{
		g:     simple.NewDirectedGraph(),
		ids:   make(map[*Unit]int64),
		units: make(map[int64]*Unit),
		arcs:  make(map[[2]int64][]*Arc),
	}
	for i, u := range net.units {
		id := int64(i)
		ug.ids[u] = id
		ug.units[id] = u
		ug.g.AddNode(simple.Node(id))
	}
	for _, a := range net.arcs {
		from, to := ug.ids[a.src.unit], ug.ids[a.dst.unit]
		if from == to {
			continue // self-recycle handled as a tear candidate elsewhere
		}
		key := [2]int64{from, to}
		if len(ug.arcs[key]) == 0 {
			ug.g.SetEdge(ug.g.NewEdge(simple.Node(from), simple.Node(to)))
		}
		ug.arcs[key] = append(ug.arcs[key], a)
	}
	return ug
}

// cycleEdges returns, per simple cycle, the set of unit-pair edges on it.
func (ug *unitGraph) cycleEdges() [][][2]int64 {
	cycles := topo.DirectedCyclesIn(ug.g)
	res := make([][][2]int64, 0, len(cycles))
	for _, cyc := range cycles {
		if len(cyc) > 1 && cyc[0].ID() == cyc[len(cyc)-1].ID() {
			cyc = cyc[:len(cyc)-1]
		}
		edges := make([][2]int64, 0, len(cyc))
		for i := range cyc {
			from := cyc[i].ID()
			to := cyc[(i+1)%len(cyc)].ID()
			edges = append(edges, [2]int64{from, to})
		}
		res = append(res, edges)
	}
	return res
}

// SelectTears returns every minimal set of arcs whose removal breaks all
// recycle loops of the network, found by exhaustive cover search over the
// arcs participating in cycles.
func SelectTears(net *Network) ([][]*Arc, error) {
	ug := buildUnitGraph(net)
	cycles := ug.cycleEdges()
	if len(cycles) == 0 {
		return nil, nil
	}

	// candidate edges are those on at least one cycle
	seen := make(map[[2]int64]bool)
	var candidates [][2]int64
	for _, cyc := range cycles {
		for _, e := range cyc {
			if !seen[e] {
				seen[e] = true
				candidates = append(candidates, e)
			}
		}
	}
	if len(candidates) > maxTearCandidates {
		return nil, fmt.Errorf("%d arcs on cycles exceeds the %d supported by heuristic tear selection; set a tear set explicitly", len(candidates), maxTearCandidates)
	}

	covers := minimalCovers(cycles, candidates)
	res := make([][]*Arc, 0, len(covers))
	for _, cover := range covers {
		var arcs []*Arc
		for _, e := range cover {
			arcs = append(arcs, ug.arcs[e]...)
		}
		res = append(res, arcs)
	}
	return res, nil
}

// minimalCovers enumerates subsets of candidates by increasing size and
// returns all covers of the first size that hits every cycle.
func minimalCovers(cycles [][][2]int64, candidates [][2]int64) [][][2]int64 {
	n := len(candidates)
	for size := 1; size <= n; size++ {
		var found [][][2]int64
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			subset := make([][2]int64, size)
			for i, j := range idx {
				subset[i] = candidates[j]
			}
			if coversAll(cycles, subset) {
				found = append(found, subset)
			}
			// next combination
			i := size - 1
			for i >= 0 && idx[i] == n-size+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < size; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

func coversAll(cycles [][][2]int64, subset [][2]int64) bool {
	in := make(map[[2]int64]bool, len(subset))
	for _, e := range subset {
		in[e] = true
	}
	for _, cyc := range cycles {
		hit := false
		for _, e := range cyc {
			if in[e] {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// calculationOrder returns the units in topological order once the tear
// arcs are removed. It fails if the tear set leaves a cycle.
func calculationOrder(net *Network, tears []*Arc) ([]*Unit, error) {
	torn := make(map[*Arc]bool, len(tears))
	for _, a := range tears {
		torn[a] = true
	}

	g := simple.NewDirectedGraph()
	ids := make(map[*Unit]int64)
	units := make(map[int64]*Unit)
	for i, u := range net.units {
		id := int64(i)
		ids[u] = id
		units[id] = u
		g.AddNode(simple.Node(id))
	}
	for _, a := range net.arcs {
		if torn[a] {
			continue
		}
		from, to := ids[a.src.unit], ids[a.dst.unit]
		if from == to {
			return nil, fmt.Errorf("arc %s: self-recycle on unit %s must be torn", a.name, a.src.unit.name)
		}
		if g.Edge(from, to) == nil {
			g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	sorted, err := topo.Sort(g)
	if err != nil {
		return nil, fmt.Errorf("tear set does not break all recycle loops: %w", err)
	}
	order := make([]*Unit, len(sorted))
	for i, n := range sorted {
		order[i] = units[n.ID()]
	}
	return order, nil
}
