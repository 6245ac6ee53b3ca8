// Package analysis inspects the folder graph for structural problems the
// UI tolerates but a maintainer would want surfaced: parent cycles,
// self-parents, and dangling parent references. Backs the --check flag.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"chatdeck/pkg/model"
)

// Report lists the structural problems found in a folder table. All
// slices are sorted for deterministic output.
type Report struct {
	// Cycles are the strongly connected components of size > 1 in the
	// parent graph; folders in a cycle never render.
	Cycles [][]int `json:"cycles,omitempty"`
	// SelfParents are folders whose ParentID equals their own id.
	SelfParents []int `json:"self_parents,omitempty"`
	// Orphans reference a ParentID that matches no folder; they do not
	// render until the parent exists.
	Orphans []int `json:"orphans,omitempty"`
}

// Clean reports whether no problems were found.
func (r Report) Clean() bool {
	return len(r.Cycles) == 0 && len(r.SelfParents) == 0 && len(r.Orphans) == 0
}

// Inspect builds the parent graph (edge parent -> child) and runs Tarjan
// SCC over it. Self-parents are recorded separately and excluded from the
// graph: simple.DirectedGraph rejects self-edges.
func Inspect(folders []model.Folder) Report {
	var rep Report

	byID := make(map[int]bool, len(folders))
	for _, f := range folders {
		byID[f.ID] = true
	}

	g := simple.NewDirectedGraph()
	for _, f := range folders {
		if g.Node(int64(f.ID)) == nil {
			g.AddNode(simple.Node(f.ID))
		}
		if f.ParentID == nil {
			continue
		}
		parent := *f.ParentID
		switch {
		case parent == f.ID:
			rep.SelfParents = append(rep.SelfParents, f.ID)
		case !byID[parent]:
			rep.Orphans = append(rep.Orphans, f.ID)
		default:
			if g.Node(int64(parent)) == nil {
				g.AddNode(simple.Node(parent))
			}
			g.SetEdge(g.NewEdge(g.Node(int64(parent)), g.Node(int64(f.ID))))
		}
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]int, len(scc))
		for i, n := range scc {
			cycle[i] = int(n.ID())
		}
		sort.Ints(cycle)
		rep.Cycles = append(rep.Cycles, cycle)
	}
	sort.Slice(rep.Cycles, func(i, j int) bool { return rep.Cycles[i][0] < rep.Cycles[j][0] })
	sort.Ints(rep.SelfParents)
	sort.Ints(rep.Orphans)
	return rep
}
