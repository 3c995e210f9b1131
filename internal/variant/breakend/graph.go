package breakend

import (
	"github.com/PROSIC/libprosic/internal/errs"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Member is one breakend in a group, carrying its parsed Alt plus the
// candidate-record identity needed to place it in the graph.
type Member struct {
	ID       string
	RecordID string
	Alt      Alt
}

// hapNode is a node in the alt-haplotype graph: one breakend's extension
// segment, to be concatenated in some walk order.
type hapNode struct {
	id     int64
	member Member
}

func (n hapNode) ID() int64 { return n.id }

// Graph is the alt-haplotype graph for one breakend group: a node per
// member, with an edge from each member to every other member, so any
// ordering is a candidate walk (§4.3). Walks enumerates the orderings of the
// members (N! for N breakends), not 2^N combinations; MaxWalks bounds how
// many are actually enumerated so a large, likely-erroneous group cannot
// cause combinatorial blowup.
type Graph struct {
	g       *simple.DirectedGraph
	members []Member
}

// MaxWalks caps the number of alt-haplotype walks Graph.Walks will
// enumerate; groups exceeding it are still built, but Walks returns only the
// first MaxWalks walks (in member order) and reports truncated=true.
const MaxWalks = 64

// Build constructs the alt-haplotype graph for a group of breakend members
// sharing one event id.
func Build(members []Member) (*Graph, error) {
	if len(members) == 0 {
		return nil, errs.NewInput("breakend group has no members")
	}
	g := simple.NewDirectedGraph()
	nodes := make([]hapNode, len(members))
	for i, m := range members {
		nodes[i] = hapNode{id: int64(i), member: m}
		g.AddNode(nodes[i])
	}
	// Fully connect distinct members: any ordering is a candidate walk,
	// since the only constraint the VCF spec encodes is shared event
	// membership, not a fixed topology.
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			g.SetEdge(simple.Edge{F: nodes[i], T: nodes[j]})
		}
	}
	return &Graph{g: g, members: members}, nil
}

// Walks enumerates alt haplotype walks as orderings of the group's members,
// each producing one candidate alt sequence via Concat. Enumeration is
// capped at MaxWalks; truncated reports whether walks were dropped.
func (gr *Graph) Walks() (walks [][]Member, truncated bool) {
	n := len(gr.members)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	used := make([]bool, n)
	var cur []int
	var permute func()
	permute = func() {
		if truncated || len(walks) >= MaxWalks {
			truncated = truncated || len(walks) >= MaxWalks
			return
		}
		if len(cur) == n {
			walk := make([]Member, n)
			for i, idx := range cur {
				walk[i] = gr.members[idx]
			}
			walks = append(walks, walk)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, i)
			permute()
			cur = cur[:len(cur)-1]
			used[i] = false
			if truncated || len(walks) >= MaxWalks {
				return
			}
		}
	}
	permute()
	return walks, truncated
}

// Concat builds the alt sequence for one walk by concatenating each
// member's extension (reverse-complemented per its modification), in walk
// order.
func Concat(walk []Member) []byte {
	var out []byte
	for _, m := range walk {
		ext := m.Alt.Extension
		if m.Alt.Mod == ReverseComplement {
			ext = ReverseComplementBytes(ext)
		}
		out = append(out, ext...)
	}
	return out
}

// DOT renders the alt-haplotype graph in Graphviz dot format, for
// debugging; no CLI flag calls it.
func (gr *Graph) DOT() (string, error) {
	b, err := dot.Marshal(gr.g, "breakend_group", "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
