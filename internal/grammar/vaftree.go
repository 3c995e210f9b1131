package grammar

import "github.com/PROSIC/libprosic/internal/errs"

// VAFTree is a non-cyclic DAG over (sample, spectrum) nodes whose root
// disjunction defines an event (§9 "Grammar VAF trees"). It is derived from
// a Formula by converting it to disjunctive normal form: each root is one
// conjunction (a set of per-sample spectrum constraints); the posterior
// traverses each root depth-first and log-sum-exps the results (§4.5).
type VAFTree struct {
	Roots []*VAFNode
}

// VAFNode is one (sample, spectrum) constraint in a conjunction. Leaf nodes
// (Children == nil) are where the posterior evaluates the joint likelihood.
type VAFNode struct {
	Sample   string
	Spectrum Spectrum
	Children []*VAFNode
}

// conjunction is an intermediate DNF representation: sample -> the
// effective spectrum that sample must take for this branch.
type conjunction map[string]Spectrum

// Universes supplies each sample's universe spectrum, needed to resolve
// negation (Not(atom) means "this sample's VAF is in universe \ atom's
// spectrum").
type Universes map[string]Spectrum

// BuildVAFTree converts a Formula to a VAFTree given each referenced
// sample's universe.
func BuildVAFTree(f *Formula, universes Universes) (*VAFTree, error) {
	conjs, err := toDNF(f, universes, false)
	if err != nil {
		return nil, err
	}
	tree := &VAFTree{}
	for _, c := range conjs {
		root := conjunctionToChain(c)
		if root != nil {
			tree.Roots = append(tree.Roots, root)
		}
	}
	if len(tree.Roots) == 0 {
		return nil, errs.NewScenario("formula reduces to an empty VAF tree")
	}
	return tree, nil
}

// conjunctionToChain turns an unordered conjunction map into a deterministic
// linear chain of VAFNodes (order doesn't affect the posterior, which is
// evaluated as a product of independent per-sample terms at the leaf).
func conjunctionToChain(c conjunction) *VAFNode {
	if len(c) == 0 {
		return nil
	}
	samples := make([]string, 0, len(c))
	for s := range c {
		samples = append(samples, s)
	}
	sortStrings(samples)
	var head, tail *VAFNode
	for _, s := range samples {
		n := &VAFNode{Sample: s, Spectrum: c[s]}
		if head == nil {
			head = n
		} else {
			tail.Children = []*VAFNode{n}
		}
		tail = n
	}
	return head
}

func sortStrings(xs []string) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// toDNF recursively expands f into disjunctive-normal form: a list of
// conjunctions, each a complete set of per-sample constraints. negate flips
// the boolean sense of the whole subtree (De Morgan's laws), so that Not is
// resolved locally without materializing an explicit negation node in the
// output tree.
func toDNF(f *Formula, universes Universes, negate bool) ([]conjunction, error) {
	switch f.Kind {
	case FormulaAtom:
		spec := f.Spectrum
		if negate {
			universe, ok := universes[f.Sample]
			if !ok {
				return nil, errs.NewScenario("formula references unknown sample %q", f.Sample)
			}
			spec = complement(universe, spec)
		}
		return []conjunction{{f.Sample: spec}}, nil
	case FormulaNot:
		return toDNF(f.Children[0], universes, !negate)
	case FormulaAnd:
		kind := FormulaAnd
		if negate {
			kind = FormulaOr // De Morgan: not(A & B) = not(A) | not(B)
		}
		return combineDNF(f.Children, universes, negate, kind)
	case FormulaOr:
		kind := FormulaOr
		if negate {
			kind = FormulaAnd // De Morgan: not(A | B) = not(A) & not(B)
		}
		return combineDNF(f.Children, universes, negate, kind)
	default:
		return nil, errs.NewScenario("unknown formula node kind")
	}
}

func combineDNF(children []*Formula, universes Universes, negate bool, kind FormulaKind) ([]conjunction, error) {
	childDNFs := make([][]conjunction, len(children))
	for i, c := range children {
		d, err := toDNF(c, universes, negate)
		if err != nil {
			return nil, err
		}
		childDNFs[i] = d
	}
	if kind == FormulaOr {
		var out []conjunction
		for _, d := range childDNFs {
			out = append(out, d...)
		}
		return out, nil
	}
	// FormulaAnd: cross-product the children's conjunction lists, merging
	// (intersecting) any sample that appears in more than one.
	out := []conjunction{{}}
	for _, d := range childDNFs {
		var next []conjunction
		for _, acc := range out {
			for _, c := range d {
				merged, ok := mergeConjunctions(acc, c)
				if ok {
					next = append(next, merged)
				}
			}
		}
		out = next
	}
	return out, nil
}

func mergeConjunctions(a, b conjunction) (conjunction, bool) {
	out := make(conjunction, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			merged := intersect(existing, v)
			if merged.empty() {
				return nil, false
			}
			out[k] = merged
		} else {
			out[k] = v
		}
	}
	return out, true
}

func (s Spectrum) empty() bool {
	return len(s.Discrete) == 0 && len(s.Intervals) == 0
}
