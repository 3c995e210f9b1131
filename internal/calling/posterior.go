package calling

import (
	"github.com/PROSIC/libprosic/internal/grammar"
	"github.com/PROSIC/libprosic/internal/logprob"
)

// PosteriorContext bundles everything needed to evaluate an event's
// posterior over its VAFTree (§4.5): the per-sample pileups/contamination,
// each sample's configured Simpson's-rule resolution, the prior, and the
// (already bias-selected, see internal/bias) likelihood weighting.
type PosteriorContext struct {
	Samples    map[string]*Sample
	Resolution map[string]int // per-sample grammar.SampleSpec.Resolution
	Prior      Prior
	Bias       BiasState
	Weight     BiasWeight
}

// Posterior evaluates log P(event | pileups) by depth-first traversal of
// tree, per §4.5: at each node, discrete spectra with >1 element are
// log-sum-exp'd over their elements; continuous intervals are Simpson's-rule
// integrated over `grid_points(sample) = clamp(|pileup|+1, 5, resolution)`
// forced odd, between the interval's own bounds (the "observable_min/max"
// coarsening is the interval bound itself, since §4.5 scopes each interval
// independently rather than over the whole spectrum). The final posterior is
// the log-sum-exp over the tree's root nodes.
func Posterior(tree *grammar.VAFTree, ctx *PosteriorContext) float64 {
	terms := make([]float64, len(tree.Roots))
	vafs := make(map[string]float64, len(ctx.Samples))
	for i, root := range tree.Roots {
		terms[i] = evalChain(root, vafs, ctx)
	}
	return logprob.Sum(terms)
}

func evalChain(node *grammar.VAFNode, vafs map[string]float64, ctx *PosteriorContext) float64 {
	spec := node.Spectrum
	var terms []float64

	for _, d := range spec.Discrete {
		vafs[node.Sample] = d
		terms = append(terms, continueChain(node, vafs, ctx))
	}

	if len(spec.Intervals) > 0 {
		n := ctx.gridPoints(node.Sample)
		for _, iv := range spec.Intervals {
			f := func(x float64) float64 {
				vafs[node.Sample] = x
				return continueChain(node, vafs, ctx)
			}
			terms = append(terms, logprob.SimpsonIntegrate(iv.Lo, iv.Hi, n, f))
		}
	}

	return logprob.Sum(terms)
}

func continueChain(node *grammar.VAFNode, vafs map[string]float64, ctx *PosteriorContext) float64 {
	if len(node.Children) == 0 {
		return ctx.Prior.LogProb(vafs) + JointLogLikelihood(ctx.Samples, vafs, ctx.Bias, ctx.Weight)
	}
	return evalChain(node.Children[0], vafs, ctx)
}

// gridPoints resolves grid_points(sample) per §4.5 using the sample's
// pileup size and configured resolution (default 100 if unset).
func (ctx *PosteriorContext) gridPoints(sample string) int {
	resolution := ctx.Resolution[sample]
	if resolution <= 0 {
		resolution = 100
	}
	pileupSize := 0
	if s, ok := ctx.Samples[sample]; ok {
		pileupSize = len(s.Pileup)
	}
	return logprob.GridPoints(pileupSize, resolution)
}

// MAP performs a coarse grid search over a sample's universe to find the
// maximum-a-posteriori VAF for that sample alone, holding every other
// sample's VAF at the first discrete value or interval midpoint of its
// spectrum and summing over every VAFTree root (§1: "a MAP allele-frequency
// estimate per sample"). steps
// controls the discretization of continuous intervals.
func MAP(tree *grammar.VAFTree, ctx *PosteriorContext, sample string, steps int) (vaf float64, logProb float64) {
	if steps < 2 {
		steps = 2
	}
	best := logprob.Zero
	bestVaf := 0.0
	first := true
	for _, root := range tree.Roots {
		candidates := candidateVAFs(root, sample, steps)
		for _, v := range candidates {
			vafs := make(map[string]float64, len(ctx.Samples))
			lp := evalWithFixed(root, vafs, ctx, sample, v)
			if first || lp > best {
				best = lp
				bestVaf = v
				first = false
			}
		}
	}
	return bestVaf, best
}

// candidateVAFs gathers discrete points, plus `steps` evenly spaced samples
// per interval, for sample wherever it appears along root's chain.
func candidateVAFs(node *grammar.VAFNode, sample string, steps int) []float64 {
	var out []float64
	for n := node; n != nil; {
		if n.Sample == sample {
			out = append(out, n.Spectrum.Discrete...)
			for _, iv := range n.Spectrum.Intervals {
				for i := 0; i < steps; i++ {
					t := float64(i) / float64(steps-1)
					out = append(out, iv.Lo+t*(iv.Hi-iv.Lo))
				}
			}
		}
		if len(n.Children) == 0 {
			break
		}
		n = n.Children[0]
	}
	return out
}

// evalWithFixed evaluates the chain rooted at node, pinning `sample` to
// `fixedVaf` wherever it occurs and otherwise taking the first discrete
// value (or interval midpoint) for every other sample — a coarse
// approximation adequate for a MAP point estimate, not a full joint
// optimization.
func evalWithFixed(node *grammar.VAFNode, vafs map[string]float64, ctx *PosteriorContext, sample string, fixedVaf float64) float64 {
	if node.Sample == sample {
		vafs[node.Sample] = fixedVaf
	} else if len(node.Spectrum.Discrete) > 0 {
		vafs[node.Sample] = node.Spectrum.Discrete[0]
	} else if len(node.Spectrum.Intervals) > 0 {
		iv := node.Spectrum.Intervals[0]
		vafs[node.Sample] = (iv.Lo + iv.Hi) / 2
	}
	if len(node.Children) == 0 {
		return ctx.Prior.LogProb(vafs) + JointLogLikelihood(ctx.Samples, vafs, ctx.Bias, ctx.Weight)
	}
	return evalWithFixed(node.Children[0], vafs, ctx, sample, fixedVaf)
}
