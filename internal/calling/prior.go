package calling

// Prior weighs a complete VAF assignment across samples before it is
// combined with the likelihood, per §4.5 ("Prior: pluggable; default flat
// prior returns log 1 for all events").
type Prior interface {
	LogProb(vafs map[string]float64) float64
}

// FlatPrior is the default: every VAF assignment is equally likely.
type FlatPrior struct{}

// LogProb always returns log(1) = 0.
func (FlatPrior) LogProb(map[string]float64) float64 { return 0 }

// SingleCellBulkPrior is a supplemental prior (not named in the core spec,
// but a natural extension of the flat/default-prior mechanism for the
// single-cell/bulk sample pairing mentioned in §1's scope) that favors VAF
// assignments consistent with clonal expansion: a single-cell sample's VAF
// is expected to be at or near a small set of discrete ploidy fractions
// (het/hom states), while its paired bulk sample is expected to show the
// same variant at a correlated, typically lower, frequency reflecting
// subclonal dilution. Deviation from that relationship is penalized
// log-linearly by Concentration; Concentration == 0 degenerates to FlatPrior.
type SingleCellBulkPrior struct {
	SingleCellSample string
	BulkSample       string
	// PloidyStates are the single-cell sample's allowed clonal VAFs, e.g.
	// {0.0, 0.5, 1.0} for a diploid single cell.
	PloidyStates []float64
	// Concentration controls how sharply the bulk VAF is expected to track
	// the single-cell VAF; 0 disables the coupling term entirely.
	Concentration float64
}

// LogProb penalizes (a) a single-cell VAF far from any declared ploidy
// state, and (b) a bulk VAF that diverges from the single-cell VAF scaled by
// Concentration, in log space.
func (p SingleCellBulkPrior) LogProb(vafs map[string]float64) float64 {
	if p.Concentration == 0 {
		return 0
	}
	scVaf, ok := vafs[p.SingleCellSample]
	if !ok {
		return 0
	}
	bestPloidyDist := 1.0
	for _, state := range p.PloidyStates {
		d := state - scVaf
		if d < 0 {
			d = -d
		}
		if d < bestPloidyDist {
			bestPloidyDist = d
		}
	}
	logProb := -p.Concentration * bestPloidyDist

	if bulkVaf, ok := vafs[p.BulkSample]; ok {
		diff := bulkVaf - scVaf
		if diff < 0 {
			diff = -diff
		}
		logProb -= p.Concentration * diff
	}
	return logProb
}
