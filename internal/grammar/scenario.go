package grammar

import (
	"gopkg.in/yaml.v3"

	"github.com/PROSIC/libprosic/internal/errs"
)

// Scenario is the parsed form of the YAML scenario document of §6: a map of
// samples to their VAF universe/resolution/contamination, and a map of named
// events to the formula each expands into.
type Scenario struct {
	Samples map[string]SampleSpec
	Events  map[string]*Formula
}

// SampleSpec is one entry of the scenario's `samples:` map.
type SampleSpec struct {
	Universe     Spectrum
	Resolution   int
	Contamination *Contamination
}

// Contamination declares that a sample's reads are a mixture with another
// sample, per the "Contamination" glossary entry.
type Contamination struct {
	By       string
	Fraction float64
}

// rawScenario mirrors the YAML document shape for unmarshaling; Spectrum and
// Formula need custom parsing from their string forms, so this is decoded
// first and then converted to a Scenario.
type rawScenario struct {
	Samples map[string]rawSample `yaml:"samples"`
	Events  map[string]string    `yaml:"events"`
}

type rawSample struct {
	Universe      string             `yaml:"universe"`
	Resolution    int                `yaml:"resolution"`
	Contamination *rawContamination  `yaml:"contamination"`
}

type rawContamination struct {
	By       string  `yaml:"by"`
	Fraction float64 `yaml:"fraction"`
}

// ParseScenario parses a scenario YAML document (§6).
func ParseScenario(data []byte) (*Scenario, error) {
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.NewScenario("malformed scenario YAML: %v", err)
	}
	if len(raw.Samples) == 0 {
		return nil, errs.NewScenario("scenario declares no samples")
	}
	scenario := &Scenario{
		Samples: make(map[string]SampleSpec, len(raw.Samples)),
		Events:  make(map[string]*Formula, len(raw.Events)),
	}
	for name, rs := range raw.Samples {
		universe, err := ParseSpectrum(rs.Universe)
		if err != nil {
			return nil, errs.NewScenario("sample %q: invalid universe: %v", name, err)
		}
		spec := SampleSpec{Universe: universe, Resolution: rs.Resolution}
		if rs.Contamination != nil {
			spec.Contamination = &Contamination{By: rs.Contamination.By, Fraction: rs.Contamination.Fraction}
		}
		scenario.Samples[name] = spec
	}
	for name, formulaStr := range raw.Events {
		formula, err := ParseFormula(formulaStr)
		if err != nil {
			return nil, errs.NewScenario("event %q: %v", name, err)
		}
		for sample := range formula.Samples() {
			if _, ok := scenario.Samples[sample]; !ok {
				return nil, errs.NewScenario("event %q references unknown sample %q", name, sample)
			}
		}
		scenario.Events[name] = formula
	}
	for name, spec := range scenario.Samples {
		if spec.Contamination != nil {
			if _, ok := scenario.Samples[spec.Contamination.By]; !ok {
				return nil, errs.NewScenario("sample %q: contamination references unknown sample %q", name, spec.Contamination.By)
			}
		}
	}
	return scenario, nil
}

// Universes extracts the {sample: universe} map VAFTree construction needs
// to resolve negated atoms.
func (s *Scenario) Universes() Universes {
	out := make(Universes, len(s.Samples))
	for name, spec := range s.Samples {
		out[name] = spec.Universe
	}
	return out
}

// VAFTree builds the VAFTree for the named event.
func (s *Scenario) VAFTree(event string) (*VAFTree, error) {
	formula, ok := s.Events[event]
	if !ok {
		return nil, errs.NewScenario("unknown event %q", event)
	}
	return BuildVAFTree(formula, s.Universes())
}
