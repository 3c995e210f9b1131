// Package testcase implements the minimal offline-replay harness
// SPEC_FULL.md folds back from the original's src/testcase.rs: a directory
// holding {candidate record, BAM window, FASTA window, scenario} for one
// locus, so internal/preprocess and internal/calling can be driven and
// tested without a full production BAM/FASTA pair. The original's
// `--testcase-*` flags are out of core scope per §1; this package only
// provides the load/write primitives a CLI layer or a test would use.
package testcase

import (
	"context"
	"path/filepath"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/PROSIC/libprosic/internal/errs"
)

const (
	candidateFile = "candidate.vcf"
	bamFile       = "locus.bam"
	fastaFile     = "locus.fasta"
	scenarioFile  = "scenario.yaml"
)

// Testcase is one locus's full replay fixture: the candidate record, a
// pre-sliced BAM window covering it, a pre-sliced FASTA window of the
// surrounding reference, and the scenario it was called under.
type Testcase struct {
	Candidate []byte // one VCF line (plus header), the locus under test
	BAM       []byte // a BAM window, already sliced to the locus's padding
	FASTA     []byte // a FASTA window, already sliced similarly
	Scenario  []byte // the YAML scenario this locus was called under
}

// Write serializes tc into dir as four files, one per fixture component,
// using grailbio/base/file so dir may be any scheme file.Open supports
// (local or s3://), matching internal/refbuffer's own I/O convention.
func Write(ctx context.Context, dir string, tc Testcase) error {
	components := map[string][]byte{
		candidateFile: tc.Candidate,
		bamFile:       tc.BAM,
		fastaFile:     tc.FASTA,
		scenarioFile:  tc.Scenario,
	}
	for name, data := range components {
		if len(data) == 0 {
			continue
		}
		path := filepath.Join(dir, name)
		f, err := file.Create(ctx, path)
		if err != nil {
			return errors.Wrapf(err, "testcase: creating %s", path)
		}
		if _, err := f.Writer(ctx).Write(data); err != nil {
			f.Close(ctx)
			return errors.Wrapf(err, "testcase: writing %s", path)
		}
		if err := f.Close(ctx); err != nil {
			return errors.Wrapf(err, "testcase: closing %s", path)
		}
	}
	return nil
}

// Load reads back a Testcase directory written by Write. The candidate and
// scenario files must be present; a testcase with no BAM/FASTA window
// (a pure scenario-grammar fixture) is valid.
func Load(ctx context.Context, dir string) (*Testcase, error) {
	candidate, err := readOptional(ctx, filepath.Join(dir, candidateFile))
	if err != nil {
		return nil, err
	}
	if len(candidate) == 0 {
		return nil, errs.NewPolicy("testcase locus malformed: missing %s in %s", candidateFile, dir)
	}
	scenario, err := readOptional(ctx, filepath.Join(dir, scenarioFile))
	if err != nil {
		return nil, err
	}
	if len(scenario) == 0 {
		return nil, errs.NewPolicy("testcase locus malformed: missing %s in %s", scenarioFile, dir)
	}
	bam, err := readOptional(ctx, filepath.Join(dir, bamFile))
	if err != nil {
		return nil, err
	}
	fasta, err := readOptional(ctx, filepath.Join(dir, fastaFile))
	if err != nil {
		return nil, err
	}
	return &Testcase{Candidate: candidate, BAM: bam, FASTA: fasta, Scenario: scenario}, nil
}

func readOptional(ctx context.Context, path string) ([]byte, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		// A testcase directory legitimately omits components (a pure
		// scenario-grammar fixture has no BAM/FASTA window), so a missing
		// file here is not itself an error.
		return nil, nil
	}
	defer f.Close(ctx)

	r := f.Reader(ctx)
	var out []byte
	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}
