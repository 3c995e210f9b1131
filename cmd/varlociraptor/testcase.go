package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/grammar"
	"github.com/PROSIC/libprosic/internal/testcase"
)

func newTestcaseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "testcase", Short: "Save or replay a single-locus offline fixture"}
	cmd.AddCommand(newTestcaseSaveCmd())
	cmd.AddCommand(newTestcaseReplayCmd())
	return cmd
}

func newTestcaseSaveCmd() *cobra.Command {
	var candidatePath, scenarioPath, bamPath, fastaPath, dir string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Bundle a locus's candidate, BAM/FASTA windows, and scenario into a replay directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := testcase.Testcase{}
			var err error
			if tc.Candidate, err = readFileRequired(candidatePath, "candidate"); err != nil {
				return err
			}
			if tc.Scenario, err = readFileRequired(scenarioPath, "scenario"); err != nil {
				return err
			}
			if bamPath != "" {
				if tc.BAM, err = os.ReadFile(bamPath); err != nil {
					return err
				}
			}
			if fastaPath != "" {
				if tc.FASTA, err = os.ReadFile(fastaPath); err != nil {
					return err
				}
			}
			return testcase.Write(cmd.Context(), dir, tc)
		},
	}
	cmd.Flags().StringVar(&candidatePath, "candidate", "", "one-locus candidate VCF")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario YAML this locus was called under")
	cmd.Flags().StringVar(&bamPath, "bam", "", "pre-sliced BAM window covering the locus")
	cmd.Flags().StringVar(&fastaPath, "fasta", "", "pre-sliced FASTA window of the surrounding reference")
	cmd.Flags().StringVar(&dir, "out", "", "directory to write the testcase fixture into")
	cmd.MarkFlagRequired("candidate")
	cmd.MarkFlagRequired("scenario")
	cmd.MarkFlagRequired("out")
	return cmd
}

func readFileRequired(path, label string) ([]byte, error) {
	if path == "" {
		return nil, errs.NewInput("--%s is required", label)
	}
	return os.ReadFile(path)
}

func newTestcaseReplayCmd() *cobra.Command {
	var dir, outputPath string
	var workers int
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a saved testcase through preprocess and call, for one locus offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestcaseReplay(cmd.Context(), dir, outputPath, workers)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "testcase directory written by `testcase save`")
	cmd.Flags().StringVar(&outputPath, "output", "", "result VCF output path (default: STDOUT)")
	cmd.Flags().IntVar(&workers, "workers", 1, "worker pool size")
	cmd.MarkFlagRequired("dir")
	return cmd
}

// runTestcaseReplay loads a fixture written by `testcase save`, stages its
// BAM/FASTA windows and candidate record as temp files so bamreader.Open
// and refbuffer.Open can seek them like any other input, then chains
// the usual preprocess -> call path through a temp observation file. This
// is the "offline replay of one locus" internal/testcase's doc comment
// names as its reason for existing.
func runTestcaseReplay(ctx context.Context, dir, outputPath string, workers int) error {
	tc, err := testcase.Load(ctx, dir)
	if err != nil {
		return err
	}
	if len(tc.BAM) == 0 || len(tc.FASTA) == 0 {
		return errs.NewPolicy("testcase replay: %s has no BAM/FASTA window, nothing to preprocess", dir)
	}

	tmp, err := os.MkdirTemp("", "varlociraptor-testcase-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	bamPath := filepath.Join(tmp, "locus.bam")
	fastaPath := filepath.Join(tmp, "locus.fasta")
	candidatePath := filepath.Join(tmp, "candidate.vcf")
	observationsPath := filepath.Join(tmp, "observations.vcf")
	if err := os.WriteFile(bamPath, tc.BAM, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(fastaPath, tc.FASTA, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(candidatePath, tc.Candidate, 0o644); err != nil {
		return err
	}

	scenario, err := grammar.ParseScenario(tc.Scenario)
	if err != nil {
		return err
	}

	bams := make(map[string]string, len(scenario.Samples))
	for sample := range scenario.Samples {
		bams[sample] = bamPath
	}

	if err := runPreprocess(ctx, preprocessArgs{
		candidatesPath: candidatePath,
		outputPath:     observationsPath,
		fastaPath:      fastaPath,
		bams:           bams,
		workers:        workers,
	}); err != nil {
		return err
	}

	return runCall(ctx, observationsPath, outputPath, scenario, nil)
}
