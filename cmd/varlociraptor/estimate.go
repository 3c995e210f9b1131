package main

import (
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PROSIC/libprosic/internal/bcfio"
	"github.com/PROSIC/libprosic/internal/phred"
	"github.com/PROSIC/libprosic/internal/tmb"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "estimate", Short: "Estimate summary statistics from a called result stream"}
	cmd.AddCommand(newEstimateTMBCmd())
	return cmd
}

func newEstimateTMBCmd() *cobra.Command {
	var resultsPath, outputPath, sample, eventsFlag string
	var codingGenomeSize int64
	cmd := &cobra.Command{
		Use:   "tmb",
		Short: "Estimate tumor mutational burden from a called result stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			events := strings.Split(eventsFlag, ",")
			in, err := openInput(resultsPath)
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := createOutput(outputPath)
			if err != nil {
				return err
			}
			defer out.Close()

			var calls []tmb.Call
			if err := bcfio.ReadResults(in, func(c bcfio.Call) error {
				probs := make(map[string]float64, len(c.EventPHRED))
				for ev, phredVal := range c.EventPHRED {
					logP, err := phred.ToLogProb(phredVal)
					if err != nil {
						return err
					}
					probs[ev] = math.Exp(logP)
				}
				calls = append(calls, tmb.Call{Contig: c.Variant.Contig, Pos: c.Variant.Start, EventProb: probs})
				return nil
			}); err != nil {
				return err
			}

			mutationsPerMb, totalMutations, err := tmb.Estimate(calls, events, codingGenomeSize)
			if err != nil {
				return err
			}
			return tmb.WriteReport(out, sample, mutationsPerMb, totalMutations, codingGenomeSize)
		},
	}
	cmd.Flags().StringVar(&resultsPath, "calls", "", "result VCF path (default: STDIN)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Vega-Lite report JSON output path (default: STDOUT)")
	cmd.Flags().StringVar(&sample, "sample", "tumor", "sample name to label the report with")
	cmd.Flags().StringVar(&eventsFlag, "events", "somatic_tumor", "comma-separated somatic event names to aggregate")
	cmd.Flags().Int64Var(&codingGenomeSize, "coding-genome-size", 3.0e7, "coding genome size in bases")
	return cmd
}
