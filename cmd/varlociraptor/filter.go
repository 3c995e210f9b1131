package main

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/PROSIC/libprosic/internal/bcfio"
	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/filter"
	"github.com/PROSIC/libprosic/internal/phred"
)

func newFilterCallsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "filter-calls", Short: "Threshold a called result stream"}
	cmd.AddCommand(newFilterControlFDRCmd())
	cmd.AddCommand(newFilterPosteriorOddsCmd())
	return cmd
}

func newFilterControlFDRCmd() *cobra.Command {
	var resultsPath, outputPath, event string
	var alpha float64
	cmd := &cobra.Command{
		Use:   "control-fdr",
		Short: "Keep the largest confidence-sorted prefix whose estimated FDR stays under alpha",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(resultsPath, outputPath, event, func(calls []filter.Call) ([]filter.Call, error) {
				return filter.ControlFDR(calls, alpha)
			})
		},
	}
	cmd.Flags().StringVar(&resultsPath, "calls", "", "result VCF path (default: STDIN)")
	cmd.Flags().StringVar(&outputPath, "output", "", "filtered VCF output path (default: STDOUT)")
	cmd.Flags().StringVar(&event, "event", "", "event name to threshold on (the PROB_<event> INFO tag)")
	cmd.Flags().Float64Var(&alpha, "fdr", 0.05, "target false discovery rate")
	cmd.MarkFlagRequired("event")
	return cmd
}

func newFilterPosteriorOddsCmd() *cobra.Command {
	var resultsPath, outputPath, event, thresholdName string
	cmd := &cobra.Command{
		Use:   "posterior-odds",
		Short: "Keep calls whose Kass-Raftery evidence for an event meets a threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := filter.ParseThreshold(thresholdName)
			if err != nil {
				return err
			}
			return runFilter(resultsPath, outputPath, event, func(calls []filter.Call) ([]filter.Call, error) {
				return filter.PosteriorOdds(calls, threshold), nil
			})
		},
	}
	cmd.Flags().StringVar(&resultsPath, "calls", "", "result VCF path (default: STDIN)")
	cmd.Flags().StringVar(&outputPath, "output", "", "filtered VCF output path (default: STDOUT)")
	cmd.Flags().StringVar(&event, "event", "", "event name to threshold on (the PROB_<event> INFO tag)")
	cmd.Flags().StringVar(&thresholdName, "threshold", "strong", "barely-worth-mentioning|positive|strong|very-strong")
	cmd.MarkFlagRequired("event")
	return cmd
}

// runFilter reads every bcfio.Call from the results stream, converts each
// PROB_<event> PHRED value back to a probability, lets selectFn decide
// which indices survive, and re-emits exactly those records in their
// original order.
func runFilter(resultsPath, outputPath, event string, selectFn func([]filter.Call) ([]filter.Call, error)) error {
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

	var calls []bcfio.Call
	var probs []filter.Call
	if err := bcfio.ReadResults(in, func(c bcfio.Call) error {
		phredVal, ok := c.EventPHRED[event]
		if !ok {
			return errs.NewInput("call at %s:%d has no PROB_%s", c.Variant.Contig, c.Variant.Start, event)
		}
		logP, err := phred.ToLogProb(phredVal)
		if err != nil {
			return err
		}
		idx := len(calls)
		calls = append(calls, c)
		probs = append(probs, filter.Call{Index: idx, Prob: math.Exp(logP)})
		return nil
	}); err != nil {
		return err
	}

	kept, err := selectFn(probs)
	if err != nil {
		return err
	}

	var contigs []string
	events := make(map[string]bool)
	for _, c := range calls {
		contigs = append(contigs, c.Variant.Contig)
		for ev := range c.EventPHRED {
			events[ev] = true
		}
	}
	eventNames := make([]string, 0, len(events))
	for ev := range events {
		eventNames = append(eventNames, ev)
	}
	if err := bcfio.WriteResultHeader(out, bcfio.ResultHeader{Contigs: uniqueStrings(contigs), Events: eventNames}); err != nil {
		return err
	}
	for _, k := range kept {
		if err := bcfio.WriteResult(out, calls[k.Index]); err != nil {
			return err
		}
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
