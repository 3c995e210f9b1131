package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PROSIC/libprosic/internal/alignprops"
	"github.com/PROSIC/libprosic/internal/bamreader"
	"github.com/PROSIC/libprosic/internal/bcfio"
	"github.com/PROSIC/libprosic/internal/cliutil"
	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/obsio"
	"github.com/PROSIC/libprosic/internal/preprocess"
	"github.com/PROSIC/libprosic/internal/refbuffer"
	"github.com/PROSIC/libprosic/internal/sampleengine"
)

func newPreprocessCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "preprocess", Short: "Preprocess candidates into per-sample observations"}
	cmd.AddCommand(newPreprocessVariantsCmd())
	return cmd
}

func newPreprocessVariantsCmd() *cobra.Command {
	var (
		candidatesPath string
		outputPath     string
		fastaPath      string
		bamFlags       []string
		workers        int
	)
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "Extract per-sample observation pileups for each candidate (§4.6)",
		RunE: func(cmd *cobra.Command, args []string) error {
			bams, err := parseSampleFlags(bamFlags)
			if err != nil {
				return err
			}
			return runPreprocess(cmd.Context(), preprocessArgs{
				candidatesPath: candidatesPath,
				outputPath:     outputPath,
				fastaPath:      fastaPath,
				bams:           bams,
				workers:        workers,
			})
		},
	}
	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "candidate VCF path (default: STDIN)")
	cmd.Flags().StringVar(&outputPath, "output", "", "observation VCF output path (default: STDOUT)")
	cmd.Flags().StringVar(&fastaPath, "reference", "", "reference FASTA path")
	cmd.Flags().StringArrayVar(&bamFlags, "bam", nil, "sample=path.bam, repeatable")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default: preprocess.DefaultOptions)")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("bam")
	return cmd
}

// parseSampleFlags turns repeated --bam sample=path flags into a
// {sample: path} map.
func parseSampleFlags(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		sample, path, ok := strings.Cut(f, "=")
		if !ok {
			return nil, errs.NewInput("malformed --bam %q, want sample=path", f)
		}
		out[sample] = path
	}
	if len(out) == 0 {
		return nil, errs.NewInput("at least one --bam sample=path is required")
	}
	return out, nil
}

type preprocessArgs struct {
	candidatesPath, outputPath, fastaPath string
	bams                                  map[string]string
	workers                               int
}

// runPreprocess wires §4.6's pipeline end to end: it buffers the candidate
// stream once (bcfio.ToChannel into a slice) to pre-compute each breakend
// group's expected member count, the "pre-computed breakend index" bcfio's
// own CandidateRecord doc anticipates, since that count can't be known from
// a single streaming pass. It then replays the buffered candidates as an
// ordered Job channel into preprocess.Pipeline.
func runPreprocess(ctx context.Context, args preprocessArgs) error {
	in, err := openInput(args.candidatesPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := createOutput(args.outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	records, err := readAllCandidates(in)
	if err != nil {
		return err
	}

	eventCounts := make(map[string]int)
	for _, rec := range records {
		if rec.BreakendEventID != "" {
			eventCounts[rec.BreakendEventID]++
		}
	}

	v := viper.GetViper()
	engineOpts, err := cliutil.SampleEngineOptions(v)
	if err != nil {
		return err
	}

	ref, err := refbuffer.Open(ctx, args.fastaPath)
	if err != nil {
		return err
	}

	sampleOrder := make([]string, 0, len(args.bams))
	for sample := range args.bams {
		sampleOrder = append(sampleOrder, sample)
	}

	newEngines := func() (map[string]*sampleengine.Engine, error) {
		engines := make(map[string]*sampleengine.Engine, len(args.bams))
		for sample, path := range args.bams {
			reads, err := bamreader.Open(ctx, path)
			if err != nil {
				return nil, errs.NewInput("opening BAM for sample %s: %v", sample, err)
			}
			raw, err := reads.SampleRecords(10000)
			if err != nil {
				return nil, err
			}
			props := alignprops.Estimate(bamreader.AsAlignPropsRecords(raw))
			engines[sample] = sampleengine.New(reads, ref, props, engineOpts)
		}
		return engines, nil
	}

	opts := preprocess.DefaultOptions()
	if args.workers > 0 {
		opts.Workers = args.workers
	}
	pipeline := &preprocess.Pipeline{NewEngines: newEngines, Opts: opts}

	jobs := make(chan preprocess.Job, opts.QueueDepth)
	go func() {
		defer close(jobs)
		for i, rec := range records {
			job := preprocess.Job{Index: uint64(i), Variant: rec.Variant}
			if rec.BreakendEventID != "" {
				job.BreakendEventID = rec.BreakendEventID
				job.BreakendExpectedCount = eventCounts[rec.BreakendEventID]
				job.BreakendMember = rec.BreakendMember
			}
			jobs <- job
		}
	}()

	header := bcfio.ObservationHeader{FormatVersion: obsio.OBSERVATION_FORMAT_VERSION, Samples: sampleOrder}
	if err := bcfio.WriteObservationHeader(out, header); err != nil {
		return err
	}

	return pipeline.Run(ctx, jobs, func(calls preprocess.Calls) error {
		return bcfio.WriteObservationRecord(out, calls.Variant, sampleOrder, calls.Observations)
	})
}

// readAllCandidates drains bcfio.ToChannel into a slice, logging (not
// failing on) malformed lines to stderr, matching the original's tolerant
// treatment of a single bad candidate record.
func readAllCandidates(in io.Reader) ([]bcfio.CandidateRecord, error) {
	out := make(chan bcfio.CandidateRecord, 256)
	invalid := make(chan bcfio.InvalidLine, 256)
	errCh := make(chan error, 1)
	go func() { errCh <- bcfio.ToChannel(in, out, invalid) }()

	var records []bcfio.CandidateRecord
	outOpen, invalidOpen := true, true
	for outOpen || invalidOpen {
		select {
		case rec, ok := <-out:
			if !ok {
				outOpen = false
				continue
			}
			records = append(records, rec)
		case inv, ok := <-invalid:
			if !ok {
				invalidOpen = false
				continue
			}
			fmt.Fprintf(os.Stderr, "varlociraptor: skipping invalid candidate line: %v\n", inv.Err)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return records, nil
}
