// Package preprocess implements the preprocessor of §4.6: a single
// producer reading candidates in input order, a bounded-channel worker pool
// each running its own per-sample sample engines, and an ordered consumer
// that reassembles results by their producer-assigned index before handing
// them onward to the output BCF writer — the concurrency model of §5.
package preprocess

import (
	"context"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/sampleengine"
	"github.com/PROSIC/libprosic/internal/variant"
	"github.com/PROSIC/libprosic/internal/variant/breakend"
)

// Job is one preprocessing unit handed from the producer to the worker
// pool, per §4.6. Non-breakend candidates carry their Variant directly.
// Breakend records instead carry a BreakendMember; the pipeline accumulates
// these per event id and only dispatches a Job once the group's last member
// has arrived (§4.6's "last record of a group ... triggers evidence
// extraction").
type Job struct {
	Index   uint64
	Variant *variant.Variant

	BreakendEventID       string
	BreakendExpectedCount int
	BreakendMember        *breakend.Member
}

// Calls bundles one job's per-sample observation pileups with its
// originating index, per §4.6's "Calls{index, records}".
type Calls struct {
	Index        uint64
	Variant      *variant.Variant
	Observations map[string]observation.Pileup
}

// Options configures the pipeline's concurrency and memory bounds.
type Options struct {
	// Workers is the size of the worker pool (§5: "workers are parallel OS
	// threads").
	Workers int
	// QueueDepth bounds the producer->worker and worker->consumer channels.
	QueueDepth int
	// SpillThreshold is how many out-of-order result bundles the reorder
	// buffer holds in memory before spilling the farthest-from-ready ones
	// to disk (zstd-compressed). Zero disables spilling.
	SpillThreshold int
	// SpillDir is where spilled bundles are written; defaults to the OS
	// temp directory.
	SpillDir string
}

// DefaultOptions returns reasonable defaults for interactive use.
func DefaultOptions() Options {
	return Options{Workers: 4, QueueDepth: 64, SpillThreshold: 256, SpillDir: os.TempDir()}
}

// Pipeline ties per-sample sample engines into the producer/worker/consumer
// model of §5.
type Pipeline struct {
	// NewEngines builds one fresh set of per-sample sampleengine.Engines.
	// It is called once per worker goroutine, never shared across workers,
	// since each sampleengine.Engine holds an open, single-threaded
	// bamreader.Reader (§5: "BAM/BCF readers are per-thread").
	NewEngines func() (map[string]*sampleengine.Engine, error)
	Opts       Options
}

// Run drives the pipeline to completion: it consumes jobs (which must
// arrive in strictly ascending Index order, mirroring the single producer
// reading the input BCF linearly), dispatches each to the worker pool, and
// calls emit exactly once per input record, strictly in Index order — the
// postprocessor's job of reassembling output in input order (§4.6/§5).
//
// Run returns the first error encountered, either from a worker (a
// candidate that could not be evaluated) or from the reorder/spill layer.
func (p *Pipeline) Run(ctx context.Context, jobs <-chan Job, emit func(Calls) error) error {
	opts := p.Opts
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = opts.Workers * 4
	}

	workCh := make(chan Job, opts.QueueDepth)
	resultCh := make(chan Calls, opts.QueueDepth)
	errCh := make(chan error, 2)

	go runProducer(ctx, jobs, workCh, errCh)
	go runWorkers(opts, p.NewEngines, workCh, resultCh, errCh)

	buf := newReorderBuffer(opts.SpillDir, opts.SpillThreshold)
	for calls := range resultCh {
		ready, err := buf.push(calls)
		if err != nil {
			drain(resultCh)
			return errors.Wrap(err, "preprocess: reorder buffer")
		}
		for _, c := range ready {
			if err := emit(*c); err != nil {
				drain(resultCh)
				return err
			}
		}
	}
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	default:
	}
	if n := buf.pending(); n > 0 {
		return errors.Errorf("preprocess: %d bundle(s) never reached their turn", n)
	}
	return nil
}

func drain(ch <-chan Calls) {
	for range ch {
	}
}

// runProducer is the single-producer side of §4.6: read jobs in order,
// accumulating breakend groups via a private Arena, and forward a Job to
// the worker pool as soon as it is ready to be evaluated.
func runProducer(ctx context.Context, jobs <-chan Job, workCh chan<- Job, errCh chan<- error) {
	defer close(workCh)
	arena := breakend.NewArena()
	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if job.BreakendMember == nil {
			workCh <- job
			continue
		}
		dispatched, err := resolveBreakend(arena, job)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		if dispatched != nil {
			workCh <- *dispatched
		}
	}
}

// resolveBreakend accumulates one breakend member and, once its group is
// complete, builds the group's alt-haplotype graph and returns a Job ready
// for evaluation (§4.3's breakend handling, §4.6's group-id accumulation).
func resolveBreakend(arena *breakend.Arena, job Job) (*Job, error) {
	members, ready, err := arena.Add(job.BreakendEventID, job.BreakendExpectedCount, *job.BreakendMember)
	if err != nil || !ready {
		return nil, err
	}
	graph, err := breakend.Build(members)
	if err != nil {
		return nil, err
	}
	walks, _ := graph.Walks()
	if len(walks) == 0 {
		return nil, errors.Errorf("preprocess: breakend event %s produced no alt-haplotype walk", job.BreakendEventID)
	}
	alt := breakend.Concat(walks[0])
	v := *job.Variant
	v.Kind = variant.Breakend
	v.Alt = alt
	// Only len(Ref) matters to the alt-haplotype splice (BuildSplicedAltWindow
	// cuts out len(Ref) reference bases at v.Start and replaces them with the
	// concatenated extension); the VCF breakend convention anchors on a
	// single reference base at the breakpoint.
	v.Ref = []byte{0}
	return &Job{Index: job.Index, Variant: &v}, nil
}

// runWorkers launches Opts.Workers persistent workers via
// grailbio/base/traverse.Each, each with its own sample-engine set, pulling
// from workCh until it's closed (§5: "Workers are parallel OS threads;
// within a worker all per-record computation is synchronous").
func runWorkers(opts Options, newEngines func() (map[string]*sampleengine.Engine, error), workCh <-chan Job, resultCh chan<- Calls, errCh chan<- error) {
	defer close(resultCh)
	err := traverse.Each(opts.Workers, func(workerIdx int) error {
		engines, err := newEngines()
		if err != nil {
			return errors.Wrapf(err, "preprocess: worker %d: building sample engines", workerIdx)
		}
		for job := range workCh {
			obs := make(map[string]observation.Pileup, len(engines))
			for sample, eng := range engines {
				pileup, err := eng.Extract(job.Variant)
				if err != nil {
					// A single sample/candidate's evidence extraction failing
					// (e.g. a malformed read, an unreadable reference window)
					// is never promoted to a process-fatal error; it is
					// logged and that sample's pileup is dropped so the rest
					// of the candidate's evidence, and every other candidate,
					// still goes through (§4.8/§7).
					log.Error.Printf("preprocess: sample %s: candidate %s:%d: %v", sample, job.Variant.Contig, job.Variant.Start, err)
					continue
				}
				obs[sample] = pileup
			}
			resultCh <- Calls{Index: job.Index, Variant: job.Variant, Observations: obs}
		}
		return nil
	})
	if err != nil {
		select {
		case errCh <- err:
		default:
		}
	}
}
