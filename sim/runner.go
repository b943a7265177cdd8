package sim

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var csvHeader = []string{"seconds", "requests_in_system", "waiting_mean", "reqs_in_system_mean"}

// Report is the outcome of one experiment's job: how many rows it
// wrote, its final snapshot, and any error encountered. The CLI uses
// the aggregate of these to decide the process exit code.
type Report struct {
	Name        string
	RowsWritten int
	Final       SysState
	Err         error
	Cancelled   bool
}

// Runner is the bounded worker pool that executes independent
// experiments concurrently, writing one CSV file per experiment.
// Workers share nothing but the pool's semaphore and WaitGroup, the
// mutex-guarded ProgressReporter, and the process-wide request-id
// counter; each owns its own System, SysState, RNG, CSV writer, and
// progress handle exclusively (spec.md §5).
type Runner struct {
	PoolSize  int
	OutputDir string
	Log       *logrus.Logger
	Progress  *ProgressReporter

	cancel context.CancelFunc
	ctx    context.Context
}

// NewRunner builds a Runner with a worker pool sized to
// runtime.NumCPU() by default. log and progress may be nil.
func NewRunner(log *logrus.Logger, progress *ProgressReporter) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logrus.New()
	}
	if progress == nil {
		progress = NewProgressReporter(nil)
	}
	return &Runner{
		PoolSize: runtime.NumCPU(),
		Log:      log,
		Progress: progress,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Cancel requests cooperative shutdown: every worker polls the
// context between Steps and, on cancellation, flushes its buffered CSV
// rows and returns early. A partial CSV is a valid output of a
// cancelled run.
func (r *Runner) Cancel() {
	r.cancel()
}

// Run sorts experiments by descending horizon (longest jobs start
// first, reducing the batch's tail latency), then executes each on a
// semaphore-bounded worker pool, waiting for all to finish before
// returning. Experiments are fully independent: no shared mutable
// state beyond the WaitGroup that signals completion, the progress
// reporter, and the atomic request-id counter.
func (r *Runner) Run(cfg Config) []Report {
	type named struct {
		name string
		exp  Experiment
	}
	ordered := make([]named, 0, len(cfg.Experiments))
	for name, exp := range cfg.Experiments {
		ordered = append(ordered, named{name, exp})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].exp.Seconds > ordered[j].exp.Seconds
	})

	poolSize := r.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	sem := make(chan struct{}, poolSize)
	reports := make([]Report, len(ordered))

	var wg sync.WaitGroup
	for i, n := range ordered {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, name string, exp Experiment) {
			defer wg.Done()
			defer func() { <-sem }()
			reports[idx] = r.runExperiment(name, exp)
		}(i, n.name, n.exp)
	}
	wg.Wait()

	return reports
}

// runExperiment constructs a System for exp, steps it to its horizon
// while streaming rows into a SysState and a CSV sink, and returns its
// Report.
func (r *Runner) runExperiment(name string, exp Experiment) Report {
	log := r.Log.WithField("experiment", name)

	arrivalDist, serviceDist, err := exp.BuildDistributions()
	if err != nil {
		return Report{Name: name, Err: fmt.Errorf("building distributions: %w", err)}
	}

	seed := exp.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	system := NewSystem(exp.NodesNumber, exp.QueueCapacity, arrivalDist, serviceDist, rng, log)
	state := NewSysState()

	path := name + ".csv"
	if r.OutputDir != "" {
		path = r.OutputDir + string(os.PathSeparator) + path
	}
	f, err := os.Create(path)
	if err != nil {
		return Report{Name: name, Err: fmt.Errorf("opening %s: %w", path, err)}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return Report{Name: name, Err: fmt.Errorf("writing header for %s: %w", path, err)}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Report{Name: name, Err: fmt.Errorf("flushing header for %s: %w", path, err)}
	}

	handle := r.Progress.NewHandle(name)
	handle.SetTotal(exp.Seconds)

	return r.stepToHorizon(name, path, log, system, state, w, handle, exp.Seconds)
}

// stepToHorizon drives system to its horizon, one row per step, flushing
// after every row so a crash or cancellation never loses buffered
// output. A panic raised by system.Step() (an invariant violation, per
// spec.md §7) is recovered here and converted into that experiment's
// own Report.Err rather than being allowed to unwind into runExperiment's
// caller goroutine and crash the whole process — every other
// in-flight experiment keeps running undisturbed.
func (r *Runner) stepToHorizon(name, path string, log *logrus.Entry, system *System, state *SysState, w *csv.Writer, handle *ProgressHandle, seconds float64) (report Report) {
	rows := 0

	defer func() {
		if rec := recover(); rec != nil {
			w.Flush()
			log.WithField("panic", rec).Error("experiment panicked on an invariant violation, isolating failure to this worker")
			report = Report{Name: name, RowsWritten: rows, Final: *state, Err: fmt.Errorf("experiment %s panicked: %v", name, rec)}
		}
	}()

	for system.CurrentTime() < seconds {
		select {
		case <-r.ctx.Done():
			w.Flush()
			log.Info("experiment cancelled, partial CSV flushed")
			return Report{Name: name, RowsWritten: rows, Final: *state, Cancelled: true}
		default:
		}

		stepStats := system.Step()
		state.Update(stepStats.CurrentTime, stepStats.RequestsInSystem, stepStats.LastFinished)

		if err := w.Write(state.ToRow()); err != nil {
			return Report{Name: name, RowsWritten: rows, Err: fmt.Errorf("writing row for %s: %w", path, err)}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return Report{Name: name, RowsWritten: rows, Err: fmt.Errorf("flushing row for %s: %w", path, err)}
		}
		rows++
		handle.Advance(stepStats.CurrentTime)
	}
	handle.Finish()

	log.WithField("rows", rows).Info("experiment complete")
	return Report{Name: name, RowsWritten: rows, Final: *state}
}
