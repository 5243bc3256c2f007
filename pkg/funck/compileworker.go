package funck

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CompileJob carries a ScopedDir into the Compile Worker. The ScopedDir is
// moved in: once sent, the Manager relinquishes ownership and only the
// worker may Release it.
type CompileJob struct {
	Dir ScopedDir
}

// CompileResult is emitted by the Compile Worker for every job that
// produces an artifact.
type CompileResult struct {
	ArtifactPath string
	JobName      string
}

// jobQueue is an unbounded, FIFO, multi-producer/single-consumer queue.
// Push never blocks; Pop blocks until an item is available or the queue is
// closed. It exists because Go's channels are fixed-capacity: this is the
// standard sync.Cond-backed pattern for an unbounded channel, used here
// because nothing in the dependency graph provides one and the queue is
// simple enough that reaching for a library would be the wrong call.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []CompileJob
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) push(j CompileJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, j)
	q.cond.Signal()
}

func (q *jobQueue) pop() (CompileJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return CompileJob{}, false
	}
	j := q.items[0]
	q.items = q.items[1:]
	return j, true
}

func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// CompileWorker is the single background consumer of compile jobs. Jobs
// are processed strictly sequentially, one compile in flight at a time —
// this is what makes the Compile Worker the sole holder of a CwdGuard
// safe.
type CompileWorker struct {
	jobs    *jobQueue
	tracker *StatusTracker
	timeout time.Duration // zero means unbounded

	mu      sync.Mutex
	started bool
}

// NewCompileWorker returns a CompileWorker that reports status transitions
// on tracker. A nonzero timeout bounds each compiler invocation; the
// default, zero, leaves a compile unbounded.
func NewCompileWorker(tracker *StatusTracker, timeout time.Duration) *CompileWorker {
	return &CompileWorker{
		jobs:    newJobQueue(),
		tracker: tracker,
		timeout: timeout,
	}
}

// Enqueue dispatches a job to the worker. Non-blocking; returns
// ErrWorkerNotStarted if Start has not yet been called.
func (w *CompileWorker) Enqueue(job CompileJob) error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return ErrWorkerNotStarted
	}
	w.jobs.push(job)
	return nil
}

// Start begins the background compile loop and returns the channel on
// which CompileResults will be delivered. The channel is closed once Stop
// has been called and every job already queued has been processed.
func (w *CompileWorker) Start() <-chan CompileResult {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	results := make(chan CompileResult)
	go w.compileLoop(results)
	return results
}

// Stop signals the worker to exit once its current job (if any) completes
// and no further jobs are queued. Nothing in this repository calls it; the
// Manager keeps its worker running for its whole lifetime.
func (w *CompileWorker) Stop() {
	w.jobs.close()
}

func (w *CompileWorker) compileLoop(results chan<- CompileResult) {
	defer close(results)
	for {
		job, ok := w.jobs.pop()
		if !ok {
			return
		}
		res, err := w.runJob(job)
		if err != nil {
			logrus.WithError(err).WithField("job", job.Dir.JobName()).
				Warn("compile job failed")
			continue
		}
		results <- res
	}
}

// runJob executes one compile job end to end. Every exit path — success,
// compiler failure, missing output — releases the CwdGuard and the
// ScopedDir exactly once.
func (w *CompileWorker) runJob(job CompileJob) (CompileResult, error) {
	name := job.Dir.JobName()
	w.tracker.Set(name, StatusEntry{Phase: Compiling})

	guard, err := AcquireCwdGuard(job.Dir.Path())
	if err != nil {
		w.fail(name, err)
		job.Dir.Release()
		return CompileResult{}, err
	}
	defer guard.Release()
	defer job.Dir.Release()

	project := filepath.Base(job.Dir.Path())

	ctx := context.Background()
	var cancel context.CancelFunc
	if w.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	// The artifact is written beside the source directory rather than inside
	// it, so it outlives the ScopedDir's release when runJob returns.
	outputPath := filepath.Join(filepath.Dir(job.Dir.Path()), project+pluginExt)
	cmd := exec.CommandContext(ctx, "go", "build", "-buildmode=plugin", "-o", outputPath, ".")
	cmd.Dir = job.Dir.Path()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logrus.WithField("job", name).Debug("cd " + job.Dir.Path() + " && " + cmd.String())

	if err := cmd.Start(); err != nil {
		werr := ErrBuildSpawn{Err: err}
		w.fail(name, werr)
		return CompileResult{}, werr
	}
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			werr := ErrExitCodeNonZero{Code: exitErr.ExitCode()}
			w.fail(name, werr)
			return CompileResult{}, werr
		}
		werr := ErrBuildJoin{Err: err}
		w.fail(name, werr)
		return CompileResult{}, werr
	}

	canon, err := filepath.Abs(outputPath)
	if err != nil {
		werr := ErrInvalidOutputPath{Path: outputPath, Err: err}
		w.fail(name, werr)
		return CompileResult{}, werr
	}
	if _, statErr := os.Stat(canon); statErr != nil {
		werr := ErrInvalidOutputPath{Path: canon, Err: statErr}
		w.fail(name, werr)
		return CompileResult{}, werr
	}

	logrus.WithFields(logrus.Fields{"job": name, "artifact": canon}).Info("compiled successfully")
	return CompileResult{ArtifactPath: canon, JobName: name}, nil
}

func (w *CompileWorker) fail(name string, reason error) {
	w.tracker.Set(name, StatusEntry{Phase: Failed, Reason: reason.Error()})
}

// pluginExt is the file extension go build -buildmode=plugin produces for
// the host platform. Go's plugin buildmode is only supported on ELF/Mach-O
// targets and always emits a ".so" file regardless of OS, unlike cgo
// shared libraries which vary by platform.
const pluginExt = ".so"
