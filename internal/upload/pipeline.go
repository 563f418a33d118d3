// Package upload implements the sequential multi-file upload pipeline:
// a pending batch of file tasks drained one at a time against a destination
// directory, with fractional progress and fail-fast semantics.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/filehaven/filehaven/internal/logging"
)

// DefaultSettleDelay is how long the terminal 100% progress stays visible
// before the progress resets after a fully successful batch.
const DefaultSettleDelay = 1 * time.Second

// Task is one pending file upload. Duplicate display names are allowed and
// treated as independent tasks.
type Task struct {
	DisplayName string
	Size        int64
	// Open returns the byte stream to upload. It is called once, when the
	// task's turn comes, so file handles are not held while the task waits
	// in the batch.
	Open func() (io.ReadCloser, error)
}

// NewFileTask builds a Task from a local file path.
func NewFileTask(path string) (Task, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Task{}, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Task{}, fmt.Errorf("%s is a directory", path)
	}
	return Task{
		DisplayName: filepath.Base(path),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Progress reports batch completion by task count, not bytes. Within one
// run, Completed never decreases. After a fully successful batch it resets
// to the zero value once the settle delay passes.
type Progress struct {
	Completed    int
	Total        int
	Percent      float64
	CurrentError string
}

// Uploader submits one file's bytes under a destination path. Satisfied by
// the api client.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, name string, destPath string) error
}

// ErrBatchRunning is returned when Run is called while a run is in flight.
var ErrBatchRunning = errors.New("upload batch already running")

// Pipeline holds the pending batch and drains it sequentially. Task i+1 is
// never issued before task i's request has resolved; progress reporting and
// fail-fast both depend on that ordering.
type Pipeline struct {
	uploader Uploader
	logger   *logging.Logger

	mu       sync.Mutex
	tasks    []Task
	progress Progress
	running  bool
	resetGen int

	settle     time.Duration
	onProgress func(Progress)
}

// NewPipeline creates a pipeline uploading through the given uploader.
func NewPipeline(uploader Uploader, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Pipeline{
		uploader: uploader,
		logger:   logger,
		settle:   DefaultSettleDelay,
	}
}

// SetProgressFunc installs a callback invoked on every progress update.
func (p *Pipeline) SetProgressFunc(fn func(Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = fn
}

// SetSettleDelay overrides the post-completion reset delay.
func (p *Pipeline) SetSettleDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settle = d
}

// AddFiles appends tasks to the pending batch. No validation happens here;
// the selection surface's allow-list is advisory and the server is the
// authority on acceptable content.
func (p *Pipeline) AddFiles(tasks ...Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, tasks...)
}

// RemoveFile removes the pending task at index. Out-of-range indexes are a
// no-op.
func (p *Pipeline) RemoveFile(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.tasks) {
		return
	}
	p.tasks = append(p.tasks[:index], p.tasks[index+1:]...)
}

// Pending returns a copy of the pending batch, in order.
func (p *Pipeline) Pending() []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Task(nil), p.tasks...)
}

// Progress returns the current progress snapshot.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Run drains the pending batch against destPath, strictly in order. On the
// first failure it stops: the completed prefix is removed from the batch,
// the failing task and the untouched suffix stay pending, and the error is
// returned so a later Run resumes from the failure point. On full success
// the batch is cleared and the progress resets after the settle delay; the
// caller is expected to refresh its directory listing.
func (p *Pipeline) Run(ctx context.Context, destPath string) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrBatchRunning
	}
	p.running = true
	p.resetGen++
	batch := append([]Task(nil), p.tasks...)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	total := len(batch)
	if total == 0 {
		return nil
	}

	for i, task := range batch {
		p.setProgress(Progress{
			Completed: i,
			Total:     total,
			Percent:   float64(i) / float64(total) * 100,
		})

		if err := p.uploadOne(ctx, task, destPath); err != nil {
			p.logger.Debug().Str("file", task.DisplayName).Err(err).Msg("upload failed, halting batch")
			p.mu.Lock()
			// Drop the completed prefix; the failing task and everything
			// after it stay pending for a retry.
			if i > len(p.tasks) {
				i = len(p.tasks)
			}
			p.tasks = append([]Task(nil), p.tasks[i:]...)
			p.progress.CurrentError = err.Error()
			notify := p.onProgress
			progress := p.progress
			p.mu.Unlock()
			if notify != nil {
				notify(progress)
			}
			return err
		}
	}

	p.setProgress(Progress{Completed: total, Total: total, Percent: 100})

	p.mu.Lock()
	if total > len(p.tasks) {
		total = len(p.tasks)
	}
	p.tasks = append([]Task(nil), p.tasks[total:]...)
	gen := p.resetGen
	settle := p.settle
	p.mu.Unlock()

	// Let the caller display the terminal 100% before the counters reset.
	// A newer run invalidates the pending reset.
	time.AfterFunc(settle, func() {
		p.mu.Lock()
		if p.resetGen == gen && !p.running {
			p.progress = Progress{}
		}
		notify := p.onProgress
		progress := p.progress
		p.mu.Unlock()
		if notify != nil {
			notify(progress)
		}
	})

	return nil
}

func (p *Pipeline) uploadOne(ctx context.Context, task Task, destPath string) error {
	rc, err := task.Open()
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", task.DisplayName, err)
	}
	defer rc.Close()
	return p.uploader.Upload(ctx, rc, task.DisplayName, destPath)
}

func (p *Pipeline) setProgress(progress Progress) {
	p.mu.Lock()
	p.progress = progress
	notify := p.onProgress
	p.mu.Unlock()
	if notify != nil {
		notify(progress)
	}
}
