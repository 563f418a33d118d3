package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filehaven/filehaven/internal/logging"
)

// fakeUploader records uploaded names and fails on the names in failOn.
type fakeUploader struct {
	mu        sync.Mutex
	uploaded  []string
	failOn    map[string]error
	block     chan struct{} // when set, Upload waits until closed
	started   chan struct{} // when set, closed on the first Upload call
	startOnce sync.Once
}

func (f *fakeUploader) Upload(ctx context.Context, r io.Reader, name string, destPath string) error {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[name]; ok {
		return err
	}
	f.uploaded = append(f.uploaded, name)
	return nil
}

func (f *fakeUploader) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

func stringTask(name, content string) Task {
	return Task{
		DisplayName: name,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func newTestPipeline(u Uploader) *Pipeline {
	p := NewPipeline(u, logging.NewLogger(io.Discard))
	p.SetSettleDelay(10 * time.Millisecond)
	return p
}

func percentClose(got, want float64) bool {
	return math.Abs(got-want) < 0.01
}

// TestRunEmptyBatch verifies an empty batch completes without error and
// reports nothing.
func TestRunEmptyBatch(t *testing.T) {
	u := &fakeUploader{}
	p := newTestPipeline(u)

	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("Run() on empty batch returned %v, want nil", err)
	}
	if got := len(u.names()); got != 0 {
		t.Errorf("uploader received %d uploads, want 0", got)
	}
}

// TestRunSequentialOrder verifies tasks drain strictly in insertion order
// and the batch is cleared on full success.
func TestRunSequentialOrder(t *testing.T) {
	u := &fakeUploader{}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("a.txt", "aaa"), stringTask("b.txt", "bb"), stringTask("c.txt", "c"))

	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("Run() returned %v, want nil", err)
	}

	want := []string{"a.txt", "b.txt", "c.txt"}
	got := u.names()
	if len(got) != len(want) {
		t.Fatalf("uploaded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("upload[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if pending := p.Pending(); len(pending) != 0 {
		t.Errorf("Pending() after success has %d tasks, want 0", len(pending))
	}
}

// TestRunProgressUpdates verifies the per-task fractional progress sequence:
// for three tasks, 0%, 33%, 67% before each upload, then 100% at the end.
func TestRunProgressUpdates(t *testing.T) {
	u := &fakeUploader{}
	p := newTestPipeline(u)
	p.SetSettleDelay(time.Hour) // keep the terminal progress visible

	var mu sync.Mutex
	var updates []Progress
	p.SetProgressFunc(func(pr Progress) {
		mu.Lock()
		updates = append(updates, pr)
		mu.Unlock()
	})

	p.AddFiles(stringTask("a", "x"), stringTask("b", "x"), stringTask("c", "x"))
	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("Run() returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	wantPercents := []float64{0, 100.0 / 3, 200.0 / 3, 100}
	if len(updates) != len(wantPercents) {
		t.Fatalf("got %d progress updates, want %d: %+v", len(updates), len(wantPercents), updates)
	}
	for i, want := range wantPercents {
		if !percentClose(updates[i].Percent, want) {
			t.Errorf("update[%d].Percent = %.2f, want %.2f", i, updates[i].Percent, want)
		}
		if updates[i].Completed != i {
			t.Errorf("update[%d].Completed = %d, want %d", i, updates[i].Completed, i)
		}
		if updates[i].Total != 3 {
			t.Errorf("update[%d].Total = %d, want 3", i, updates[i].Total)
		}
	}
}

// TestRunFailFast verifies the first failure halts the batch: the completed
// prefix is removed, the failing task and the untouched suffix stay pending,
// and the later task is never attempted.
func TestRunFailFast(t *testing.T) {
	boom := errors.New("disk full")
	u := &fakeUploader{failOn: map[string]error{"b.txt": boom}}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("a.txt", "x"), stringTask("b.txt", "x"), stringTask("c.txt", "x"))

	err := p.Run(context.Background(), "/dest")
	if !errors.Is(err, boom) {
		t.Fatalf("Run() returned %v, want %v", err, boom)
	}

	if got := u.names(); len(got) != 1 || got[0] != "a.txt" {
		t.Errorf("uploaded %v, want [a.txt] only", got)
	}

	pending := p.Pending()
	if len(pending) != 2 {
		t.Fatalf("Pending() has %d tasks, want 2 (the failing task and the suffix)", len(pending))
	}
	if pending[0].DisplayName != "b.txt" || pending[1].DisplayName != "c.txt" {
		t.Errorf("Pending() = [%s %s], want [b.txt c.txt]", pending[0].DisplayName, pending[1].DisplayName)
	}

	progress := p.Progress()
	if progress.CurrentError == "" {
		t.Error("Progress().CurrentError is empty after a failure")
	}
	if !percentClose(progress.Percent, 100.0/3) {
		t.Errorf("Progress().Percent = %.2f, want %.2f (one of three completed)", progress.Percent, 100.0/3)
	}
}

// TestRunResumesAfterFailure verifies a later Run picks up from the failure
// point once the cause is fixed.
func TestRunResumesAfterFailure(t *testing.T) {
	boom := errors.New("transient")
	u := &fakeUploader{failOn: map[string]error{"b.txt": boom}}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("a.txt", "x"), stringTask("b.txt", "x"), stringTask("c.txt", "x"))

	if err := p.Run(context.Background(), "/dest"); err == nil {
		t.Fatal("first Run() succeeded, want failure")
	}

	u.mu.Lock()
	u.failOn = nil
	u.mu.Unlock()

	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("second Run() returned %v, want nil", err)
	}

	want := []string{"a.txt", "b.txt", "c.txt"}
	got := u.names()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("uploaded %v, want %v", got, want)
	}
	if pending := p.Pending(); len(pending) != 0 {
		t.Errorf("Pending() has %d tasks after resume, want 0", len(pending))
	}
}

// TestRunWhileRunning verifies a second Run during an active batch is
// rejected with ErrBatchRunning instead of interleaving uploads.
func TestRunWhileRunning(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	u := &fakeUploader{block: block, started: started}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("a.txt", "x"))

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), "/dest")
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		close(block)
		t.Fatal("first Run() never started uploading")
	}

	if err := p.Run(context.Background(), "/dest"); !errors.Is(err, ErrBatchRunning) {
		close(block)
		t.Fatalf("concurrent Run() returned %v, want ErrBatchRunning", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first Run() returned %v, want nil", err)
	}
}

// TestProgressResetsAfterSettle verifies the terminal 100% progress resets
// to the zero value after the settle delay.
func TestProgressResetsAfterSettle(t *testing.T) {
	u := &fakeUploader{}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("a.txt", "x"))

	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("Run() returned %v", err)
	}
	if got := p.Progress(); got.Percent != 100 {
		t.Errorf("Progress().Percent immediately after Run = %.0f, want 100", got.Percent)
	}

	deadline := time.After(2 * time.Second)
	for {
		if got := p.Progress(); got == (Progress{}) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("progress never reset after settle delay: %+v", p.Progress())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// TestRemoveFile verifies index-based removal and that out-of-range indexes
// are a no-op.
func TestRemoveFile(t *testing.T) {
	p := newTestPipeline(&fakeUploader{})
	p.AddFiles(stringTask("a", "x"), stringTask("b", "x"), stringTask("c", "x"))

	p.RemoveFile(1)
	pending := p.Pending()
	if len(pending) != 2 || pending[0].DisplayName != "a" || pending[1].DisplayName != "c" {
		t.Errorf("Pending() after RemoveFile(1) = %v", taskNames(pending))
	}

	p.RemoveFile(-1)
	p.RemoveFile(99)
	if got := len(p.Pending()); got != 2 {
		t.Errorf("Pending() has %d tasks after out-of-range removals, want 2", got)
	}
}

// TestAddFilesAllowsDuplicateNames verifies duplicate display names are
// independent tasks, not merged.
func TestAddFilesAllowsDuplicateNames(t *testing.T) {
	u := &fakeUploader{}
	p := newTestPipeline(u)
	p.AddFiles(stringTask("same.txt", "1"), stringTask("same.txt", "2"))

	if err := p.Run(context.Background(), "/dest"); err != nil {
		t.Fatalf("Run() returned %v", err)
	}
	if got := len(u.names()); got != 2 {
		t.Errorf("uploaded %d files, want 2", got)
	}
}

// TestNewFileTaskRejectsDirectory verifies directories cannot become upload
// tasks.
func TestNewFileTaskRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileTask(dir); err == nil {
		t.Fatal("NewFileTask() on a directory succeeded, want error")
	}
}

func taskNames(tasks []Task) []string {
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.DisplayName
	}
	return names
}
