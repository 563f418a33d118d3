// Package progress renders terminal progress for file transfers. Logs are
// expected on stdout; bars own stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// UploadUI manages per-file upload progress bars using mpb.
type UploadUI struct {
	progress   *mpb.Progress
	isTerminal bool
	totalFiles int
}

// FileBar is the progress handle for one file in the batch.
type FileBar struct {
	bar       *mpb.Bar
	ui        *UploadUI
	index     int
	name      string
	destPath  string
	size      int64
	startTime time.Time
}

// NewUploadUI creates an upload UI for a batch of totalFiles files. Outside
// a terminal the bars are suppressed and plain text lines are printed
// instead.
func NewUploadUI(totalFiles int) *UploadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates the progress bar for one file upload.
func (u *UploadUI) AddFileBar(index int, name, destPath string, size int64) *FileBar {
	fb := &FileBar{
		ui:        u,
		index:     index,
		name:      name,
		destPath:  destPath,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s (%.1f MiB) → %s",
					index, u.totalFiles, name,
					float64(size)/(1024*1024), destPath), decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Printf("Uploading [%d/%d]: %s (%.1f MiB) → %s\n",
			index, u.totalFiles, name,
			float64(size)/(1024*1024), destPath)
	}

	return fb
}

// ProxyReader wraps the upload stream so bytes read advance the bar. Outside
// a terminal the stream passes through untouched.
func (f *FileBar) ProxyReader(r io.ReadCloser) io.ReadCloser {
	if f.bar == nil {
		return r
	}
	return f.bar.ProxyReader(r)
}

// Complete marks the upload as finished and prints a one-line summary above
// the remaining bars.
func (f *FileBar) Complete(err error) {
	elapsed := time.Since(f.startTime)

	if err == nil {
		if f.bar != nil {
			f.bar.SetCurrent(f.size)
			f.bar.SetTotal(f.size, true)
		}
		msg := fmt.Sprintf("✓ %s → %s (%.1f MiB, %s)\n",
			f.name, f.destPath,
			float64(f.size)/(1024*1024),
			elapsed.Round(time.Second))
		f.write(msg)
		return
	}

	if f.bar != nil {
		f.bar.Abort(false)
	}
	f.write(fmt.Sprintf("✗ %s → %s: %v\n", f.name, f.destPath, err))
}

// write routes text through mpb's writer so it lands above active bars.
func (f *FileBar) write(msg string) {
	if f.ui.isTerminal && f.ui.progress != nil {
		f.ui.progress.Write([]byte(msg))
	} else {
		fmt.Print(msg)
	}
}

// Wait blocks until all bars have rendered their final state.
func (u *UploadUI) Wait() {
	u.progress.Wait()
}

// IsTerminal reports whether bars are being rendered.
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// Writer returns a writer that safely outputs above the progress bars.
func (u *UploadUI) Writer() io.Writer {
	if u.isTerminal {
		return writerFunc(func(p []byte) (int, error) {
			return u.progress.Write(p)
		})
	}
	return os.Stdout
}

type writerFunc func([]byte) (int, error)

func (w writerFunc) Write(p []byte) (int, error) { return w(p) }
