package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/filehaven/filehaven/internal/api"
	"github.com/filehaven/filehaven/internal/progress"
	"github.com/filehaven/filehaven/internal/upload"
)

// executeUpload drives the upload pipeline for a set of local paths,
// rendering a progress bar per file. Uploads are strictly sequential: the
// pipeline never issues file i+1 before file i has resolved.
func executeUpload(ctx context.Context, client *api.Client, paths []string, destPath string) error {
	logger := GetLogger()

	tasks := make([]upload.Task, 0, len(paths))
	for _, path := range paths {
		task, err := upload.NewFileTask(path)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
	}

	if unrecognized := upload.Advisory(tasks); len(unrecognized) > 0 {
		logger.Warnf("unrecognized file type (uploading anyway): %s", strings.Join(unrecognized, ", "))
	}

	ui := progress.NewUploadUI(len(tasks))

	// Route log lines above the active bars.
	logger.SetOutput(ui.Writer())
	defer logger.SetOutput(os.Stdout)

	// Wrap each task so its byte stream feeds a bar. The bar is created
	// lazily, when the task's turn comes.
	bars := make([]*progress.FileBar, len(tasks))
	for i := range tasks {
		i := i
		task := tasks[i]
		open := task.Open
		tasks[i].Open = func() (io.ReadCloser, error) {
			rc, err := open()
			if err != nil {
				return nil, err
			}
			bars[i] = ui.AddFileBar(i+1, task.DisplayName, destPath, task.Size)
			return bars[i].ProxyReader(rc), nil
		}
	}

	pipeline := upload.NewPipeline(client, logger)
	pipeline.AddFiles(tasks...)

	// Mark bars finished as the batch's completed count advances.
	completedSeen := 0
	pipeline.SetProgressFunc(func(p upload.Progress) {
		for completedSeen < p.Completed && completedSeen < len(bars) {
			if bar := bars[completedSeen]; bar != nil {
				bar.Complete(nil)
			}
			completedSeen++
		}
	})

	runErr := pipeline.Run(ctx, destPath)
	if runErr != nil {
		// The failing task is the first one still pending.
		if completedSeen < len(bars) && bars[completedSeen] != nil {
			bars[completedSeen].Complete(runErr)
		}
	}
	ui.Wait()

	if runErr != nil {
		remaining := len(pipeline.Pending())
		return fmt.Errorf("upload halted with %d file(s) pending: %w", remaining, runErr)
	}

	fmt.Printf("Uploaded %d file(s) to %s\n", len(tasks), destPath)

	// The listing is stale the moment an upload succeeds; refresh it.
	listing, err := client.List(ctx, destPath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to refresh listing")
		return nil
	}
	printListing(listing, false)
	return nil
}
