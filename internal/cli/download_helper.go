package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/filehaven/filehaven/internal/api"
)

// executeDownload streams one remote file into outputDir. The local file is
// created only after the server has accepted the request, so a failed
// download leaves nothing behind.
func executeDownload(ctx context.Context, client *api.Client, remotePath, outputDir string) error {
	rc, info, err := client.Download(ctx, remotePath)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	localPath := filepath.Join(outputDir, info.Filename)
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	bar := progressbar.DefaultBytes(info.Size, "downloading "+info.Filename)

	_, copyErr := io.Copy(io.MultiWriter(f, bar), rc)
	closeErr := f.Close()

	if copyErr != nil || closeErr != nil {
		// Don't leave a truncated file behind.
		os.Remove(localPath)
		if copyErr != nil {
			return fmt.Errorf("download of %s failed: %w", remotePath, copyErr)
		}
		return fmt.Errorf("failed to write %s: %w", localPath, closeErr)
	}

	fmt.Printf("Downloaded %s → %s\n", remotePath, localPath)
	return nil
}
