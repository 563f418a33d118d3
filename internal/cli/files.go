// Package cli provides file operation commands.
package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/filehaven/filehaven/internal/models"
	"github.com/filehaven/filehaven/internal/nav"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File operations (list, upload, download, mkdir, delete)",
		Long:  `Commands for managing files on the server.`,
	}

	filesCmd.AddCommand(newFilesListCmd())
	filesCmd.AddCommand(newFilesUploadCmd())
	filesCmd.AddCommand(newFilesDownloadCmd())
	filesCmd.AddCommand(newFilesMkdirCmd())
	filesCmd.AddCommand(newFilesDeleteCmd())

	return filesCmd
}

// newFilesListCmd creates the 'files list' command.
func newFilesListCmd() *cobra.Command {
	var dirsFirst bool

	cmd := &cobra.Command{
		Use:     "list [path]",
		Aliases: []string{"ls"},
		Short:   "List a remote directory",
		Long: `List the contents of a remote directory.

The path defaults to the session's starting directory: the server root,
or /demo for demo sessions.

Examples:
  filehaven files list
  filehaven files list /projects/reports
  filehaven files list /projects --dirs-first`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, state, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			navState := nav.New()
			navState.ActivateFor(state.Principal.Username)
			if len(args) > 0 {
				navState.SetPath(nav.Join(navState.CurrentPath(), args[0]))
			}

			listing, err := client.List(ctx, navState.CurrentPath())
			if err != nil {
				return err
			}

			printBreadcrumbs(navState.Segments())
			printListing(listing, dirsFirst)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dirsFirst, "dirs-first", false, "Show directories before files (display only)")

	return cmd
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd() *cobra.Command {
	var destPath string

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload files to a remote directory",
		Long: `Upload one or more local files to a remote directory.

Files are uploaded strictly one at a time, in the order given. On the
first failure the remaining files are not attempted; re-running the same
command resumes from the failed file, since completed files are already
on the server.

Examples:
  # Upload to the session's starting directory
  filehaven files upload report.pdf

  # Upload several files to a specific directory
  filehaven files upload a.csv b.csv --to /projects/data`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, state, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			dest := resolveDest(destPath, state.Principal.Username)
			return executeUpload(ctx, client, args, dest)
		},
	}

	cmd.Flags().StringVar(&destPath, "to", "", "Destination directory (default: session starting directory)")

	return cmd
}

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <path> [path...]",
		Short: "Download remote files",
		Long: `Download one or more remote files to a local directory.

The local filename follows the server's suggestion (content-disposition)
when present, falling back to the last path segment.

Examples:
  filehaven files download /projects/report.pdf
  filehaven files download /data/a.csv /data/b.csv --output ./downloads`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, _, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			for _, remotePath := range args {
				if err := executeDownload(ctx, client, nav.Normalize(remotePath), outputDir); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Local output directory")

	return cmd
}

// newFilesMkdirCmd creates the 'files mkdir' command.
func newFilesMkdirCmd() *cobra.Command {
	var parentPath string

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a remote directory",
		Long: `Create a directory under a remote parent directory.

Examples:
  filehaven files mkdir reports --in /projects`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, state, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			parent := resolveDest(parentPath, state.Principal.Username)
			name := args[0]

			if err := client.CreateDirectory(ctx, name, parent); err != nil {
				return err
			}

			fmt.Printf("Created %s\n", nav.Join(parent, name))

			// Refresh so the new entry is visible immediately.
			listing, err := client.List(ctx, parent)
			if err != nil {
				GetLogger().Warn().Err(err).Msg("failed to refresh listing")
				return nil
			}
			printListing(listing, false)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentPath, "in", "", "Parent directory (default: session starting directory)")

	return cmd
}

// newFilesDeleteCmd creates the 'files delete' command.
func newFilesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <path> [path...]",
		Aliases: []string{"rm"},
		Short:   "Delete remote files or directories",
		Long: `Delete remote entries. Files and directories are handled uniformly;
what deleting a non-empty directory means is up to the server.

Examples:
  filehaven files delete /projects/old-report.pdf
  filehaven files delete /projects/stale --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, _, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			for _, rawPath := range args {
				remotePath := nav.Normalize(rawPath)
				if !yes && !promptConfirm(fmt.Sprintf("Delete %s?", remotePath)) {
					fmt.Printf("Skipped %s\n", remotePath)
					continue
				}
				if err := client.Delete(ctx, remotePath); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", remotePath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// resolveDest returns the destination directory for an operation: the
// explicit flag value when given, the identity's default path otherwise.
func resolveDest(flagValue, username string) string {
	if flagValue != "" {
		return nav.Normalize(flagValue)
	}
	navState := nav.New()
	navState.ActivateFor(username)
	return navState.CurrentPath()
}

// printBreadcrumbs renders the breadcrumb trail for a listing.
func printBreadcrumbs(segments []nav.Segment) {
	for i, segment := range segments {
		if i > 0 {
			fmt.Print(" > ")
		}
		fmt.Print(segment.Label)
	}
	fmt.Println()
}

// printListing renders a directory listing. Sorting here is display-only;
// the listing itself stays in server order.
func printListing(listing *models.DirectoryListing, dirsFirst bool) {
	items := listing.Items
	if dirsFirst {
		items = append([]models.DirectoryEntry(nil), listing.Items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].IsDir() && !items[j].IsDir()
		})
	}

	for _, item := range items {
		switch item.Type {
		case models.EntryTypeDirectory:
			fmt.Printf("  %-10s %-28s %s\n", "<dir>", item.Name, item.ModifiedAt.Format(time.RFC3339))
		case models.EntryTypeFile:
			fmt.Printf("  %-10s %-28s %s\n", formatSize(item.Size), item.Name, item.ModifiedAt.Format(time.RFC3339))
		default:
			fmt.Printf("  %-10s %-28s %s\n", "?", item.Name, item.ModifiedAt.Format(time.RFC3339))
		}
	}

	if listing.TotalItems == 0 {
		fmt.Println("  (empty directory)")
	} else {
		fmt.Printf("%d item(s)\n", listing.TotalItems)
	}
}

// formatSize renders a byte count for display.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
