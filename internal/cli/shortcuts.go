// Package cli provides command shortcuts for common operations.
package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command. Shortcuts are
// aliases for the most common 'files' subcommands.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsShortcut())
	rootCmd.AddCommand(newUploadShortcut())
	rootCmd.AddCommand(newDownloadShortcut())
	rootCmd.AddCommand(newMkdirShortcut())
	rootCmd.AddCommand(newRmShortcut())
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: files list
func newLsShortcut() *cobra.Command {
	cmd := newFilesListCmd()
	cmd.Use = "ls [path]"
	cmd.Short = "List a remote directory (shortcut for 'files list')"
	cmd.Aliases = nil
	return cmd
}

// newUploadShortcut creates the 'upload' shortcut command.
// Shortcut for: files upload
func newUploadShortcut() *cobra.Command {
	cmd := newFilesUploadCmd()
	cmd.Short = "Upload files (shortcut for 'files upload')"
	return cmd
}

// newDownloadShortcut creates the 'download' shortcut command.
// Shortcut for: files download
func newDownloadShortcut() *cobra.Command {
	cmd := newFilesDownloadCmd()
	cmd.Short = "Download files (shortcut for 'files download')"
	return cmd
}

// newMkdirShortcut creates the 'mkdir' shortcut command.
// Shortcut for: files mkdir
func newMkdirShortcut() *cobra.Command {
	cmd := newFilesMkdirCmd()
	cmd.Short = "Create a remote directory (shortcut for 'files mkdir')"
	return cmd
}

// newRmShortcut creates the 'rm' shortcut command.
// Shortcut for: files delete
func newRmShortcut() *cobra.Command {
	cmd := newFilesDeleteCmd()
	cmd.Use = "rm <path> [path...]"
	cmd.Short = "Delete remote entries (shortcut for 'files delete')"
	cmd.Aliases = nil
	return cmd
}
