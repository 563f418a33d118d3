// Package cli provides authentication commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var demo bool
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Authenticate against the server",
		Long: `Authenticate against the server and store the session token.

The token is written to the user config directory and verified again on
each subsequent run.

Examples:
  # Interactive login (prompts for username and password)
  filehaven login

  # Login as a specific user (prompts for password)
  filehaven login admin

  # Demo session (sandboxed under /demo)
  filehaven login --demo`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			_, manager, _, err := newSession(ctx)
			if err != nil {
				return err
			}

			if demo {
				result := manager.LoginDemo(ctx)
				if !result.Success {
					return fmt.Errorf("demo login failed: %s", result.Error)
				}
				state := manager.State()
				fmt.Printf("Logged in as %s (demo session, scoped to /demo)\n", state.Principal.Username)
				return nil
			}

			username := ""
			if len(args) > 0 {
				username = args[0]
			}
			if username == "" {
				username, err = promptLine("Username")
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("username must not be empty")
			}

			if password == "" {
				password, err = promptPassword("Password")
				if err != nil {
					return err
				}
			}

			result := manager.Login(ctx, username, password)
			if !result.Success {
				return fmt.Errorf("login failed: %s", result.Error)
			}

			state := manager.State()
			fmt.Printf("Logged in as %s\n", state.Principal.Username)
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Log in with the demo identity")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted; avoid on shared shells)")

	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			_, manager, _, err := newSession(ctx)
			if err != nil {
				return err
			}

			manager.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

// newWhoamiCmd creates the 'whoami' command.
func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			_, _, state, err := requireAuth(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Username:    %s\n", state.Principal.Username)
			if len(state.Principal.Permissions) > 0 {
				fmt.Printf("Permissions: %s\n", strings.Join(state.Principal.Permissions, ", "))
			}
			return nil
		},
	}
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, state, err := newSession(ctx)
			if err != nil {
				return err
			}

			health, err := client.Health(ctx)
			if err != nil {
				fmt.Printf("Server:  unreachable (%s)\n", err)
			} else {
				fmt.Printf("Server:  %s", health.Status)
				if health.Version != "" {
					fmt.Printf(" (version %s)", health.Version)
				}
				fmt.Println()
			}

			fmt.Printf("Session: %s", state.Status)
			if state.Authenticated() {
				fmt.Printf(" as %s", state.Principal.Username)
			}
			fmt.Println()
			return nil
		},
	}
}
