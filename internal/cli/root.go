// Package cli provides the command-line interface for filehaven.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/filehaven/filehaven/internal/api"
	"github.com/filehaven/filehaven/internal/config"
	"github.com/filehaven/filehaven/internal/logging"
	"github.com/filehaven/filehaven/internal/session"
	"github.com/filehaven/filehaven/internal/version"
)

var (
	// Global flags
	cfgFile   string
	serverURL string
	token     string
	tokenFile string
	verbose   bool
	debug     bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filehaven",
		Short: "Filehaven - client for the filehaven file server",
		Long: `Filehaven ` + version.Version + `
Command-line client for a filehaven file server: browse, upload,
download, and manage files over the remote API.

Authenticate once with 'filehaven login'; the session token is stored
under your user config directory and verified on each run.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose || debug {
				logging.SetGlobalLevel(-1) // zerolog.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to the token file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.String()

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newConfigCmd())

	// Shortcuts so common operations don't need the 'files' prefix
	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration file and overlays flags and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	cfg.MergeWithFlags(serverURL, "")

	// Priority: --token flag > FILEHAVEN_TOKEN env > token file
	resolved, source := config.ResolveToken(token, tokenFile)
	cfg.Token = resolved
	if source != "" {
		GetLogger().Debugf("token resolved from %s", source)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w (run 'filehaven config init')", err)
	}
	return cfg, nil
}

// tokenStore returns the credential store honoring --token-file.
func tokenStore() *config.TokenStore {
	if tokenFile != "" {
		return &config.TokenStore{Path: tokenFile}
	}
	return config.NewTokenStore()
}

// newSession builds the API client and session manager, and restores the
// persisted session. Called once per command invocation.
func newSession(ctx context.Context) (*api.Client, *session.Manager, session.State, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, session.State{}, err
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, nil, session.State{}, fmt.Errorf("failed to create API client: %w", err)
	}

	manager := session.NewManager(client, tokenStore(), GetLogger())
	state := manager.Startup(ctx)
	return client, manager, state, nil
}

// requireAuth is newSession plus an authentication check.
func requireAuth(ctx context.Context) (*api.Client, *session.Manager, session.State, error) {
	client, manager, state, err := newSession(ctx)
	if err != nil {
		return nil, nil, state, err
	}
	if !state.Authenticated() {
		return nil, nil, state, fmt.Errorf("not logged in (run 'filehaven login')")
	}
	return client, manager, state, nil
}
