// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/filehaven/filehaven/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage filehaven configuration",
		Long: `Configuration management commands for filehaven.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for filehaven.

The configuration is saved under the user config directory
(~/.config/filehaven/config on Linux).

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				configPath = config.DefaultConfigPath()
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view it.")
					return nil
				}
			}

			fmt.Println("Filehaven Configuration Setup")
			fmt.Println("=============================")
			fmt.Println()

			cfg := config.DefaultConfig()

			for cfg.ServerURL == "" {
				input, err := promptLine("Server URL (required, e.g. https://files.example.com/api/v1)")
				if err != nil {
					return err
				}
				cfg.ServerURL = strings.TrimSpace(input)
				if cfg.ServerURL == "" {
					fmt.Println("  Error: server URL is required")
				}
			}

			proxyMode, err := promptLine("Proxy mode [no-proxy/system/basic/ntlm] (default: no-proxy)")
			if err != nil {
				return err
			}
			if proxyMode != "" {
				cfg.ProxyMode = proxyMode
			}
			if mode := strings.ToLower(cfg.ProxyMode); mode == "basic" || mode == "ntlm" {
				if cfg.ProxyHost, err = promptLine("Proxy host"); err != nil {
					return err
				}
				if cfg.ProxyUser, err = promptLine("Proxy user (optional)"); err != nil {
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if err := cfg.Save(configPath); err != nil {
				return err
			}

			fmt.Printf("\nConfiguration saved to: %s\n", configPath)
			fmt.Println("Run 'filehaven login' to authenticate.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			fmt.Printf("Server URL:  %s\n", orUnset(cfg.ServerURL))
			fmt.Printf("Retry max:   %d\n", cfg.RetryMax)
			fmt.Printf("Proxy mode:  %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Printf("Proxy host:  %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
			}

			// Report where the token would come from, never the token itself.
			if _, source := config.ResolveToken(token, tokenFile); source != "" {
				fmt.Printf("Token:       present (%s)\n", source)
			} else {
				fmt.Printf("Token:       (not logged in)\n")
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Config file: %s\n", orUnset(config.DefaultConfigPath()))
			fmt.Printf("Token file:  %s\n", orUnset(config.DefaultTokenPath()))
			return nil
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
