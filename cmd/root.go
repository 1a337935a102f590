// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for lovmig.
// It signs users in and out of the configured hosted auth project, shows who
// is signed in, manages the endpoint override and can watch auth state live.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/client"
	"lovmig/cli/internal/config"
	"lovmig/cli/internal/httperrors"
	"lovmig/cli/internal/keychain"
	"lovmig/cli/internal/logging"
	"lovmig/cli/internal/session"
)

var (
	showVersion bool
	verbose     bool

	current *app
)

// app is the wiring shared by every command: settings, the default
// endpoint and the holder of the live auth client.
type app struct {
	store    *config.Store
	cfg      config.Config
	defaults config.Defaults
	holder   *client.Holder
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "lovmig",
	Short:         "Sign in to your lovmig project from the terminal",
	Long:          `lovmig signs you in to the hosted auth service of your project, keeps the session in the OS keychain and shows who is signed in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		pterm.Error.Println(logging.PresentError("lovmig", err))
		logging.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version and auth service status")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func newApp() (*app, error) {
	store, err := config.DefaultStore()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	cfg, err := store.Load()
	if err != nil {
		pterm.Warning.Printfln("Ignoring unreadable config file: %v", err)
		cfg = config.Config{LogLevel: "info"}
	}
	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, Verbose: verbose}); err != nil {
		pterm.Warning.Printfln("File logging disabled: %v", err)
	}

	defaults := config.LoadDefaults()

	opts := []client.Option{client.WithClientOptions(auth.WithUserAgent("lovmig-cli/" + Version))}
	km, err := keychain.GetManager()
	if err != nil {
		log.Warnf("keychain unavailable, sessions will not persist: %v", err)
		pterm.Warning.Println("Secure storage is not available; you will need to log in again next time.")
	} else {
		opts = append(opts, client.WithSessionStore(km))
	}

	return &app{
		store:    store,
		cfg:      cfg,
		defaults: defaults,
		holder:   client.NewHolder(store, defaults, opts...),
	}, nil
}

// sessionOptions returns the synchronizer options derived from settings.
func (a *app) sessionOptions() []session.Option {
	return []session.Option{session.WithRedirectURL(a.cfg.RedirectURL())}
}

func (a *app) host() string {
	return httperrors.ExtractHostFromURL(a.holder.CurrentEndpoint())
}

func printVersion(ctx context.Context) error {
	a := current
	fmt.Printf("lovmig %s\n", Version)

	c := a.holder.Current()
	if c.IsPlaceholder() {
		fmt.Println("auth   not configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	info, err := c.Health(ctx)
	if err != nil {
		log.Debugf("health check failed: %v", err)
		fmt.Printf("auth   %s (unreachable)\n", c.URL())
		return nil
	}
	name := info.Name
	if name == "" {
		name = "auth"
	}
	fmt.Printf("auth   %s (%s %s)\n", c.URL(), name, info.Version)
	return nil
}
