/*
Package main is the entry point for the schoolhub command-line client.

It loads configuration, initializes the global logging system, wires the
session store, API client, session controller and page router, and runs the
requested sub-command. Interrupt signals (SIGINT, SIGTERM) cancel in-flight
requests through the command context.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"schoolhub/internal/configs"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Debug().
		Str("environment", cfg.Environment).
		Str("api_base_url", cfg.APIBaseURL).
		Int("timeout_ms", cfg.TimeoutMS).
		Str("store_backend", cfg.StoreBackend).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cleanup := newRootCmd(cfg)
	err = root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. cleanup releases whatever the executed
// command opened and must run after Execute returns.
func newRootCmd(cfg *configs.AppConfig) (root *cobra.Command, cleanup func()) {
	var (
		verbose bool
		a       *app
	)

	root = &cobra.Command{
		Use:           "schoolhub",
		Short:         "Command-line client for the school management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logx.SetLevel(zerolog.DebugLevel)
			}
			built, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and session transitions")

	appFn := func() *app { return a }
	root.AddCommand(
		newLoginCmd(appFn),
		newRegisterCmd(appFn),
		newLogoutCmd(appFn),
		newWhoamiCmd(appFn),
		newOpenCmd(appFn),
		newClassroomsCmd(appFn, cfg.PageSize),
		newStudentsCmd(appFn, cfg.PageSize),
		newGradesCmd(appFn, cfg.PageSize),
		newProfileCmd(appFn),
	)

	cleanup = func() {
		if a != nil {
			a.Close()
		}
	}
	return root, cleanup
}

// printError writes the user-facing message of err, and any field errors, to stderr.
func printError(err error) {
	customErr := errs.As(err)
	if customErr == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", customErr.Message)

	fields := make([]string, 0, len(customErr.Fields))
	for name := range customErr.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		for _, msg := range customErr.Fields[name] {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", name, msg)
		}
	}
}
