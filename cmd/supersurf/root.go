// Package main is the broker CLI entrypoint: a persistent --config flag
// plus one subcommand per run mode (the two stdio frontends, and a
// version command).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/h8ngry/supersurf/internal/config"
	"github.com/h8ngry/supersurf/internal/connection"
	"github.com/h8ngry/supersurf/internal/dispatcher"
	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/frontend"
	"github.com/h8ngry/supersurf/internal/logging"
	"github.com/h8ngry/supersurf/internal/transport"
)

const version = "1.0.0"

var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "supersurf",
		Short: "A localhost browser-automation broker speaking MCP to agents and JSON-RPC to a browser extension",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a supersurf.yaml config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newScriptCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the broker version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP-framed stdio frontend (default agent entrypoint)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBroker(cmd.Context(), modeMCP)
		},
	}
}

func newScriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Run the plain newline-delimited JSON-RPC stdio frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBroker(cmd.Context(), modeScript)
		},
	}
}

type runMode int

const (
	modeMCP runMode = iota
	modeScript
)

// runBroker loads config, builds a passive ConnectionManager wired with a
// real dispatcher.New factory, enables it immediately (spec §4.1's
// "enable" is normally agent-invoked, but both stdio frontends are
// dedicated single-purpose processes started fresh per agent session, so
// there is no reason to make the agent call enable by hand first), and
// drains the chosen stdio frontend until EOF.
func runBroker(ctx context.Context, mode runMode) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New("broker", cfg.Debug, cfg.DebugFile)

	factory := connection.DispatcherFactory(func(t *transport.Transport, reg *experiments.Registry, mgr connection.ManagerHandle) connection.Dispatcher {
		return dispatcher.New(t, reg, mgr)
	})

	manager := connection.New(logger, "127.0.0.1", cfg.Port, factory)
	manager.SetStartupExperiments(cfg.EnabledExperiments)
	if cfg.Debug != logging.DebugOff {
		manager.SetDebug(true)
	}

	if err := manager.Enable(defaultClientID); err != nil {
		return fmt.Errorf("enabling connection manager: %w", err)
	}

	switch mode {
	case modeMCP:
		return frontend.NewMCPMode(logger, manager, version).Run(ctx, os.Stdin, os.Stdout)
	default:
		return frontend.NewScriptMode(logger, manager).Run(ctx, os.Stdin, os.Stdout)
	}
}

// defaultClientID identifies this broker process to the extension peer in
// the "authenticated" notification (spec §4.2); stdio frontends have
// exactly one agent per process, so a fixed id is sufficient.
const defaultClientID = "stdio"
