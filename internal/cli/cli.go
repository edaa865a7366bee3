// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires the gemchat commands: the default TUI plus the headless
// session management subcommands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/storage"
)

// Version is stamped at build time.
var Version = "dev"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gemchat",
		Short:   "Streaming Gemini chat in the terminal",
		Long:    "gemchat is a terminal chat client for the Gemini API with streaming responses,\nsession management, message editing, and web-grounded answers.",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSessionsCmd(),
		newExportCmd(),
		newDeleteCmd(),
	)
	return root
}

// openStore opens the session store at the configured path.
func openStore(cfg *config.Config) (*storage.Store, error) {
	path := cfg.Storage.Path
	if path == "" {
		var err error
		path, err = storage.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
	}
	return storage.Open(path)
}
