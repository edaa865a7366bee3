// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/export"
)

// newExportCmd writes a stored session to a file in the chosen format.
func newExportCmd() *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a chat session to a file",
		Long:  "Export a stored chat session as Markdown, JSON, YAML, or a standalone HTML page\nwith syntax-highlighted code blocks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.ForFormat(format)
			if err != nil {
				return err
			}

			sessions, err := loadSessions()
			if err != nil {
				return err
			}
			sess, err := findSession(sessions, args[0])
			if err != nil {
				return err
			}

			path, err := export.ExportToFile(sess, exporter, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", sess.Title, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, json, yaml, html")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
