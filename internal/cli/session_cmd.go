// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// newSessionsCmd lists the stored sessions, most recently updated first.
func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := loadSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s  %-40s  %8s  %s\n", "ID", "TITLE", "MESSAGES", "UPDATED")
			for _, sess := range sessions {
				fmt.Fprintf(out, "%-10s  %s  %8d  %s\n",
					shortID(sess.ID),
					util.PadRight(util.TruncateWidth(sess.Title, 40), 40),
					len(sess.Messages),
					sess.UpdatedAt.Format("2006-01-02 15:04"),
				)
			}
			return nil
		},
	}
}

// newDeleteCmd removes a stored session by id or id prefix.
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.Load()
			if err != nil {
				return err
			}
			target, err := findSession(sessions, args[0])
			if err != nil {
				return err
			}

			kept := sessions[:0]
			for _, sess := range sessions {
				if sess.ID != target.ID {
					kept = append(kept, sess)
				}
			}
			if err := store.Save(kept); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q (%s)\n", target.Title, shortID(target.ID))
			return nil
		},
	}
}

// loadSessions reads all sessions from the configured store.
func loadSessions() ([]*model.ChatSession, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sessions, err := store.Load()
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// findSession resolves an id or unambiguous id prefix.
func findSession(sessions []*model.ChatSession, id string) (*model.ChatSession, error) {
	var match *model.ChatSession
	for _, sess := range sessions {
		if sess.ID == id {
			return sess, nil
		}
		if strings.HasPrefix(sess.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", id)
			}
			match = sess
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session with id %q", id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
