// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/storage"
)

func seedStore(t *testing.T, sessions ...*model.ChatSession) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	if err := store.Save(sessions); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// =============================================================================
// SESSION RESOLUTION
// =============================================================================

func TestFindSession(t *testing.T) {
	a := model.NewSession()
	a.ID = "aaaa-1111"
	b := model.NewSession()
	b.ID = "aabb-2222"
	sessions := []*model.ChatSession{a, b}

	if got, err := findSession(sessions, "aaaa-1111"); err != nil || got != a {
		t.Errorf("exact id lookup failed: %v", err)
	}
	if got, err := findSession(sessions, "aab"); err != nil || got != b {
		t.Errorf("unambiguous prefix lookup failed: %v", err)
	}
	if _, err := findSession(sessions, "aa"); err == nil {
		t.Error("ambiguous prefix should error")
	}
	if _, err := findSession(sessions, "zz"); err == nil {
		t.Error("unknown id should error")
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestSessionsCommand_ListsStoredSessions(t *testing.T) {
	sess := model.NewSession()
	sess.Title = "Slice sorting"
	sess.Messages = append(sess.Messages, model.NewUserMessage("how?", nil))
	t.Setenv("GEMCHAT_STORE", seedStore(t, sess))

	out, err := runCommand(t, "sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "Slice sorting") {
		t.Errorf("output should list the session title, got:\n%s", out)
	}
}

func TestSessionsCommand_EmptyStore(t *testing.T) {
	t.Setenv("GEMCHAT_STORE", seedStore(t))

	out, err := runCommand(t, "sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "No sessions yet") {
		t.Errorf("empty store should say so, got:\n%s", out)
	}
}

func TestExportCommand_WritesFile(t *testing.T) {
	sess := model.NewSession()
	sess.Title = "Export me"
	sess.Messages = append(sess.Messages, model.NewUserMessage("hello", nil))
	t.Setenv("GEMCHAT_STORE", seedStore(t, sess))

	outDir := t.TempDir()
	out, err := runCommand(t, "export", sess.ID[:8], "--format", "json", "--out", outDir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, outDir) {
		t.Errorf("output should name the written file, got:\n%s", out)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one exported file, got %d (err %v)", len(entries), err)
	}
	if !strings.HasSuffix(entries[0].Name(), ".json") {
		t.Errorf("exported file = %q, want .json suffix", entries[0].Name())
	}
}

func TestExportCommand_RejectsUnknownFormat(t *testing.T) {
	t.Setenv("GEMCHAT_STORE", seedStore(t))

	if _, err := runCommand(t, "export", "whatever", "--format", "pdf"); err == nil {
		t.Error("unknown format should error")
	}
}

func TestDeleteCommand_RemovesSession(t *testing.T) {
	keep := model.NewSession()
	keep.Title = "Keep"
	drop := model.NewSession()
	drop.Title = "Drop"
	path := seedStore(t, keep, drop)
	t.Setenv("GEMCHAT_STORE", path)

	if _, err := runCommand(t, "delete", drop.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	store, err := storage.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()
	sessions, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != keep.ID {
		t.Errorf("store should hold only the kept session, got %d", len(sessions))
	}
}
