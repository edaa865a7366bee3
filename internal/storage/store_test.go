// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"path/filepath"
	"testing"

	"github.com/jeranaias/gemchat/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// LOAD / SAVE TESTS
// =============================================================================

func TestStore_LoadEmpty(t *testing.T) {
	store := openTestStore(t)

	sessions, err := store.Load()
	if err != nil {
		t.Fatalf("Load on empty store should not error, got %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected 0 sessions, got %d", len(sessions))
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	sess := model.NewSession()
	sess.Title = "Weather talk"
	sess.Messages = append(sess.Messages,
		model.NewUserMessage("will it rain?", nil),
	)

	if err := store.Save([]*model.ChatSession{sess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(loaded))
	}
	if loaded[0].ID != sess.ID {
		t.Errorf("ID = %q, want %q", loaded[0].ID, sess.ID)
	}
	if loaded[0].Title != "Weather talk" {
		t.Errorf("Title = %q, want %q", loaded[0].Title, "Weather talk")
	}
	if len(loaded[0].Messages) != 1 || loaded[0].Messages[0].Content != "will it rain?" {
		t.Error("Messages did not round-trip")
	}
}

func TestStore_SaveOverwritesWholesale(t *testing.T) {
	store := openTestStore(t)

	a := model.NewSession()
	b := model.NewSession()
	if err := store.Save([]*model.ChatSession{a, b}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save([]*model.ChatSession{b}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != b.ID {
		t.Error("Save must replace the previous blob, not merge with it")
	}
}

func TestStore_CorruptBlobDegradesToEmpty(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.db.Exec(
		`INSERT INTO state (key, value) VALUES (?, ?)`, sessionsKey, []byte("{not json"),
	); err != nil {
		t.Fatalf("Failed to plant corrupt blob: %v", err)
	}

	sessions, err := store.Load()
	if err == nil {
		t.Fatal("Expected a DecodeError for corrupt blob")
	}
	if !IsDecodeError(err) {
		t.Errorf("Expected DecodeError, got %T: %v", err, err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Error("Corrupt blob must still yield an empty, usable list")
	}
}

func TestStore_TransientFieldsNotPersisted(t *testing.T) {
	store := openTestStore(t)

	sess := model.NewSession()
	placeholder := model.NewPendingModelMessage(false)
	sess.Messages = append(sess.Messages, placeholder)

	if err := store.Save([]*model.ChatSession{sess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0].Messages[0].IsThinking {
		t.Error("IsThinking is transient and must not survive persistence")
	}
}
