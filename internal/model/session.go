// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title a session carries until the summarizer renames it.
const DefaultTitle = "New Chat"

// =============================================================================
// SESSION TYPE
// =============================================================================

// ChatSession holds one conversation thread: its message history in
// chronological order plus display metadata. The message ordering is canonical;
// the transcript sent to the completion backend is always a prefix of it.
type ChatSession struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  []*ChatMessage `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession creates an empty session with the default title.
func NewSession() *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  make([]*ChatMessage, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// SESSION METHODS
// =============================================================================

// MessageByID returns the message with the given id, or nil.
func (s *ChatSession) MessageByID(id string) *ChatMessage {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageIndex returns the index of the message with the given id, or -1.
func (s *ChatSession) MessageIndex(id string) int {
	for i, msg := range s.Messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// UserMessageCount returns the number of user-authored messages.
func (s *ChatSession) UserMessageCount() int {
	n := 0
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			n++
		}
	}
	return n
}

// IsEmpty returns true if the session has no messages.
func (s *ChatSession) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Preview returns a short preview from the first user message, or "".
func (s *ChatSession) Preview(maxLen int) string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(maxLen)
		}
	}
	return ""
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	clone := &ChatSession{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]*ChatMessage, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}
