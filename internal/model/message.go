// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Gemini"
	default:
		return string(r)
	}
}

// =============================================================================
// GROUNDING METADATA
// =============================================================================

// GroundingChunk is one web source backing a grounded answer.
type GroundingChunk struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// GroundingMetadata holds the citation data attached to a grounded response.
// During streaming the backend may deliver it several times; each delivery
// replaces the previous one wholesale (last write wins, no merging).
type GroundingMetadata struct {
	Chunks           []GroundingChunk `json:"chunks,omitempty"`
	WebSearchQueries []string         `json:"web_search_queries,omitempty"`
}

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment is a file the user attached in the composer. Attachments are
// surfaced to the user as a textual annotation on the message; they are not
// forwarded to the completion backend.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ChatMessage represents a single message in a session.
type ChatMessage struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. Mutable only through an explicit edit (user messages) or
	// through the streaming rewrite of a placeholder (model messages).
	Content string `json:"content"`

	// IsReasoning marks model messages produced with extended reasoning.
	IsReasoning bool `json:"is_reasoning,omitempty"`

	// Grounding holds web-search citations, when grounding was enabled.
	Grounding *GroundingMetadata `json:"grounding,omitempty"`

	// Attachments annotate user messages; display only.
	Attachments []Attachment `json:"attachments,omitempty"`

	// Streaming state (not persisted). True only for a model message whose
	// stream has not yet produced content; cleared exactly once, on the first
	// non-empty delta or on stream end/error.
	IsThinking bool `json:"-"`
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(content string, attachments []Attachment) *ChatMessage {
	return &ChatMessage{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Content:     content,
		Timestamp:   time.Now(),
		Attachments: attachments,
	}
}

// NewPendingModelMessage creates the placeholder model message appended when a
// response starts streaming. Content is empty and IsThinking is raised.
func NewPendingModelMessage(isReasoning bool) *ChatMessage {
	return &ChatMessage{
		ID:          uuid.NewString(),
		Role:        RoleModel,
		Timestamp:   time.Now(),
		IsReasoning: isReasoning,
		IsThinking:  true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Edited returns a copy of the message with its content replaced and its
// timestamp refreshed. Identity, role, and attachments are preserved.
func (m *ChatMessage) Edited(content string) *ChatMessage {
	edited := *m
	edited.Content = content
	edited.Timestamp = time.Now()
	return &edited
}

// Clone returns a shallow copy of the message.
func (m *ChatMessage) Clone() *ChatMessage {
	c := *m
	return &c
}

// IsEmpty returns true if the message has no content.
func (m *ChatMessage) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a single-line truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *ChatMessage) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
