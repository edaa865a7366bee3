// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(sess *model.ChatSession) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", sess.Title))
	sb.WriteString(fmt.Sprintf("> Created %s · %d messages\n\n",
		formatTimestamp(sess.CreatedAt), len(sess.Messages)))

	for _, msg := range sess.Messages {
		sb.WriteString(fmt.Sprintf("## %s — %s\n\n",
			msg.Role.DisplayName(), formatTimestamp(msg.Timestamp)))

		if msg.IsReasoning {
			sb.WriteString("*(extended reasoning)*\n\n")
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		for _, att := range msg.Attachments {
			sb.WriteString(fmt.Sprintf("*Attachment: %s*\n\n", att.Name))
		}

		if msg.Grounding != nil && len(msg.Grounding.Chunks) > 0 {
			sb.WriteString("**Sources:**\n\n")
			for _, chunk := range msg.Grounding.Chunks {
				title := chunk.Title
				if title == "" {
					title = chunk.URI
				}
				sb.WriteString(fmt.Sprintf("- [%s](%s)\n", title, chunk.URI))
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}
