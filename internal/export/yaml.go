// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports sessions as YAML.
type YAMLExporter struct{}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

// FileExtension returns ".yaml".
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// yamlSession mirrors the session shape with explicit YAML field names, since
// the model types only carry JSON tags.
type yamlSession struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	CreatedAt string        `yaml:"created_at"`
	UpdatedAt string        `yaml:"updated_at"`
	Messages  []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	ID          string   `yaml:"id"`
	Role        string   `yaml:"role"`
	Timestamp   string   `yaml:"timestamp"`
	Content     string   `yaml:"content"`
	IsReasoning bool     `yaml:"is_reasoning,omitempty"`
	Attachments []string `yaml:"attachments,omitempty"`
	Sources     []string `yaml:"sources,omitempty"`
}

// Export converts a session to YAML.
func (e *YAMLExporter) Export(sess *model.ChatSession) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	out := yamlSession{
		ID:        sess.ID,
		Title:     sess.Title,
		CreatedAt: formatTimestamp(sess.CreatedAt),
		UpdatedAt: formatTimestamp(sess.UpdatedAt),
	}
	for _, msg := range sess.Messages {
		ym := yamlMessage{
			ID:          msg.ID,
			Role:        msg.Role.String(),
			Timestamp:   formatTimestamp(msg.Timestamp),
			Content:     msg.Content,
			IsReasoning: msg.IsReasoning,
		}
		for _, att := range msg.Attachments {
			ym.Attachments = append(ym.Attachments, att.Name)
		}
		if msg.Grounding != nil {
			for _, chunk := range msg.Grounding.Chunks {
				ym.Sources = append(ym.Sources, chunk.URI)
			}
		}
		out.Messages = append(out.Messages, ym)
	}

	return yaml.Marshal(out)
}
