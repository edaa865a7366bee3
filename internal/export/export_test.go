// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemchat/internal/model"
)

func sampleSession() *model.ChatSession {
	sess := model.NewSession()
	sess.Title = "Go questions"

	user := model.NewUserMessage("how do I sort a slice?", []model.Attachment{{Name: "notes.txt"}})
	reply := &model.ChatMessage{
		ID:      "r1",
		Role:    model.RoleModel,
		Content: "Use sort.Slice:\n```go\nsort.Slice(s, func(i, j int) bool { return s[i] < s[j] })\n```",
		Grounding: &model.GroundingMetadata{
			Chunks: []model.GroundingChunk{{Title: "Go docs", URI: "https://pkg.go.dev/sort"}},
		},
	}
	sess.Messages = append(sess.Messages, user, reply)
	return sess
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"md", ".md", false},
		{"markdown", ".md", false},
		{"json", ".json", false},
		{"yaml", ".yaml", false},
		{"html", ".html", false},
		{"pdf", "", true},
	}

	for _, tc := range tests {
		exp, err := ForFormat(tc.format)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ForFormat(%q) should error", tc.format)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForFormat(%q) failed: %v", tc.format, err)
			continue
		}
		if got := exp.FileExtension(); got != tc.wantExt {
			t.Errorf("ForFormat(%q).FileExtension() = %q, want %q", tc.format, got, tc.wantExt)
		}
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter().Export(sampleSession())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	if !strings.HasPrefix(text, "# Go questions") {
		t.Error("Markdown should open with the session title")
	}
	if !strings.Contains(text, "how do I sort a slice?") {
		t.Error("User content missing")
	}
	if !strings.Contains(text, "[Go docs](https://pkg.go.dev/sort)") {
		t.Error("Grounding sources should render as links")
	}
	if !strings.Contains(text, "Attachment: notes.txt") {
		t.Error("Attachments should be annotated")
	}
}

func TestJSONExporter_RoundTrips(t *testing.T) {
	sess := sampleSession()
	out, err := NewJSONExporter().Export(sess)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded model.ChatSession
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Exported JSON does not parse: %v", err)
	}
	if decoded.ID != sess.ID || len(decoded.Messages) != 2 {
		t.Error("JSON export lost session data")
	}
}

func TestYAMLExporter_ParsesAndCarriesSources(t *testing.T) {
	out, err := NewYAMLExporter().Export(sampleSession())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded struct {
		Title    string `yaml:"title"`
		Messages []struct {
			Role    string   `yaml:"role"`
			Sources []string `yaml:"sources"`
		} `yaml:"messages"`
	}
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Exported YAML does not parse: %v", err)
	}
	if decoded.Title != "Go questions" || len(decoded.Messages) != 2 {
		t.Error("YAML export lost session data")
	}
	if len(decoded.Messages[1].Sources) != 1 {
		t.Error("Grounding sources should survive YAML export")
	}
}

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter().Export(sampleSession())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	if !strings.Contains(text, "<title>Go questions</title>") {
		t.Error("HTML should carry the session title")
	}
	if !strings.Contains(text, "https://pkg.go.dev/sort") {
		t.Error("Grounding sources should render as links")
	}
	// The code block must be highlighted, not emitted as fence markers.
	if strings.Contains(text, "```") {
		t.Error("Fenced code markers should not survive HTML export")
	}
}

func TestExporters_NilSession(t *testing.T) {
	exporters := []Exporter{
		NewMarkdownExporter(), NewJSONExporter(), NewYAMLExporter(), NewHTMLExporter(),
	}
	for _, exp := range exporters {
		if _, err := exp.Export(nil); err == nil {
			t.Errorf("%T should reject a nil session", exp)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Go questions", "Go_questions"},
		{"a/b:c", "a-b-c"},
		{"", "session"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToFile(sampleSession(), NewMarkdownExporter(), dir)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("Output path = %q, want .md suffix", path)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("Output path %q should be under %q", path, dir)
	}
}
