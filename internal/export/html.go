// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a standalone HTML page with embedded CSS
// and syntax-highlighted code blocks.
type HTMLExporter struct{}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// Export converts a session to HTML.
func (e *HTMLExporter) Export(sess *model.ChatSession) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(sess.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"gemchat\">\n")
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString(fmt.Sprintf("        <h1>%s</h1>\n", html.EscapeString(sess.Title)))
	sb.WriteString(fmt.Sprintf("        <p class=\"meta\">Created %s · %d messages</p>\n",
		formatTimestamp(sess.CreatedAt), len(sess.Messages)))

	for _, msg := range sess.Messages {
		e.renderMessage(&sb, msg)
	}

	sb.WriteString("    </div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg *model.ChatMessage) {
	sb.WriteString(fmt.Sprintf("        <div class=\"message %s\">\n", msg.Role))
	sb.WriteString(fmt.Sprintf("            <div class=\"role\">%s <span class=\"time\">%s</span></div>\n",
		html.EscapeString(msg.Role.DisplayName()), formatTimestamp(msg.Timestamp)))

	sb.WriteString("            <div class=\"content\">")
	sb.WriteString(renderContent(msg.Content))
	sb.WriteString("</div>\n")

	for _, att := range msg.Attachments {
		sb.WriteString(fmt.Sprintf("            <div class=\"attachment\">Attachment: %s</div>\n",
			html.EscapeString(att.Name)))
	}

	if msg.Grounding != nil && len(msg.Grounding.Chunks) > 0 {
		sb.WriteString("            <div class=\"sources\">Sources: ")
		for i, chunk := range msg.Grounding.Chunks {
			if i > 0 {
				sb.WriteString(" · ")
			}
			title := chunk.Title
			if title == "" {
				title = chunk.URI
			}
			sb.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a>",
				html.EscapeString(chunk.URI), html.EscapeString(title)))
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString("        </div>\n")
}

// =============================================================================
// CONTENT RENDERING
// =============================================================================

// renderContent converts message text to HTML, highlighting fenced code
// blocks and escaping everything else.
func renderContent(content string) string {
	var sb strings.Builder
	var codeLines []string
	var language string
	inCode := false

	flushCode := func() {
		sb.WriteString(highlightBlock(strings.Join(codeLines, "\n"), language))
		codeLines = nil
		language = ""
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			if inCode {
				flushCode()
				inCode = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCode = true
			}
			continue
		}
		if inCode {
			codeLines = append(codeLines, line)
		} else {
			sb.WriteString(html.EscapeString(line))
			sb.WriteString("<br>\n")
		}
	}
	if inCode && len(codeLines) > 0 {
		flushCode()
	}

	return sb.String()
}

// highlightBlock renders one code block with chroma. Highlighting failures
// degrade to an escaped <pre> block.
func highlightBlock(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get("monokai")
	formatter := chromahtml.New(chromahtml.WithClasses(false))

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre>" + html.EscapeString(code) + "</pre>\n"
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "<pre>" + html.EscapeString(code) + "</pre>\n"
	}
	return buf.String()
}

const pageCSS = `    <style>
        body { font-family: -apple-system, "Segoe UI", sans-serif; background: #1a1b26; color: #c0caf5; margin: 0; }
        .container { max-width: 800px; margin: 0 auto; padding: 2rem 1rem; }
        h1 { border-bottom: 1px solid #3b4261; padding-bottom: 0.5rem; }
        .meta { color: #565f89; }
        .message { margin: 1.5rem 0; padding: 1rem; border-radius: 8px; }
        .message.user { background: #24283b; }
        .message.model { background: #1f2335; }
        .role { font-weight: 600; margin-bottom: 0.5rem; }
        .time { color: #565f89; font-weight: 400; font-size: 0.85em; }
        .attachment, .sources { color: #565f89; font-size: 0.85em; margin-top: 0.5rem; }
        .sources a { color: #7aa2f7; }
        pre { overflow-x: auto; border-radius: 6px; padding: 0.75rem; }
    </style>
`
