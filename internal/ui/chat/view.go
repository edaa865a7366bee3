// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

const sessionPanelWidth = 32

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.showSessions {
		panel := m.renderSessionList()
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panel, m.viewport.View()))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.editingID != "" {
		b.WriteString(m.theme.EditBanner.Render("editing message, Esc to abandon"))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Composer.Width(m.width - 2).Render(m.composer.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	sess := m.reg.Current()
	title := model.DefaultTitle
	if sess != nil {
		title = sess.Title
	}

	tier := m.theme.TierFlash.Render(string(gemini.TierFlash))
	if m.eng.Tier() == gemini.TierPro {
		tier = m.theme.TierPro.Render(string(gemini.TierPro))
	}

	opts := m.eng.Options()
	search, thinking := m.theme.ToggleOff, m.theme.ToggleOff
	if opts.EnableSearch {
		search = m.theme.ToggleOn
	}
	if opts.EnableThinking && m.eng.Tier().SupportsThinking() {
		thinking = m.theme.ToggleOn
	}
	toggles := search.Render("search") + " " + thinking.Render("thinking")

	left := m.theme.HeaderTitle.Render("gemchat") + "  " +
		util.TruncateWidth(title, m.width/2)
	right := tier + "  " + toggles

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the current session's messages top to bottom.
func (m Model) renderTranscript() string {
	sess := m.reg.Current()
	if sess == nil || len(sess.Messages) == 0 {
		return m.theme.ThinkingText.Render("\n  Start the conversation below.")
	}

	parts := make([]string, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderMessage(msg *model.ChatMessage) string {
	var b strings.Builder

	label := m.theme.UserLabel
	if msg.Role == model.RoleModel {
		label = m.theme.ModelLabel
	}
	header := label.Render(msg.Role.DisplayName()) + " " +
		m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	if msg.IsReasoning {
		header += " " + m.theme.ThinkingText.Render("(thinking)")
	}
	b.WriteString(header)
	b.WriteString("\n")

	b.WriteString(m.renderBody(msg))

	for _, att := range msg.Attachments {
		b.WriteString("\n")
		b.WriteString(m.theme.Attachment.Render("attachment: " + att.Name))
	}

	if msg.Grounding != nil && len(msg.Grounding.Chunks) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderSources(msg.Grounding))
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) renderBody(msg *model.ChatMessage) string {
	if msg.IsThinking {
		return m.theme.ModelBubble.Render(m.spin.View() + m.theme.ThinkingText.Render(" Thinking..."))
	}

	if msg.Role == model.RoleUser {
		return m.theme.UserBubble.Render(msg.Content)
	}

	body := msg.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(body); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	return m.theme.ModelBubble.Render(body)
}

func (m Model) renderSources(g *model.GroundingMetadata) string {
	links := make([]string, 0, len(g.Chunks))
	for _, chunk := range g.Chunks {
		title := chunk.Title
		if title == "" {
			title = chunk.URI
		}
		links = append(links, m.theme.SourceLink.Render(title))
	}
	return m.theme.Sources.Render("sources: ") + strings.Join(links, m.theme.Sources.Render(" · "))
}

// =============================================================================
// SESSION LIST
// =============================================================================

func (m Model) renderSessionList() string {
	list := m.reg.List()
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, m.theme.HeaderTitle.Render("Sessions"))

	for i, sess := range list {
		title := util.TruncateWidth(sess.Title, sessionPanelWidth-6)
		style := m.theme.SessionItem
		prefix := "  "
		if i == m.sessionCursor {
			style = m.theme.SessionItemSelected
			prefix = "> "
		}
		if sess.ID == m.reg.CurrentID() {
			title += " *"
		}
		meta := fmt.Sprintf("%d msgs · %s", len(sess.Messages), sess.UpdatedAt.Format("Jan 2 15:04"))
		lines = append(lines, prefix+style.Render(title))
		lines = append(lines, "  "+m.theme.SessionMeta.Render(meta))
	}

	return m.theme.SessionList.
		Width(sessionPanelWidth).
		Height(m.viewport.Height - 2).
		Render(strings.Join(lines, "\n"))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	if m.status != "" {
		return m.theme.StatusBar.Width(m.width).Render(m.theme.StatusError.Render(m.status))
	}

	if m.eng.Busy() {
		return m.theme.StatusBar.Width(m.width).Render(m.spin.View() + " generating")
	}

	hints := []struct{ k, d string }{
		{"Enter", "send"},
		{"C-n", "new"},
		{"C-s", "sessions"},
		{"C-e", "edit"},
		{"C-t", "tier"},
		{"C-g", "search"},
		{"C-r", "thinking"},
		{"C-x", "export"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, m.theme.ShortcutKey.Render(h.k)+m.theme.ShortcutDesc.Render(" "+h.d))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}
