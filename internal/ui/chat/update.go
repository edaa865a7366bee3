// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/engine"
	"github.com/jeranaias/gemchat/internal/export"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case TitleReadyMsg:
		m.eng.ApplyTitle(msg.Inv, msg.Title)
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.eng.SetTier(msg.Config.Tier())
		m.eng.SetOptions(msg.Config.Options())
		m.status = "configuration reloaded"
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.eng.Busy() {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header and status bar take one line each; the composer takes its text
	// height plus the rounded border.
	vpHeight := msg.Height - 1 - 1 - composerHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}

	vpWidth := msg.Width
	if m.showSessions && msg.Width > sessionPanelWidth {
		vpWidth = msg.Width - sessionPanelWidth
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}

	m.composer.SetWidth(msg.Width - 4)
	m.rebuildRenderer(msg.Width - 4)
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

func (m Model) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	atBottom := m.viewport.AtBottom()
	m.eng.Apply(msg.Inv, msg.Event)

	if msg.Event.Done || msg.Event.Err != nil {
		if m.inv == msg.Inv {
			m.inv = nil
			m.runner.Cancel()
		}
		if msg.Event.Err != nil && !errors.Is(msg.Event.Err, context.Canceled) {
			m.status = "generation failed"
		}
	}

	m.refresh()
	if atBottom {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.runner.Cancel()
		return m, tea.Quit

	case m.showSessions:
		return m.handleSessionListKey(msg)

	case key.Matches(msg, m.keys.Cancel):
		if m.editingID != "" {
			m.editingID = ""
			m.composer.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewSession):
		m.reg.CreateSession()
		m.editingID = ""
		m.composer.Reset()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Sessions):
		m.openSessionList()
		return m, nil

	case key.Matches(msg, m.keys.EditLast):
		m.beginEditLast()
		return m, nil

	case key.Matches(msg, m.keys.CycleTier):
		next := gemini.TierPro
		if m.eng.Tier() == gemini.TierPro {
			next = gemini.TierFlash
		}
		m.eng.SetTier(next)
		m.status = fmt.Sprintf("tier: %s", next)
		return m, nil

	case key.Matches(msg, m.keys.ToggleSearch):
		opts := m.eng.Options()
		opts.EnableSearch = !opts.EnableSearch
		m.eng.SetOptions(opts)
		return m, nil

	case key.Matches(msg, m.keys.ToggleThinking):
		opts := m.eng.Options()
		opts.EnableThinking = !opts.EnableThinking
		m.eng.SetOptions(opts)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.exportCurrent()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) handleSessionListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.reg.List()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.sessionCursor < len(list)-1 {
			m.sessionCursor++
		}

	case key.Matches(msg, m.keys.Submit):
		if m.sessionCursor < len(list) {
			m.reg.SelectSession(list[m.sessionCursor].ID)
		}
		m.closeSessionList()
		m.editingID = ""
		m.refresh()
		m.viewport.GotoBottom()

	case key.Matches(msg, m.keys.DeleteSession):
		if m.sessionCursor < len(list) {
			m.reg.DeleteSession(list[m.sessionCursor].ID)
		}
		if n := m.reg.Len(); m.sessionCursor >= n {
			m.sessionCursor = n - 1
		}
		m.refresh()

	case key.Matches(msg, m.keys.NewSession):
		m.reg.CreateSession()
		m.closeSessionList()
		m.refresh()

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Sessions):
		m.closeSessionList()
	}

	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the composer content, either as a fresh message or as an edit
// of an earlier one.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.composer.Value())
	if text == "" {
		return m, nil
	}

	sessionID := m.reg.CurrentID()
	var (
		inv *engine.Invocation
		err error
	)
	if m.editingID != "" {
		inv, err = m.eng.EditMessage(sessionID, m.editingID, text)
	} else {
		inv, err = m.eng.Send(sessionID, text, nil)
	}

	if err != nil {
		switch {
		case errors.Is(err, engine.ErrGenerationInFlight):
			m.status = "still generating, wait for the response to finish"
		case errors.Is(err, engine.ErrUnknownMessage):
			m.editingID = ""
			m.status = "that message can no longer be edited"
		default:
			m.status = err.Error()
		}
		return m, nil
	}

	m.inv = inv
	m.editingID = ""
	m.composer.Reset()
	m.runner.Start(inv)
	m.refresh()
	m.viewport.GotoBottom()
	return m, m.spin.Tick
}

// beginEditLast loads the most recent user message of the current session
// into the composer for rewriting.
func (m *Model) beginEditLast() {
	sess := m.reg.Current()
	if sess == nil || m.eng.Busy() {
		return
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == model.RoleUser {
			m.editingID = sess.Messages[i].ID
			m.composer.SetValue(sess.Messages[i].Content)
			m.composer.CursorEnd()
			return
		}
	}
	m.status = "nothing to edit yet"
}

func (m *Model) openSessionList() {
	m.showSessions = true
	m.sessionCursor = 0
	for i, sess := range m.reg.List() {
		if sess.ID == m.reg.CurrentID() {
			m.sessionCursor = i
			break
		}
	}
	// The transcript shares the row with the panel while it is open.
	if m.width > sessionPanelWidth {
		m.viewport.Width = m.width - sessionPanelWidth
	}
	m.refresh()
}

func (m *Model) closeSessionList() {
	m.showSessions = false
	m.viewport.Width = m.width
}

// exportCurrent writes the current session as Markdown into the working
// directory.
func (m *Model) exportCurrent() {
	sess := m.reg.Current()
	if sess == nil || len(sess.Messages) == 0 {
		m.status = "nothing to export"
		return
	}
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	path, err := export.ExportToFile(sess, export.NewMarkdownExporter(), dir)
	if err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("exported to %s", path)
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}
