// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/engine"
	"github.com/jeranaias/gemchat/internal/registry"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

const composerHeight = 3

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Domain state
	cfg    *config.Config
	reg    *registry.Registry
	eng    *engine.Engine
	runner *StreamRunner
	log    *zap.Logger

	// In-flight generation, nil when idle
	inv *engine.Invocation

	// UI components
	viewport viewport.Model
	composer textarea.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// Key bindings
	keys KeyMap

	// Session list panel
	showSessions  bool
	sessionCursor int

	// Message being edited, empty when composing a fresh message
	editingID string

	// Transient status line
	status string
}

// New creates the chat model. The runner's program must be attached before
// the first send.
func New(theme *styles.Theme, cfg *config.Config, reg *registry.Registry, eng *engine.Engine, runner *StreamRunner, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "│ "
	ta.CharLimit = 0
	ta.SetHeight(composerHeight)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	eng.SetTier(cfg.Tier())
	eng.SetOptions(cfg.Options())

	return Model{
		theme:    theme,
		cfg:      cfg,
		reg:      reg,
		eng:      eng,
		runner:   runner,
		log:      log,
		composer: ta,
		spin:     sp,
		keys:     DefaultKeyMap(),
	}
}

// Init starts the cursor blink and spinner tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick)
}

// rebuildRenderer recreates the glamour renderer for the current width. A
// failed build leaves the renderer nil and the transcript falls back to
// plain text.
func (m *Model) rebuildRenderer(width int) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		m.renderer = nil
		return
	}
	m.renderer = r
}
