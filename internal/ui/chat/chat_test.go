// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/engine"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/registry"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type scriptedStream struct {
	events []gemini.StreamEvent
	pos    int
}

func (s *scriptedStream) Recv() (gemini.StreamEvent, error) {
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		return ev, nil
	}
	return gemini.StreamEvent{}, io.EOF
}

func (s *scriptedStream) Close() error { return nil }

type fakeCompleter struct {
	events []gemini.StreamEvent
	title  string
}

func (f *fakeCompleter) StreamCompletion(ctx context.Context, req gemini.Request) (gemini.Stream, error) {
	return &scriptedStream{events: f.events}, nil
}

func (f *fakeCompleter) SummarizeTitle(ctx context.Context, opening string) string {
	return f.title
}

// newTestModel builds a sized chat model over an in-memory registry. The
// runner has no program attached, so submissions raise the busy flag without
// spawning goroutines and stream events are fed in by hand.
func newTestModel(t *testing.T) Model {
	t.Helper()

	reg := registry.New(nil, nil)
	eng := engine.New(reg, &fakeCompleter{title: "Title"}, nil)
	runner := NewStreamRunner(eng)
	m := New(styles.NewTheme("dark"), config.Default(), reg, eng, runner, nil)

	mi, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return mi.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	mi, _ := m.Update(msg)
	return mi.(Model)
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.composer.SetValue(text)
	return m
}

// =============================================================================
// SUBMIT AND STREAMING
// =============================================================================

func TestSubmit_StartsGeneration(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "hello there")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.inv, "submit should leave an invocation in flight")
	require.True(t, m.eng.Busy())
	require.Empty(t, m.composer.Value(), "composer should clear on submit")

	sess := m.reg.Current()
	require.Len(t, sess.Messages, 2, "user message plus placeholder")
	require.Equal(t, "hello there", sess.Messages[0].Content)
	require.True(t, sess.Messages[1].IsThinking)
}

func TestSubmit_EmptyComposerIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "   ")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Nil(t, m.inv)
	require.Empty(t, m.reg.Current().Messages)
}

func TestSubmit_WhileBusySetsStatus(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "first")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = typeText(t, m, "second")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotEmpty(t, m.status)
	require.Len(t, m.reg.Current().Messages, 2, "second send must not append")
}

func TestStreamEvents_FlowIntoTranscript(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "question")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	inv := m.inv

	m = update(t, m, StreamEventMsg{Inv: inv, Event: engine.Event{Delta: "Hel"}})
	m = update(t, m, StreamEventMsg{Inv: inv, Event: engine.Event{Delta: "lo"}})
	m = update(t, m, StreamEventMsg{Inv: inv, Event: engine.Event{Done: true}})

	require.Nil(t, m.inv, "terminal event should clear the invocation")
	require.False(t, m.eng.Busy())

	sess := m.reg.Current()
	require.Equal(t, "Hello", sess.Messages[1].Content)
	require.False(t, sess.Messages[1].IsThinking)
}

func TestStreamEvents_ErrorSetsStatus(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "question")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, StreamEventMsg{Inv: m.inv, Event: engine.Event{Err: io.ErrUnexpectedEOF}})

	require.NotEmpty(t, m.status)
	require.False(t, m.eng.Busy())
	require.Equal(t, engine.FailureMessage, m.reg.Current().Messages[1].Content)
}

func TestTitleReadyMsg_RenamesSession(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "first question")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, TitleReadyMsg{Inv: m.inv, Title: "First Question"})
	require.Equal(t, "First Question", m.reg.Current().Title)
}

// =============================================================================
// EDITING
// =============================================================================

func TestEditLast_LoadsComposer(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "original")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, StreamEventMsg{Inv: m.inv, Event: engine.Event{Done: true}})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotEmpty(t, m.editingID)
	require.Equal(t, "original", m.composer.Value())

	// Esc abandons the edit.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Empty(t, m.editingID)
	require.Empty(t, m.composer.Value())
}

func TestEditSubmit_ReplacesAndRegenerates(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "original")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, StreamEventMsg{Inv: m.inv, Event: engine.Event{Delta: "answer"}})
	m = update(t, m, StreamEventMsg{Inv: m.inv, Event: engine.Event{Done: true}})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m = typeText(t, m, "rewritten")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	sess := m.reg.Current()
	require.Len(t, sess.Messages, 2, "old answer should be discarded")
	require.Equal(t, "rewritten", sess.Messages[0].Content)
	require.True(t, sess.Messages[1].IsThinking)
}

// =============================================================================
// SESSION LIST
// =============================================================================

func TestSessionList_SelectSwitchesSession(t *testing.T) {
	m := newTestModel(t)
	first := m.reg.CurrentID()
	m.reg.CreateSession()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.True(t, m.showSessions)

	// Two sessions; cursor starts on current. Move to the other one.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.False(t, m.showSessions)
	require.Equal(t, first, m.reg.CurrentID())
}

func TestSessionList_DeleteKeepsRegistryNonEmpty(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})

	require.Equal(t, 1, m.reg.Len(), "deleting the only session recreates one")
	require.NotEmpty(t, m.reg.CurrentID())
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestCycleTier(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, gemini.TierFlash, m.eng.Tier())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, gemini.TierPro, m.eng.Tier())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, gemini.TierFlash, m.eng.Tier())
}

func TestConfigReloaded_UpdatesEngine(t *testing.T) {
	m := newTestModel(t)

	cfg := config.Default()
	cfg.Gemini.Tier = "pro"
	cfg.Gemini.EnableSearch = true
	m = update(t, m, ConfigReloadedMsg{Config: cfg})

	require.Equal(t, gemini.TierPro, m.eng.Tier())
	require.True(t, m.eng.Options().EnableSearch)
}

func TestView_RendersWithoutPanic(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "question")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, StreamEventMsg{Inv: m.inv, Event: engine.Event{Delta: "**bold** answer"}})

	out := m.View()
	require.NotEmpty(t, out)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotEmpty(t, m.View())
}
