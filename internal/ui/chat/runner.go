// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/engine"
)

// titleTimeout bounds the one-shot title summary so a hung request cannot
// leave a goroutine around for the life of the process.
const titleTimeout = 30 * time.Second

// Sender is the slice of *tea.Program the runner needs: the thread-safe
// message injection point.
type Sender interface {
	Send(tea.Msg)
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner bridges engine goroutines back into the event loop. Start and
// Cancel are called from Update only; the goroutines they manage touch nothing
// but the engine's goroutine-safe Run/Title methods and program.Send.
type StreamRunner struct {
	eng     *engine.Engine
	program Sender
	cancel  context.CancelFunc
}

// NewStreamRunner creates a runner for the given engine. The program is
// attached later, once tea.NewProgram has been called.
func NewStreamRunner(eng *engine.Engine) *StreamRunner {
	return &StreamRunner{eng: eng}
}

// SetProgram attaches the running Bubble Tea program.
func (r *StreamRunner) SetProgram(p Sender) {
	r.program = p
}

// Start launches the streaming goroutine for an invocation, plus the title
// goroutine when the invocation wants one. Events come back as StreamEventMsg
// and TitleReadyMsg.
func (r *StreamRunner) Start(inv *engine.Invocation) {
	if r.program == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	eng, p := r.eng, r.program
	go func() {
		defer cancel()
		eng.Run(ctx, inv, func(ev engine.Event) {
			p.Send(StreamEventMsg{Inv: inv, Event: ev})
		})
	}()

	if inv.WantTitle {
		// The title run is independent of the main stream: cancelling the
		// generation should not lose the title of a session that already has
		// its first user message.
		go func() {
			tctx, tcancel := context.WithTimeout(context.Background(), titleTimeout)
			defer tcancel()
			p.Send(TitleReadyMsg{Inv: inv, Title: eng.Title(tctx, inv)})
		}()
	}
}

// Cancel tears down the in-flight stream's context. Used only at program
// shutdown; a running generation otherwise always runs to natural completion
// or error. An aborted stream surfaces as an error event, so the normal
// failure path would finalize the placeholder if the loop were still alive.
func (r *StreamRunner) Cancel() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
