// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives streamed completions against the session registry.
//
// One invocation walks PENDING (user message and placeholder appended, busy
// raised) through STREAMING (deltas and grounding applied in arrival order)
// to COMPLETED or FAILED (placeholder finalized, busy lowered). Exactly one
// invocation may be in flight process-wide.
//
// The split between Run and Apply mirrors the single event-loop model of the
// rest of the program: Run is the only part that leaves the loop, and it does
// nothing but pump the adapter stream into emit. Every state mutation happens
// in Apply, on the loop, in the order events were delivered.
package engine

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/registry"
)

// FailureMessage replaces the placeholder content when a generation fails
// before producing any text.
const FailureMessage = "Sorry, something went wrong while generating a response. Please try again."

// failureNotice is appended to partial output when a generation fails after
// some text already streamed in. The partial text is kept.
const failureNotice = "\n\n[Response interrupted by an error. Resend to try again.]"

// ErrGenerationInFlight is returned by Send and EditMessage while a previous
// generation is still running. The composer stays disabled until it concludes.
var ErrGenerationInFlight = errors.New("a generation is already in flight")

// ErrUnknownMessage is returned when an edit targets a message that does not
// exist or is not a user message.
var ErrUnknownMessage = errors.New("no editable message with that id")

// ErrUnknownSession is returned when a send targets a session id the registry
// does not hold.
var ErrUnknownSession = errors.New("no session with that id")

// Completer is the completion backend the engine drives. Satisfied by
// *gemini.Client.
type Completer interface {
	StreamCompletion(ctx context.Context, req gemini.Request) (gemini.Stream, error)
	SummarizeTitle(ctx context.Context, opening string) string
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one streaming notification handed back to the event loop. At most
// one of Delta/Grounding is set; Done and Err mark the two terminal outcomes.
type Event struct {
	Delta     string
	Grounding *model.GroundingMetadata
	Done      bool
	Err       error
}

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is the frozen context of one generation. Session and message ids
// are captured here, at start, so events keep landing on the right session
// even if the user switches or deletes sessions mid-stream. The accumulator
// is mutated only by Apply, on the event loop.
type Invocation struct {
	SessionID string
	MessageID string

	History []gemini.Turn
	Turn    string
	Tier    gemini.Tier
	Options gemini.Options

	// WantTitle is set when this send opened the session, so a title summary
	// should run alongside the main generation.
	WantTitle bool

	accum string
	done  bool
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns the in-flight state of generation.
type Engine struct {
	reg    *registry.Registry
	client Completer
	log    *zap.Logger

	tier gemini.Tier
	opts gemini.Options

	busy bool
}

// New creates an engine over the given registry and backend.
func New(reg *registry.Registry, client Completer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		reg:    reg,
		client: client,
		log:    log,
		tier:   gemini.TierFlash,
	}
}

// SetTier changes the tier used by subsequent invocations. The in-flight one,
// if any, keeps the tier it started with.
func (e *Engine) SetTier(tier gemini.Tier) {
	e.tier = tier
}

// Tier returns the tier for the next invocation.
func (e *Engine) Tier() gemini.Tier {
	return e.tier
}

// SetOptions changes the feature toggles used by subsequent invocations.
func (e *Engine) SetOptions(opts gemini.Options) {
	e.opts = opts
}

// Options returns the toggles for the next invocation.
func (e *Engine) Options() gemini.Options {
	return e.opts
}

// Busy reports whether a generation is in flight. The flag is global: it
// disables new sends in every session, not just the streaming one.
func (e *Engine) Busy() bool {
	return e.busy
}

// =============================================================================
// PENDING TRANSITION
// =============================================================================

// Send starts a generation for new user input: appends the user message and
// an empty thinking placeholder to the session, raises the busy flag, and
// returns the invocation to hand to Run.
func (e *Engine) Send(sessionID, text string, attachments []model.Attachment) (*Invocation, error) {
	if e.busy {
		return nil, ErrGenerationInFlight
	}
	sess, ok := e.reg.Session(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}

	// The session is untouched so far, so the history snapshot is the context
	// prefix and the first-message check decides whether a title run is due.
	history := turnsFromMessages(sess.Messages)
	wantTitle := sess.UserMessageCount() == 0

	userMsg := model.NewUserMessage(text, attachments)
	placeholder := model.NewPendingModelMessage(e.reasoningActive())
	e.reg.AppendMessages(sessionID, userMsg, placeholder)

	e.busy = true
	return &Invocation{
		SessionID: sessionID,
		MessageID: placeholder.ID,
		History:   history,
		Turn:      text,
		Tier:      e.tier,
		Options:   e.opts,
		WantTitle: wantTitle,
	}, nil
}

// EditMessage rewrites a user message in place and regenerates from it. Every
// message after the edited one is discarded, not archived: the conversation
// continues from the edited text as if the suffix never happened.
func (e *Engine) EditMessage(sessionID, messageID, newText string) (*Invocation, error) {
	if e.busy {
		return nil, ErrGenerationInFlight
	}
	sess, ok := e.reg.Session(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}
	idx := sess.MessageIndex(messageID)
	if idx < 0 || sess.Messages[idx].Role != model.RoleUser {
		return nil, ErrUnknownMessage
	}

	prefix := sess.Messages[:idx]
	history := turnsFromMessages(prefix)

	edited := sess.Messages[idx].Edited(newText)
	placeholder := model.NewPendingModelMessage(e.reasoningActive())

	msgs := make([]*model.ChatMessage, 0, idx+2)
	msgs = append(msgs, prefix...)
	msgs = append(msgs, edited, placeholder)
	e.reg.ReplaceMessages(sessionID, msgs)

	e.busy = true
	return &Invocation{
		SessionID: sessionID,
		MessageID: placeholder.ID,
		History:   history,
		Turn:      newText,
		Tier:      e.tier,
		Options:   e.opts,
	}, nil
}

// reasoningActive reports whether the placeholder should be marked as a
// reasoning response under the current tier and toggles.
func (e *Engine) reasoningActive() bool {
	return e.tier.SupportsThinking() && e.opts.EnableThinking
}

func turnsFromMessages(msgs []*model.ChatMessage) []gemini.Turn {
	turns := make([]gemini.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, gemini.Turn{Role: m.Role, Text: m.Content})
	}
	return turns
}

// =============================================================================
// STREAMING
// =============================================================================

// Run drives the invocation's stream to its natural end, forwarding every
// event through emit. It never touches engine or registry state, so it is the
// one method safe to call from a goroutine; the caller routes the emitted
// events back onto the event loop and into Apply.
func (e *Engine) Run(ctx context.Context, inv *Invocation, emit func(Event)) {
	stream, err := e.client.StreamCompletion(ctx, gemini.Request{
		Tier:    inv.Tier,
		History: inv.History,
		Turn:    inv.Turn,
		Options: inv.Options,
	})
	if err != nil {
		emit(Event{Err: err})
		return
	}
	defer stream.Close()

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			emit(Event{Done: true})
			return
		}
		if err != nil {
			emit(Event{Err: err})
			return
		}
		emit(Event{Delta: ev.Delta, Grounding: ev.Grounding})
	}
}

// Apply folds one stream event into the invocation's target message. Must be
// called on the event loop, in delivery order. Events arriving after the
// terminal one, or after the target session or message is gone, are dropped.
func (e *Engine) Apply(inv *Invocation, ev Event) {
	if inv.done {
		return
	}

	switch {
	case ev.Err != nil:
		inv.done = true
		e.busy = false
		e.log.Warn("generation failed",
			zap.String("session", inv.SessionID),
			zap.Int("accumulated", len(inv.accum)),
			zap.Error(ev.Err),
		)
		e.reg.UpdateMessage(inv.SessionID, inv.MessageID, func(m *model.ChatMessage) {
			if inv.accum == "" {
				m.Content = FailureMessage
			} else {
				m.Content = inv.accum + failureNotice
			}
			m.IsThinking = false
		})

	case ev.Done:
		inv.done = true
		e.busy = false
		e.reg.UpdateMessage(inv.SessionID, inv.MessageID, func(m *model.ChatMessage) {
			m.IsThinking = false
		})

	case ev.Grounding != nil:
		// Last write wins; snapshots are never merged.
		e.reg.UpdateMessage(inv.SessionID, inv.MessageID, func(m *model.ChatMessage) {
			m.Grounding = ev.Grounding
		})

	default:
		inv.accum += ev.Delta
		e.reg.UpdateMessage(inv.SessionID, inv.MessageID, func(m *model.ChatMessage) {
			m.Content = inv.accum
			if inv.accum != "" {
				m.IsThinking = false
			}
		})
	}
}

// =============================================================================
// TITLES
// =============================================================================

// Title runs the one-shot title summary for the invocation's opening text.
// Like Run it mutates nothing and may be called from a goroutine.
func (e *Engine) Title(ctx context.Context, inv *Invocation) string {
	return e.client.SummarizeTitle(ctx, inv.Turn)
}

// ApplyTitle installs an asynchronously produced title. The rename lands on
// the session captured at invocation start; a since-deleted session makes
// this a no-op.
func (e *Engine) ApplyTitle(inv *Invocation, title string) {
	if title == "" {
		title = model.DefaultTitle
	}
	e.reg.RenameSession(inv.SessionID, title)
}
