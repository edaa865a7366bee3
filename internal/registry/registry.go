// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the in-memory session collection and the pointer to
// the active session.
//
// The registry is confined to the UI event loop: every mutation happens in
// response to a single delivered event, so no locking is required. All
// operations are total over the in-memory state: a stale or unknown id is a
// silent no-op, never an error, because callers only offer ids they obtained
// from the registry itself.
//
// Invariant: if the collection is non-empty, the current pointer references a
// member. The registry lazily creates a fresh session whenever it would
// otherwise be empty or point nowhere.
//
// Every observable change is pushed to the persistent store as a
// fire-and-forget side effect; persistence failures are logged and swallowed.
package registry

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/gemchat/internal/model"
)

// Persister is the durable store the registry snapshots itself into.
type Persister interface {
	Load() ([]*model.ChatSession, error)
	Save(sessions []*model.ChatSession) error
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry owns the session collection and the current-session pointer.
type Registry struct {
	sessions map[string]*model.ChatSession
	current  string
	store    Persister
	log      *zap.Logger
}

// New creates a registry backed by store. The store is read exactly once,
// here; a corrupt or unreadable blob degrades to an empty collection. The
// returned registry always contains at least one session, and one of them is
// current.
func New(store Persister, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Registry{
		sessions: make(map[string]*model.ChatSession),
		store:    store,
		log:      log,
	}

	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			log.Warn("session store unreadable, starting empty", zap.Error(err))
		}
		for _, sess := range loaded {
			r.sessions[sess.ID] = sess
		}
	}

	r.ensure()
	return r
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreateSession inserts a new empty session and makes it current.
func (r *Registry) CreateSession() *model.ChatSession {
	sess := model.NewSession()
	r.sessions[sess.ID] = sess
	r.current = sess.ID
	r.persist()
	return sess
}

// SelectSession makes the session with the given id current. Unknown ids are
// ignored. Selection is process state only; the persisted blob holds the
// collection, so nothing is written here.
func (r *Registry) SelectSession(id string) {
	if _, ok := r.sessions[id]; !ok {
		return
	}
	r.current = id
}

// DeleteSession removes a session. If it was current, the current pointer is
// cleared and the invariant-restoration rule runs: an empty registry gets a
// fresh session, otherwise the most recently updated survivor becomes current.
func (r *Registry) DeleteSession(id string) {
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	if r.current == id {
		r.current = ""
	}
	r.ensure()
	r.persist()
}

// RenameSession updates a session's title. Pure metadata: no timestamp bump.
func (r *Registry) RenameSession(id, title string) {
	sess, ok := r.sessions[id]
	if !ok {
		return
	}
	sess.Title = title
	r.persist()
}

// AppendMessages appends messages to a session and bumps its UpdatedAt.
func (r *Registry) AppendMessages(sessionID string, msgs ...*model.ChatMessage) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	sess.Messages = append(sess.Messages, msgs...)
	sess.UpdatedAt = time.Now()
	r.persist()
}

// ReplaceMessages swaps a session's whole message list and bumps UpdatedAt.
func (r *Registry) ReplaceMessages(sessionID string, msgs []*model.ChatMessage) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	if msgs == nil {
		msgs = []*model.ChatMessage{}
	}
	sess.Messages = msgs
	sess.UpdatedAt = time.Now()
	r.persist()
}

// UpdateMessage applies fn to exactly one message in one session, leaving all
// other messages and sessions untouched. This is the atomic single-message
// replace the generation engine uses for every streaming event; the session id
// is the one captured at invocation start, so updates never chase the
// currently selected session. Stale ids are no-ops.
func (r *Registry) UpdateMessage(sessionID, messageID string, fn func(*model.ChatMessage)) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	msg := sess.MessageByID(messageID)
	if msg == nil {
		return
	}
	fn(msg)
	sess.UpdatedAt = time.Now()
	r.persist()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Session returns the session with the given id.
func (r *Registry) Session(id string) (*model.ChatSession, bool) {
	sess, ok := r.sessions[id]
	return sess, ok
}

// CurrentID returns the id of the current session.
func (r *Registry) CurrentID() string {
	return r.current
}

// Current returns the current session.
func (r *Registry) Current() *model.ChatSession {
	return r.sessions[r.current]
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// List returns the sessions ordered most-recently-updated first. The ordering
// is recomputed on every call; it is never stored.
func (r *Registry) List() []*model.ChatSession {
	out := make([]*model.ChatSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// =============================================================================
// INVARIANT RESTORATION / PERSISTENCE
// =============================================================================

// ensure restores the registry invariant: never empty, always a valid current.
func (r *Registry) ensure() {
	if len(r.sessions) == 0 {
		sess := model.NewSession()
		r.sessions[sess.ID] = sess
		r.current = sess.ID
		return
	}
	if _, ok := r.sessions[r.current]; !ok {
		r.current = r.List()[0].ID
	}
}

// persist snapshots the whole collection into the store. Fire-and-forget:
// a failed write is logged and otherwise ignored so it can never stall or
// fail a generation.
func (r *Registry) persist() {
	if r.store == nil {
		return
	}
	if err := r.store.Save(r.List()); err != nil {
		r.log.Warn("session persist failed", zap.Error(err))
	}
}
