// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// The types here are the canonical in-memory representation shared by the
// session registry, the generation engine, persistence, and the UI. A
// ChatMessage is either user-authored or model-authored; model messages start
// life as streaming placeholders (IsThinking=true) and are rewritten in place
// as deltas arrive. A ChatSession owns the chronological message list that is
// both the display order and the source of the context prefix sent to the
// completion backend.
package model
