// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for gemchat.
//
// The package follows the single event-loop model end to end: every piece of
// mutable state (registry, engine, composer, viewport) is touched only inside
// Update. The one thing that leaves the loop is a running generation, which
// the StreamRunner pumps back in as StreamEventMsg values via program.Send.
package chat
