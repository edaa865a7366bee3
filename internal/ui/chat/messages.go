// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/engine"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one generation event from the streaming goroutine.
// The invocation pointer identifies which generation the event belongs to, so
// events from a superseded stream can never land on the wrong message.
type StreamEventMsg struct {
	Inv   *engine.Invocation
	Event engine.Event
}

// TitleReadyMsg delivers an asynchronously generated session title.
type TitleReadyMsg struct {
	Inv   *engine.Invocation
	Title string
}

// =============================================================================
// CONFIGURATION MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent when the config file watcher picks up an edited
// configuration. Only the validated result ever reaches the loop.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// StatusMsg shows a transient line in the status bar.
type StatusMsg struct {
	Text string
}
