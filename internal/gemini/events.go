// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// MODEL TIERS
// =============================================================================

// Tier selects the quality/latency tradeoff for a generation.
type Tier string

const (
	// TierFlash is the fast default tier.
	TierFlash Tier = "flash"

	// TierPro is the slower, higher quality tier. Only this tier supports
	// extended reasoning.
	TierPro Tier = "pro"
)

// Backend model ids per tier.
const (
	flashModel = "gemini-2.5-flash"
	proModel   = "gemini-2.5-pro"

	// titleModel handles the cheap one-shot title summaries.
	titleModel = "gemini-2.5-flash"
)

// thinkingBudgetTokens is the reasoning token budget applied when extended
// reasoning is enabled on the pro tier.
const thinkingBudgetTokens = 32768

// ModelID returns the backend model id for the tier. Unknown tiers fall back
// to flash.
func (t Tier) ModelID() string {
	if t == TierPro {
		return proModel
	}
	return flashModel
}

// SupportsThinking reports whether the tier can run with extended reasoning.
func (t Tier) SupportsThinking() bool {
	return t == TierPro
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Turn is one conversation turn sent to the backend.
type Turn struct {
	Role model.Role
	Text string
}

// Options carries the per-generation feature toggles.
type Options struct {
	// EnableSearch attaches the web search tool so answers can be grounded.
	EnableSearch bool

	// EnableThinking requests extended reasoning. Honored only on tiers that
	// support it.
	EnableThinking bool
}

// Request describes one streaming completion. History is the conversational
// context and never includes the turn being answered; Turn is sent as the
// final user input.
type Request struct {
	Tier    Tier
	History []Turn
	Turn    string
	Options Options
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// StreamEvent is one unit of streamed response data. Exactly one field is
// populated per event.
type StreamEvent struct {
	// Delta is an incremental piece of response text.
	Delta string

	// Grounding is a citation snapshot. It replaces any previously delivered
	// snapshot wholesale.
	Grounding *model.GroundingMetadata
}

// Stream is an in-flight generation. Recv blocks for the next event and
// returns io.EOF when the response is complete.
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}
