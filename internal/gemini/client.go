// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini adapts the Gemini API to the small streaming surface the
// generation engine consumes: a list of turns in, an event stream out. All
// backend specifics (model ids, tool wiring, thinking budgets, response
// shapes) stay behind this package.
package gemini

import (
	"context"
	"io"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jeranaias/gemchat/internal/model"
)

// titlePrompt asks for a session title from the opening user message. The
// response is used verbatim after sanitizing, so the prompt pins the format.
const titlePrompt = "Write a short title (at most five words) for a conversation " +
	"that starts with the following message. Reply with the title only, no " +
	"quotes, no punctuation at the end.\n\n"

// =============================================================================
// CLIENT
// =============================================================================

// Client wraps the Gemini SDK client.
type Client struct {
	api     *genai.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a Gemini client authenticated with the given API key.
func NewClient(ctx context.Context, apiKey string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api: api,
		// Keeps bursts of sends at least 100ms apart.
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		log:     log,
	}, nil
}

// StreamCompletion starts a streaming completion for the given request. The
// returned stream delivers text deltas and grounding snapshots and ends with
// io.EOF from Recv.
func (c *Client) StreamCompletion(ctx context.Context, req Request) (Stream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug("starting generation",
		zap.String("model", req.Tier.ModelID()),
		zap.Int("turns", len(req.History)),
		zap.Bool("search", req.Options.EnableSearch),
		zap.Bool("thinking", req.Options.EnableThinking),
	)

	turns := append(append([]Turn{}, req.History...), Turn{Role: model.RoleUser, Text: req.Turn})
	seq := c.api.Models.GenerateContentStream(
		ctx, req.Tier.ModelID(), contentsFromTurns(turns), generationConfig(req.Tier, req.Options),
	)
	next, stop := iter.Pull2(seq)
	return &apiStream{next: next, stop: stop}, nil
}

// SummarizeTitle produces a short session title from the opening user message.
// Best-effort: any failure resolves to the default title, never an error.
func (c *Client) SummarizeTitle(ctx context.Context, opening string) string {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.DefaultTitle
	}

	resp, err := c.api.Models.GenerateContent(
		ctx, titleModel, genai.Text(titlePrompt+opening), nil,
	)
	if err != nil {
		c.log.Debug("title summary failed", zap.Error(err))
		return model.DefaultTitle
	}

	title := sanitizeTitle(resp.Text())
	if title == "" {
		title = model.DefaultTitle
	}
	return title
}

// =============================================================================
// REQUEST CONSTRUCTION
// =============================================================================

func contentsFromTurns(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == model.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return contents
}

// generationConfig builds the per-request config. Thinking is configured only
// on tiers that support it: an explicit zero budget when reasoning is off, the
// full budget when it is on. Tiers without thinking get no thinking config at
// all, since sending one is rejected.
func generationConfig(tier Tier, opts Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if opts.EnableSearch {
		cfg.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	if tier.SupportsThinking() {
		budget := int32(0)
		if opts.EnableThinking {
			budget = thinkingBudgetTokens
		}
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(budget),
		}
	}

	return cfg
}

// =============================================================================
// RESPONSE STREAM
// =============================================================================

// apiStream adapts the SDK's push iterator to the pull-style Stream interface.
type apiStream struct {
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	queue []StreamEvent
}

// Recv returns the next event, io.EOF at end of stream, or the backend error.
func (s *apiStream) Recv() (StreamEvent, error) {
	for len(s.queue) == 0 {
		resp, err, ok := s.next()
		if !ok {
			return StreamEvent{}, io.EOF
		}
		if err != nil {
			return StreamEvent{}, err
		}
		s.queue = eventsFromResponse(resp)
	}

	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, nil
}

// Close abandons the stream. Safe to call at any point, including after EOF.
func (s *apiStream) Close() error {
	s.stop()
	return nil
}

// eventsFromResponse flattens one SDK response chunk into stream events.
// Thought parts are dropped; only answer text reaches the transcript.
func eventsFromResponse(resp *genai.GenerateContentResponse) []StreamEvent {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]

	var events []StreamEvent
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				events = append(events, StreamEvent{Delta: part.Text})
			}
		}
	}
	if gm := groundingFromAPI(cand.GroundingMetadata); gm != nil {
		events = append(events, StreamEvent{Grounding: gm})
	}
	return events
}

func groundingFromAPI(md *genai.GroundingMetadata) *model.GroundingMetadata {
	if md == nil {
		return nil
	}

	out := &model.GroundingMetadata{
		WebSearchQueries: md.WebSearchQueries,
	}
	for _, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out.Chunks = append(out.Chunks, model.GroundingChunk{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	if len(out.Chunks) == 0 && len(out.WebSearchQueries) == 0 {
		return nil
	}
	return out
}

// =============================================================================
// TITLE SANITIZING
// =============================================================================

// sanitizeTitle collapses a model-produced title to a single clean line.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)

	const maxTitleRunes = 60
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title
}
