package slides

import (
	"context"
	"fmt"
	"strings"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/engine"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
)

// DefaultMaxTurns bounds the drafting conversation when the config leaves
// it unset.
const DefaultMaxTurns = 16

// Pipeline is the Generator wired into the engine: one outline completion,
// then a tool-calling loop that assembles the deck, then validation.
type Pipeline struct {
	client   Client
	model    string
	maxTurns int
}

// NewPipeline builds a Pipeline on the given chat client.
func NewPipeline(client Client, model string, maxTurns int) *Pipeline {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Pipeline{client: client, model: model, maxTurns: maxTurns}
}

// Run implements engine.Generator.
func (p *Pipeline) Run(ctx context.Context, payload string, sink engine.Sink) (string, error) {
	req, err := ParseRequest(payload)
	if err != nil {
		return "", err
	}

	outline, err := p.outline(ctx, req, sink)
	if err != nil {
		return "", err
	}

	deck, err := p.draft(ctx, req, outline, sink)
	if err != nil {
		return "", err
	}

	if err := deck.Validate(); err != nil {
		return "", err
	}
	return deck.JSON()
}

// outline asks for a plan of the deck in one tool-free completion and
// publishes it as the run's first event.
func (p *Pipeline) outline(ctx context.Context, req *Request, sink engine.Sink) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model: p.model,
		Messages: []ChatMessage{
			{Role: "system", Content: outlineSystemPrompt},
			{Role: "user", Content: outlineUserPrompt(req)},
		},
	})
	if err != nil {
		return "", err
	}

	msg := resp.Choices[0].Message
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("slides: model returned an empty outline")
	}
	if err := sink.Append(models.EventAssistantText, textPayload(msg.Content)); err != nil {
		return "", err
	}
	return msg.Content, nil
}

// draft runs the tool-calling conversation until the model calls
// finish_deck or the turn budget runs out. Tool failures are reported back
// to the model as tool results rather than aborting the run.
func (p *Pipeline) draft(ctx context.Context, req *Request, outline string, sink engine.Sink) (*Deck, error) {
	deck := &Deck{Theme: req.Style}
	finished := false

	messages := []ChatMessage{
		{Role: "system", Content: draftSystemPrompt},
		{Role: "user", Content: draftUserPrompt(req, outline)},
	}

	for turn := 0; turn < p.maxTurns && !finished; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
			Model:    p.model,
			Messages: messages,
			Tools:    deckTools(),
		})
		if err != nil {
			return nil, err
		}

		msg := resp.Choices[0].Message
		if msg == nil {
			return nil, fmt.Errorf("slides: model returned an empty message")
		}
		messages = append(messages, *msg)

		if msg.Content != "" {
			if err := sink.Append(models.EventAssistantText, textPayload(msg.Content)); err != nil {
				return nil, err
			}
		}

		if len(msg.ToolCalls) == 0 {
			// The model stopped calling tools without finish_deck; take
			// whatever it built so far to validation.
			break
		}

		for _, call := range msg.ToolCalls {
			if err := sink.Append(models.EventToolCall, toolCallPayload(call)); err != nil {
				return nil, err
			}

			result, done, execErr := execTool(deck, call)
			if execErr != nil {
				result = fmt.Sprintf(`{"error": %q}`, execErr.Error())
			}
			if done {
				finished = true
			}

			if err := sink.Append(models.EventToolResult, toolResultPayload(call, result)); err != nil {
				return nil, err
			}
			messages = append(messages, ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	if !finished && len(deck.Slides) == 0 {
		return nil, fmt.Errorf("slides: model produced no slides within %d turns", p.maxTurns)
	}
	return deck, nil
}
