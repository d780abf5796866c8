package slides

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// MockClient is a scripted chat client for tests and --mock serving. It
// deterministically walks the pipeline's conversation: an outline, then
// set_deck_meta, add_slide per planned slide, and finish_deck.
type MockClient struct {
	// Slides is how many slides the scripted deck gets.
	Slides int
	// FailAfter makes the Nth and later calls return an error; 0 disables.
	FailAfter int
	// Delay stalls each call, to simulate slow generation.
	Delay time.Duration

	calls atomic.Int32
}

// NewMockClient returns a mock that builds a three-slide deck.
func NewMockClient() *MockClient {
	return &MockClient{Slides: 3}
}

// Calls returns how many completions have been requested.
func (m *MockClient) Calls() int { return int(m.calls.Load()) }

// CreateChatCompletion implements Client.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	call := int(m.calls.Add(1))
	if m.FailAfter > 0 && call >= m.FailAfter {
		return nil, fmt.Errorf("mock llm: scripted failure on call %d", call)
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	slides := m.Slides
	if slides <= 0 {
		slides = 3
	}

	// No tools offered means this is the outline phase.
	if len(req.Tools) == 0 {
		var b strings.Builder
		for i := 1; i <= slides; i++ {
			fmt.Fprintf(&b, "%d. Slide %d: scripted content\n", i, i)
		}
		return assistantResponse(b.String()), nil
	}

	// Drafting phase: progress is reconstructed from the conversation, so
	// the mock needs no per-request state.
	added, metaSet := draftProgress(req.Messages)
	switch {
	case !metaSet:
		return toolCallResponse("call_meta", toolSetDeckMeta,
			`{"title": "Mock Deck", "subtitle": "Generated for testing"}`), nil
	case added < slides:
		args := fmt.Sprintf(`{"title": "Slide %d", "bullets": ["first point", "second point"]}`, added+1)
		return toolCallResponse(fmt.Sprintf("call_slide_%d", added+1), toolAddSlide, args), nil
	default:
		return toolCallResponse("call_finish", toolFinishDeck, `{}`), nil
	}
}

// draftProgress counts applied tool results in the conversation so far.
func draftProgress(messages []ChatMessage) (added int, metaSet bool) {
	for _, msg := range messages {
		if msg.Role != "tool" {
			continue
		}
		if strings.Contains(msg.Content, `"ok"`) {
			metaSet = true
		}
		if strings.Contains(msg.Content, "slide_count") && !strings.Contains(msg.Content, "finished") {
			added++
		}
	}
	return added, metaSet
}

func assistantResponse(content string) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID: "mock",
		Choices: []Choice{{
			Message:      &ChatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
}

func toolCallResponse(id, name, arguments string) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID: "mock",
		Choices: []Choice{{
			Message: &ChatMessage{
				Role: "assistant",
				ToolCalls: []ToolCall{{
					ID:       id,
					Type:     "function",
					Function: ToolCallFunction{Name: name, Arguments: arguments},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}
}
