package slides

import (
	"encoding/json"
	"fmt"
)

// Tool names the model may call during drafting.
const (
	toolAddSlide    = "add_slide"
	toolSetDeckMeta = "set_deck_meta"
	toolFinishDeck  = "finish_deck"
)

// deckTools declares the drafting tool set.
func deckTools() []Tool {
	return []Tool{
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolAddSlide,
				Description: "Append one slide to the deck.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title": map[string]interface{}{
							"type":        "string",
							"description": "Slide title",
						},
						"bullets": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Bullet points, in order",
						},
						"notes": map[string]interface{}{
							"type":        "string",
							"description": "Optional speaker notes",
						},
					},
					"required": []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolSetDeckMeta,
				Description: "Set the deck title, subtitle, and theme. Call once, before finishing.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":    map[string]interface{}{"type": "string"},
						"subtitle": map[string]interface{}{"type": "string"},
						"theme":    map[string]interface{}{"type": "string"},
					},
					"required": []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolFinishDeck,
				Description: "Declare the deck complete. Call after the last add_slide.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
		},
	}
}

// execTool applies one tool call to the deck under construction. It
// returns the JSON result the model sees, and done=true for finish_deck.
func execTool(deck *Deck, call ToolCall) (result string, done bool, err error) {
	switch call.Function.Name {
	case toolAddSlide:
		var args struct {
			Title   string   `json:"title"`
			Bullets []string `json:"bullets"`
			Notes   string   `json:"notes"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", false, fmt.Errorf("add_slide arguments: %w", err)
		}
		if args.Title == "" {
			return "", false, fmt.Errorf("add_slide: title is required")
		}
		if len(deck.Slides) >= MaxSlides {
			return "", false, fmt.Errorf("add_slide: deck already has %d slides", MaxSlides)
		}
		deck.Slides = append(deck.Slides, Slide{Title: args.Title, Bullets: args.Bullets, Notes: args.Notes})
		return fmt.Sprintf(`{"slide_count": %d}`, len(deck.Slides)), false, nil

	case toolSetDeckMeta:
		var args struct {
			Title    string `json:"title"`
			Subtitle string `json:"subtitle"`
			Theme    string `json:"theme"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", false, fmt.Errorf("set_deck_meta arguments: %w", err)
		}
		if args.Title != "" {
			deck.Title = args.Title
		}
		if args.Subtitle != "" {
			deck.Subtitle = args.Subtitle
		}
		if args.Theme != "" {
			deck.Theme = args.Theme
		}
		return `{"ok": true}`, false, nil

	case toolFinishDeck:
		return fmt.Sprintf(`{"finished": true, "slide_count": %d}`, len(deck.Slides)), true, nil

	default:
		return "", false, fmt.Errorf("unknown tool %q", call.Function.Name)
	}
}

// textPayload wraps assistant text as an event payload.
func textPayload(text string) string {
	data, _ := json.Marshal(map[string]string{"text": text})
	return string(data)
}

// toolCallPayload records a tool invocation as an event payload.
func toolCallPayload(call ToolCall) string {
	data, _ := json.Marshal(map[string]string{
		"id":        call.ID,
		"name":      call.Function.Name,
		"arguments": call.Function.Arguments,
	})
	return string(data)
}

// toolResultPayload records a tool outcome as an event payload.
func toolResultPayload(call ToolCall, result string) string {
	data, _ := json.Marshal(map[string]string{
		"id":     call.ID,
		"name":   call.Function.Name,
		"result": result,
	})
	return string(data)
}
