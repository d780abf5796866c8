package slides

import (
	"fmt"
	"strings"
)

// outlineSystemPrompt steers the first, tool-free completion that plans
// the deck.
const outlineSystemPrompt = `You are a presentation planner. Given a topic, produce a numbered outline for a slide deck: one line per slide, title plus a short note on its content. Output only the outline, no preamble.`

// draftSystemPrompt steers the tool-calling phase. The model builds the
// deck exclusively through tools and signals completion with finish_deck.
const draftSystemPrompt = `You are a presentation writer. Build the deck described by the outline using the provided tools, one slide at a time.

Rules:
- Call set_deck_meta once, early, to set the deck title.
- Call add_slide once per slide, in presentation order. Keep bullets short and concrete.
- When every slide from the outline has been added, call finish_deck. Do not stop before calling finish_deck.
- Do not output slide content as plain text; it only counts if it went through a tool.`

// outlineUserPrompt renders the outline request for a submission.
func outlineUserPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", req.Style)
	}
	fmt.Fprintf(&b, "Target length: %d slides.", req.SlideCount)
	return b.String()
}

// draftUserPrompt renders the drafting request, carrying the outline
// forward into the tool-calling phase.
func draftUserPrompt(req *Request, outline string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build a %d-slide deck on %q from this outline:\n\n%s", req.SlideCount, req.Topic, outline)
	if req.Audience != "" {
		fmt.Fprintf(&b, "\n\nAudience: %s", req.Audience)
	}
	return b.String()
}
