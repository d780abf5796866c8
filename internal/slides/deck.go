package slides

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Deck size limits.
const (
	MinSlides         = 1
	MaxSlides         = 30
	DefaultSlideCount = 8
)

// Request is the payload a caller submits for one deck.
type Request struct {
	Topic      string `json:"topic"`
	Audience   string `json:"audience,omitempty"`
	Style      string `json:"style,omitempty"`
	SlideCount int    `json:"slide_count,omitempty"`
}

// ParseRequest decodes and validates a submitted payload.
func ParseRequest(payload string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, fmt.Errorf("slides: parse payload: %w", err)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("slides: topic is required")
	}
	if req.SlideCount == 0 {
		req.SlideCount = DefaultSlideCount
	}
	if req.SlideCount < MinSlides || req.SlideCount > MaxSlides {
		return nil, fmt.Errorf("slides: slide_count %d out of range [%d, %d]", req.SlideCount, MinSlides, MaxSlides)
	}
	return &req, nil
}

// Slide is one generated slide.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Deck is the assembled generation result. Its JSON form is what gets
// stored as the request's result.
type Deck struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Theme    string  `json:"theme,omitempty"`
	Slides   []Slide `json:"slides"`
}

// Validate checks the assembled deck before it becomes a result.
func (d *Deck) Validate() error {
	var errs []string
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, "deck title is empty")
	}
	if len(d.Slides) == 0 {
		errs = append(errs, "deck has no slides")
	}
	if len(d.Slides) > MaxSlides {
		errs = append(errs, fmt.Sprintf("deck has %d slides, max %d", len(d.Slides), MaxSlides))
	}
	for i, s := range d.Slides {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, fmt.Sprintf("slides[%d] has no title", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("slides: invalid deck: %s", strings.Join(errs, "; "))
	}
	return nil
}

// JSON serializes the deck for storage.
func (d *Deck) JSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("slides: marshal deck: %w", err)
	}
	return string(data), nil
}
