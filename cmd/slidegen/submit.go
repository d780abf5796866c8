package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type submitPayload struct {
	Topic      string `json:"topic"`
	Audience   string `json:"audience,omitempty"`
	Style      string `json:"style,omitempty"`
	SlideCount int    `json:"slide_count,omitempty"`
}

func newSubmitCmd() *cobra.Command {
	var (
		server  string
		session string
		payload submitPayload
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a slide generation request",
		Long:  "Submits a request to a running slidegen service and prints the request ID. Generation happens in the background; use poll to follow it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, server, session, payload)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "slidegen server URL")
	cmd.Flags().StringVarP(&session, "session", "s", "", "session ID (required)")
	cmd.Flags().StringVarP(&payload.Topic, "topic", "t", "", "deck topic (required)")
	cmd.Flags().StringVar(&payload.Audience, "audience", "", "target audience")
	cmd.Flags().StringVar(&payload.Style, "style", "", "visual style or theme")
	cmd.Flags().IntVar(&payload.SlideCount, "slides", 0, "number of slides (default 8)")
	return cmd
}

func runSubmit(cmd *cobra.Command, server, session string, payload submitPayload) error {
	if session == "" {
		return fmt.Errorf("--session is required")
	}
	if payload.Topic == "" {
		return fmt.Errorf("--topic is required")
	}

	var resp struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	}
	client := newAPIClient(server)
	if err := client.postJSON("/api/requests", map[string]interface{}{
		"session_id": session,
		"payload":    payload,
	}, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Accepted: %s (status %s)\n", resp.RequestID, resp.Status)
	fmt.Fprintf(out, "Follow it with: slidegen poll %s --watch\n", resp.RequestID)
	return nil
}
