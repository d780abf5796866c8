package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
)

func newPollCmd() *cobra.Command {
	var (
		server   string
		after    int
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "poll <request-id>",
		Short: "Poll a request's status and events",
		Long:  "Reads a request's status and any events past the cursor. With --watch, keeps polling until the request reaches a terminal state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(cmd, server, args[0], after, watch, interval)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "slidegen server URL")
	cmd.Flags().IntVar(&after, "after", 0, "event cursor: only events with a greater sequence are shown")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling until the request finishes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval with --watch")
	return cmd
}

type pollResponse struct {
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`
	Events    []pollEvent     `json:"events"`
	NextAfter int             `json:"next_after"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
}

type pollEvent struct {
	Seq     int             `json:"seq"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func runPoll(cmd *cobra.Command, server, requestID string, after int, watch bool, interval time.Duration) error {
	out := cmd.OutOrStdout()
	client := newAPIClient(server)

	for {
		var resp pollResponse
		path := fmt.Sprintf("/api/requests/%s?after=%d", requestID, after)
		if err := client.getJSON(path, &resp); err != nil {
			return err
		}

		for _, ev := range resp.Events {
			fmt.Fprintf(out, "[%d] %s %s\n", ev.Seq, ev.Kind, string(ev.Payload))
		}
		after = resp.NextAfter

		switch resp.Status {
		case models.StatusCompleted:
			fmt.Fprintf(out, "Request %s completed.\n", requestID)
			if len(resp.Result) > 0 && string(resp.Result) != "null" {
				fmt.Fprintln(out, string(resp.Result))
			}
			return nil
		case models.StatusFailed:
			return fmt.Errorf("request %s failed: %s", requestID, resp.Error)
		}

		if !watch {
			fmt.Fprintf(out, "Request %s is %s (resume with --after %d)\n", requestID, resp.Status, after)
			return nil
		}
		time.Sleep(interval)
	}
}
