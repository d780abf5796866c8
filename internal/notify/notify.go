// Package notify delivers operator notifications over a shell command
// and Slack. Both channels are best-effort: failures are logged, never
// returned.
package notify

import (
	"context"
	"log"
	"os/exec"
	"strings"

	slackapi "github.com/slack-go/slack"
)

// Config selects the delivery channels. Empty fields disable a channel.
type Config struct {
	Command      string // shell command template, e.g. "notify-send slidegen '{{.Subject}}'"
	SlackToken   string // xoxb-... bot token
	SlackChannel string // channel ID to post to
}

// slackClient abstracts the Slack API method we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier fans a message out to every configured channel.
type Notifier struct {
	cfg   Config
	slack slackClient
}

// New builds a Notifier. The Slack client is only created when both the
// token and the channel are configured.
func New(cfg Config) *Notifier {
	n := &Notifier{cfg: cfg}
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		n.slack = slackapi.New(cfg.SlackToken)
	}
	return n
}

// Send delivers subject and body over every configured channel. Safe on a
// nil receiver.
func (n *Notifier) Send(ctx context.Context, subject, body string) {
	if n == nil {
		return
	}

	if n.cfg.Command != "" {
		cmdStr := templateCommand(n.cfg.Command, subject, body)
		cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
		if out, err := cmd.CombinedOutput(); err != nil {
			log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
	}

	if n.slack != nil {
		_, _, err := n.slack.PostMessageContext(ctx, n.cfg.SlackChannel,
			slackapi.MsgOptionText(subject, false),
			slackapi.MsgOptionAttachments(slackapi.Attachment{
				Text:     body,
				Fallback: subject,
			}),
		)
		if err != nil {
			log.Printf("notify: slack post: %v", err)
		}
	}
}

// templateCommand replaces placeholders in the command template.
func templateCommand(command, subject, body string) string {
	r := strings.NewReplacer(
		"{{.Subject}}", subject,
		"{{.Body}}", body,
	)
	return r.Replace(command)
}
