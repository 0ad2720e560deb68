package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/messaging"
)

// SlackAdapter posts coaching events to a Slack incoming webhook.
type SlackAdapter struct {
	config messaging.AdapterConfig
	client *http.Client
}

// NewSlackAdapter creates a Slack adapter from config.
func NewSlackAdapter(config messaging.AdapterConfig) *SlackAdapter {
	return &SlackAdapter{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *SlackAdapter) Name() string { return a.config.Name }
func (a *SlackAdapter) Type() string { return "slack" }

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func (a *SlackAdapter) Send(ctx context.Context, event events.Envelope) error {
	body, err := json.Marshal(buildSlackMessage(event))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

// buildSlackMessage renders one section with the event summary and, when
// the event concerns a stored document, a context line naming it.
func buildSlackMessage(event events.Envelope) slackMessage {
	text := slackSummary(event)
	msg := slackMessage{
		Text:   text,
		Blocks: []slackBlock{{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}}},
	}
	if id := event.AggregateID(); id != "" {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "document `" + id + "`"}},
		})
	}
	return msg
}

func slackSummary(event events.Envelope) string {
	switch e := event.(type) {
	case *events.FeedbackReady:
		return fmt.Sprintf(":memo: *Feedback ready* score %.1f/10, %d quoted improvements", e.Score, e.QuoteCount)
	case *events.FeedbackFailed:
		return fmt.Sprintf(":warning: *Feedback failed* %s", e.Reason)
	case *events.DraftReady:
		return fmt.Sprintf(":pencil2: *Draft ready* +%d / -%d characters", e.Additions, e.Deletions)
	case *events.DraftFailed:
		return fmt.Sprintf(":warning: *Draft failed* %s", e.Reason)
	case *events.DocumentSaved:
		return fmt.Sprintf(":floppy_disk: *Saved* version %d", e.Version)
	default:
		return "essaycoach event: " + event.EventType()
	}
}
