package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - new report
	ColorGreen  = 65280    // #00FF00 - resolved
	ColorOrange = 16753920 // #FFA500 - verified, rescue under way

	Username = "RapidAid"
	Footer   = "RapidAid relief coordination"

	httpTimeout = 10 * time.Second
)

func discordColor(event string) int {
	switch event {
	case EventIncidentReported:
		return ColorRed
	case EventIncidentResolved:
		return ColorGreen
	default:
		return ColorOrange
	}
}

func slackColor(event string) string {
	switch event {
	case EventIncidentReported:
		return "danger"
	case EventIncidentResolved:
		return "good"
	default:
		return "warning"
	}
}

type DiscordWebhook struct {
	url    string
	client *http.Client
}

func NewDiscordWebhook(url string) *DiscordWebhook {
	return &DiscordWebhook{url: url, client: &http.Client{Timeout: httpTimeout}}
}

func (w *DiscordWebhook) Channel() string {
	return types.ChannelDiscord
}

func (w *DiscordWebhook) Send(ctx context.Context, msg Message) error {
	fields := make([]DiscordWebhookField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, DiscordWebhookField{Name: f.Name, Value: f.Value, Inline: true})
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**" + msg.Subject + "**",
				Description: msg.Body,
				Color:       discordColor(msg.Event),
				Fields:      fields,
				Footer:      &DiscordFooter{Text: Footer},
				Timestamp:   time.Now().Format(time.RFC3339),
			},
		},
	}

	if err := postJSON(ctx, w.client, w.url, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

type SlackWebhook struct {
	url    string
	client *http.Client
}

func NewSlackWebhook(url string) *SlackWebhook {
	return &SlackWebhook{url: url, client: &http.Client{Timeout: httpTimeout}}
}

func (w *SlackWebhook) Channel() string {
	return types.ChannelSlack
}

func (w *SlackWebhook) Send(ctx context.Context, msg Message) error {
	fields := make([]SlackField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, SlackField{Title: f.Name, Value: f.Value, Short: true})
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":rotating_light:",
		Text:      "*" + msg.Subject + "*",
		Attachments: []SlackAttachment{
			{
				Color:     slackColor(msg.Event),
				Title:     msg.Subject,
				Text:      msg.Body,
				Fields:    fields,
				Footer:    Footer,
				Timestamp: time.Now().Unix(),
			},
		},
	}

	if err := postJSON(ctx, w.client, w.url, payload); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
