package slack

import (
	"encoding/json"
	"log/slog"
	"strings"

	"slackhook/internal/config"
	"slackhook/internal/domain"
)

// Payload is the JSON body accepted by the incoming-webhook endpoint.
// Optional keys are dropped from the encoding when empty.
type Payload struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
	Text     string `json:"text"`
}

// BuildPayload maps a destination and message lines onto a webhook payload.
// Missing destination data only drops fields; it never fails.
func BuildPayload(dest domain.Destination, lines []string, cfg config.SlackConfig, logger *slog.Logger) Payload {
	var p Payload

	if dest.HasRoom() {
		p.Channel = dest.Room
	} else if logger != nil {
		logger.Warn("proceeding without channel designation")
	}

	p.Username = cfg.Username
	if dest.User != nil && dest.User.Name != "" {
		p.Username = dest.User.Name
	}
	p.IconURL = dest.User.IconURL()

	p.Text = strings.Join(lines, "\n")
	if cfg.AddMention && dest.User != nil && dest.User.ID != "" {
		p.Text = mention(dest.User.ID) + " " + p.Text
	}

	return p
}

// mention formats a user ID as a Slack mention token.
func mention(userID string) string {
	return "<@" + userID + ">"
}

// Len returns the encoded size of p, for delivery records.
func (p Payload) Len() int {
	b, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return len(b)
}
