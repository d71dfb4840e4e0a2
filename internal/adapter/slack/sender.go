package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const maxResponseBody = 64 << 10

// Sender posts payloads to a single incoming-webhook URL.
type Sender struct {
	endpoint *url.URL // incoming_url with the token query merged in
	display  string   // incoming_url without the token, for logs
	client   *http.Client
	logger   *slog.Logger
}

// NewSender parses incomingURL and attaches token as the `token` query parameter.
func NewSender(incomingURL, token string, client *http.Client, logger *slog.Logger) (*Sender, error) {
	u, err := url.Parse(incomingURL)
	if err != nil {
		return nil, fmt.Errorf("parse incoming url: %w", err)
	}
	// The query and userinfo may carry credentials of their own.
	d := *u
	d.User = nil
	d.RawQuery = ""
	display := d.String()

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{endpoint: u, display: display, client: client, logger: logger}, nil
}

// Send POSTs payload once and returns the response status code. A non-200
// status is not an error; only encoding and transport failures are.
func (s *Sender) Send(ctx context.Context, p Payload) (int, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	s.logger.Debug("sending payload", "url", s.display, "length", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return 0, fmt.Errorf("post to %s: %w", s.display, err)
	}
	defer resp.Body.Close()

	s.logger.Info("sent payload", "status", resp.StatusCode)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		s.logger.Debug("response body", "body", string(respBody))
	}

	return resp.StatusCode, nil
}
