// Package slack implements a send-only adapter for Slack's legacy
// incoming-webhook API. It has no inbound listener.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"slackhook/internal/config"
	"slackhook/internal/domain"
	"slackhook/internal/robot"
)

const (
	adapterName = "slack"

	defaultURLTemplate = "https://%s.slack.com/services/hooks/incoming-webhook"
)

func init() {
	robot.MustRegisterAdapter(adapterName, func(h robot.Handle) (domain.Adapter, error) {
		return New(h.Config().Adapters.Slack, Options{
			Logger:     h.Logger(),
			HTTPClient: h.HTTPClient(),
			Recorder:   h.Recorder(),
		})
	})
}

// DefaultIncomingURL returns the webhook URL for a team domain.
func DefaultIncomingURL(teamDomain string) string {
	return fmt.Sprintf(defaultURLTemplate, teamDomain)
}

// Options carries the adapter's collaborators.
type Options struct {
	Logger     *slog.Logger
	HTTPClient *http.Client
	Recorder   domain.DeliveryRecorder
}

// Adapter implements domain.Adapter over an incoming webhook.
type Adapter struct {
	cfg      config.SlackConfig
	sender   *Sender
	logger   *slog.Logger
	recorder domain.DeliveryRecorder

	stopOnce sync.Once
}

// New creates the adapter. incoming_url defaults to the team-domain hook URL.
func New(cfg config.SlackConfig, opts Options) (*Adapter, error) {
	if cfg.IncomingToken == "" {
		return nil, fmt.Errorf("slack: incoming_token is required")
	}
	if cfg.TeamDomain == "" {
		return nil, fmt.Errorf("slack: team_domain is required")
	}
	if cfg.IncomingURL == "" {
		cfg.IncomingURL = DefaultIncomingURL(cfg.TeamDomain)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("adapter", adapterName)

	sender, err := NewSender(cfg.IncomingURL, cfg.IncomingToken, opts.HTTPClient, logger)
	if err != nil {
		return nil, fmt.Errorf("slack: %w", err)
	}

	a := &Adapter{
		cfg:      cfg,
		sender:   sender,
		logger:   logger,
		recorder: opts.Recorder,
	}
	logger.Debug("slack adapter initialized", "team_domain", cfg.TeamDomain, "add_mention", cfg.AddMention)
	return a, nil
}

func (a *Adapter) Name() string { return adapterName }

// IncomingURL returns the resolved webhook URL without the token.
func (a *Adapter) IncomingURL() string { return a.cfg.IncomingURL }

// Run blocks until ctx is done; the webhook is push-only so there is
// nothing to listen on.
func (a *Adapter) Run(ctx context.Context) error {
	a.logger.Debug("slack run started")
	<-ctx.Done()
	return a.ShutDown()
}

// ShutDown releases nothing; it exists for the robot lifecycle.
func (a *Adapter) ShutDown() error {
	a.stopOnce.Do(func() {
		a.logger.Debug("slack adapter shut down")
	})
	return nil
}

// SendMessages posts lines to dest as a single message. A non-200 response
// is logged, not returned; transport failures are returned.
func (a *Adapter) SendMessages(ctx context.Context, dest domain.Destination, lines []string) error {
	payload := BuildPayload(dest, lines, a.cfg, a.logger)

	start := time.Now()
	status, err := a.sender.Send(ctx, payload)
	a.record(ctx, payload, status, time.Since(start), err)

	if err != nil {
		a.logger.Error("slack send failed", "channel", payload.Channel, "err", err)
		return err
	}
	if status != http.StatusOK {
		a.logger.Error("slack failed to send", "status", status, "channel", payload.Channel)
	}
	return nil
}

// SetTopic is not supported by incoming webhooks.
func (a *Adapter) SetTopic(ctx context.Context, dest domain.Destination, topic string) error {
	a.logger.Info("slack set_topic has no implementation", "room", dest.Room)
	return nil
}

func (a *Adapter) record(ctx context.Context, p Payload, status int, elapsed time.Duration, err error) {
	if a.recorder == nil {
		return
	}
	d := domain.Delivery{
		Adapter:    adapterName,
		Channel:    p.Channel,
		StatusCode: status,
		Bytes:      p.Len(),
		Duration:   elapsed,
		Timestamp:  time.Now(),
	}
	if err != nil {
		d.Error = err.Error()
	}
	a.recorder.RecordDelivery(ctx, d)
}
