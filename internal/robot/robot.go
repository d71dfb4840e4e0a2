// Package robot is the host side of the bot: it owns configuration, logging
// and delivery observers, and drives a registered adapter through its
// lifecycle.
package robot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"slackhook/internal/config"
	"slackhook/internal/domain"
)

// Handle is what an adapter constructor receives from the robot.
type Handle interface {
	Name() string
	Config() *config.Config
	Logger() *slog.Logger
	HTTPClient() *http.Client
	Recorder() domain.DeliveryRecorder
}

// Options configures a Robot.
type Options struct {
	Logger     *slog.Logger
	HTTPClient *http.Client              // nil means http.DefaultClient
	Recorders  []domain.DeliveryRecorder // metrics, journal
}

// Robot drives a single adapter.
type Robot struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpClient *http.Client
	recorder   domain.DeliveryRecorder
	adapter    domain.Adapter
}

// New creates a robot and builds the adapter named by general.adapter.
func New(cfg *config.Config, opts Options) (*Robot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("robot: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	r := &Robot{
		cfg:        cfg,
		logger:     logger,
		httpClient: client,
		recorder:   MultiRecorder(opts.Recorders...),
	}

	adapter, err := BuildAdapter(cfg.General.Adapter, r)
	if err != nil {
		return nil, fmt.Errorf("build adapter: %w", err)
	}
	r.adapter = adapter
	logger.Debug("robot initialized", "name", r.Name(), "adapter", adapter.Name())
	return r, nil
}

func (r *Robot) Name() string {
	if r.cfg.General.Name == "" {
		return "slackhook"
	}
	return r.cfg.General.Name
}

func (r *Robot) Config() *config.Config { return r.cfg }
func (r *Robot) Logger() *slog.Logger { return r.logger }
func (r *Robot) HTTPClient() *http.Client { return r.httpClient }
func (r *Robot) Recorder() domain.DeliveryRecorder { return r.recorder }
func (r *Robot) Adapter() domain.Adapter { return r.adapter }

// SendMessages delivers lines to dest through the adapter.
func (r *Robot) SendMessages(ctx context.Context, dest domain.Destination, lines ...string) error {
	return r.adapter.SendMessages(ctx, dest, lines)
}

// SetTopic asks the adapter to change the room topic.
func (r *Robot) SetTopic(ctx context.Context, dest domain.Destination, topic string) error {
	return r.adapter.SetTopic(ctx, dest, topic)
}

// Run blocks in the adapter's run loop until ctx is cancelled.
func (r *Robot) Run(ctx context.Context) error {
	r.logger.Info("robot running", "name", r.Name(), "adapter", r.adapter.Name())
	err := r.adapter.Run(ctx)
	r.logger.Info("robot stopped", "name", r.Name())
	return err
}

// ShutDown stops the adapter outside of Run.
func (r *Robot) ShutDown() error {
	return r.adapter.ShutDown()
}
