package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "slackhook/internal/adapter/slack"
	"slackhook/internal/config"
	"slackhook/internal/domain"
	"slackhook/internal/journal"
	"slackhook/internal/metrics"
	"slackhook/internal/robot"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:           "slackhook",
		Short:         "slackhook: Slack incoming-webhook bot adapter",
		Long:          "slackhook delivers bot messages through Slack's legacy incoming-webhook API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.slackhook/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(topicCmd())
	root.AddCommand(adaptersCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger from general.log_level/log_file.
// The returned closer releases the log file, if any.
func newLogger(cfg config.GeneralConfig) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	l := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	return l.With("robot", cfg.Name), closer, nil
}

// app bundles the robot with the optional journal for a command's lifetime.
type app struct {
	cfg     *config.Config
	robot   *robot.Robot
	journal *journal.Journal
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func loadApp() (*app, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	l, logCloser, err := newLogger(cfg.General)
	if err != nil {
		return nil, err
	}
	logger = l
	a := &app{cfg: cfg, closers: []io.Closer{logCloser}}

	var recorders []domain.DeliveryRecorder
	if cfg.Metrics.Enabled {
		recorders = append(recorders, metrics.Recorder{})
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.DBPath, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("journal: %w", err)
		}
		a.journal = j
		a.closers = append(a.closers, j)
		recorders = append(recorders, j)
	}

	r, err := robot.New(cfg, robot.Options{Logger: logger, Recorders: recorders})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.robot = r
	return a, nil
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(config.ExpandPath(cfgPath)); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
			}
			if err := config.Save(cfgPath, config.Template()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the adapter until interrupted",
		Long:  "Starts the robot. The webhook adapter is push-only, so run idles until Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Metrics.Enabled {
				if _, err := metrics.Start(ctx, a.cfg.Metrics.Listen, logger); err != nil {
					return err
				}
			}
			if a.journal != nil {
				cutoff := time.Now().AddDate(0, 0, -a.cfg.Journal.RetentionDays)
				if _, err := a.journal.Prune(ctx, cutoff); err != nil {
					logger.Warn("journal prune failed", "err", err)
				}
			}

			return a.robot.Run(ctx)
		},
	}
}

func destinationFlags(cmd *cobra.Command, dest *domain.Destination, user *domain.User, icon *string) {
	cmd.Flags().StringVarP(&dest.Room, "room", "r", "", "channel to post to (default: the webhook's channel)")
	cmd.Flags().StringVarP(&user.Name, "user", "u", "", "display name to post as")
	cmd.Flags().StringVar(&user.ID, "user-id", "", "user ID to mention when add_mention is enabled")
	cmd.Flags().StringVar(icon, "icon-url", "", "avatar URL")
}

func buildDestination(dest domain.Destination, user domain.User, icon string) domain.Destination {
	if icon != "" {
		user.Metadata = map[string]string{domain.MetadataIconURL: icon}
	}
	if user.ID != "" || user.Name != "" || user.Metadata != nil {
		dest.User = &user
	}
	return dest
}

func sendCmd() *cobra.Command {
	var (
		dest      domain.Destination
		user      domain.User
		icon      string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "send [lines...]",
		Short: "Send a message (each argument is one line)",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := args
			if fromStdin || len(lines) == 0 {
				read, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				lines = append(lines, read...)
			}
			if len(lines) == 0 {
				return fmt.Errorf("nothing to send")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.robot.SendMessages(ctx, buildDestination(dest, user, icon), lines...)
		},
	}
	destinationFlags(cmd, &dest, &user, &icon)
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "append lines read from stdin")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func topicCmd() *cobra.Command {
	var room string
	cmd := &cobra.Command{
		Use:   "topic [topic]",
		Short: "Set a room topic (not supported by incoming webhooks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.robot.SetTopic(cmd.Context(), domain.Destination{Room: room}, args[0])
		},
	}
	cmd.Flags().StringVarP(&room, "room", "r", "", "room whose topic to set")
	return cmd
}

func adaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapters",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range robot.RegisteredAdapters() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deliveries from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled (set journal.enabled=true)")
			}
			j, err := journal.Open(cfg.Journal.DBPath, logger)
			if err != nil {
				return err
			}
			defer j.Close()

			deliveries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range deliveries {
				channel := d.Channel
				if channel == "" {
					channel = "(default)"
				}
				status := fmt.Sprint(d.StatusCode)
				if d.Error != "" {
					status = "error: " + d.Error
				}
				fmt.Fprintf(out, "%s  %-6s %-20s %6dB %6dms  %s\n",
					d.Timestamp.Local().Format(time.DateTime), d.Adapter, channel, d.Bytes, d.Duration.Milliseconds(), status)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of deliveries to show")
	return cmd
}
