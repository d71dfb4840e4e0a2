package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Name:     "slackhook",
			Adapter:  "slack",
			LogLevel: "info",
		},
		Adapters: AdaptersConfig{
			Slack: SlackConfig{
				AddMention: false,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
		},
		Journal: JournalConfig{
			Enabled:       false,
			DBPath:        "~/.slackhook/journal.db",
			RetentionDays: 30,
		},
	}
}

// Template returns the config written by `slackhook init`. Secrets are
// referenced through environment variables and resolved by Load.
func Template() *Config {
	cfg := Defaults()
	cfg.Adapters.Slack.IncomingToken = "${SLACK_INCOMING_TOKEN}"
	cfg.Adapters.Slack.TeamDomain = "${SLACK_TEAM_DOMAIN}"
	return cfg
}
