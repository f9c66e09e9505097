// Package config loads and persists the service's YAML configuration: the
// command prefix, logging, detection tuning, the watch-directory daemon,
// and per-channel image-intake credentials.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Prefix       string         `yaml:"prefix"`
	LogLevel     string         `yaml:"loglevel"`
	LogFile      string         `yaml:"logfile"`
	ScanHistory  string         `yaml:"scan_history_db"`
	Detect       DetectConfig   `yaml:"detect"`
	Watch        WatchConfig    `yaml:"watch"`
	Channels     ChannelConfigs `yaml:"channels"`
}

// DetectConfig tunes the adaptive-threshold step ahead of the detection
// core; the core itself (§4 of the spec) has no tunable parameters.
type DetectConfig struct {
	GaussianSigma float64 `yaml:"gaussian_sigma"`
	DiffThreshold int     `yaml:"diff_threshold"`
	Dedup         bool    `yaml:"dedup"`
}

// WatchConfig configures the `qrscan watch` directory-poll daemon.
type WatchConfig struct {
	Dir        string `yaml:"dir"`
	PollEvery  string `yaml:"poll_every"`
	SettleTime string `yaml:"settle_time"`
}

type ChannelConfigs struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Slack    SlackConfig    `yaml:"slack"`
	Feishu   FeishuConfig   `yaml:"feishu"`
	DingTalk DingTalkConfig `yaml:"dingtalk"`
	QQ       QQConfig       `yaml:"qq"`
}

type TelegramConfig struct {
	Token     string   `yaml:"token"`
	AllowFrom []string `yaml:"allow_from"`
}

type DiscordConfig struct {
	Token     string   `yaml:"token"`
	AllowFrom []string `yaml:"allow_from"`
}

type SlackConfig struct {
	BotToken  string   `yaml:"bot_token"`
	AppToken  string   `yaml:"app_token"`
	AllowFrom []string `yaml:"allow_from"`
}

type FeishuConfig struct {
	AppID     string `yaml:"app_id"`
	AppSecret string `yaml:"app_secret"`
}

type DingTalkConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type QQConfig struct {
	AppID     string   `yaml:"app_id"`
	Secret    string   `yaml:"secret"`
	AllowFrom []string `yaml:"allow_from"`
}

// Defaults returns a Config populated with all default values.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Prefix:      "#",
		LogLevel:    "warn",
		LogFile:     "./qrscan.log",
		ScanHistory: "",
		Detect: DetectConfig{
			GaussianSigma: 20.0,
			DiffThreshold: 0,
			Dedup:         true,
		},
		Watch: WatchConfig{
			PollEvery:  "2s",
			SettleTime: "1s",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path in YAML format, creating parent directories as needed.
// It is called on startup to persist any default values that were missing from
// the existing file.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
