package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dfbb/qrscan/internal/channel"
	"github.com/dfbb/qrscan/internal/channel/dingtalk"
	"github.com/dfbb/qrscan/internal/channel/discord"
	"github.com/dfbb/qrscan/internal/channel/feishu"
	"github.com/dfbb/qrscan/internal/channel/qq"
	"github.com/dfbb/qrscan/internal/channel/slack"
	"github.com/dfbb/qrscan/internal/channel/telegram"
	"github.com/dfbb/qrscan/internal/config"
	"github.com/dfbb/qrscan/internal/prefs"
	"github.com/dfbb/qrscan/internal/qrdetect"
	"github.com/dfbb/qrscan/internal/router"
	"github.com/dfbb/qrscan/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the IM channel adapters as a long-lived scan bot",
	RunE:  runServe,
}

var (
	flagServePrefix   string
	flagServeChannels []string
)

func init() {
	serveCmd.Flags().StringVar(&flagServePrefix, "prefix", "", "bot command prefix (overrides config)")
	serveCmd.Flags().StringSliceVar(&flagServeChannels, "channels", nil, "channels to enable (e.g. telegram,slack)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Defaults()
	}

	if err := setupLogging(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	slog.Info("qrscan serve starting", "loglevel", cfg.LogLevel, "logfile", cfg.LogFile)

	prefix := cfg.Prefix
	if flagServePrefix != "" {
		prefix = flagServePrefix
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("determining home directory: %w", err)
	}
	dataDir := home + "/.qrscan"
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// Write back the merged config so any fields that were absent (or the file
	// itself if it did not exist) are initialised with their default values.
	if err := config.Save(configPath(), cfg); err != nil {
		slog.Warn("could not persist config defaults", "err", err)
	}

	p, err := prefs.New(dataDir + "/prefs.json")
	if err != nil {
		return fmt.Errorf("loading chat preferences: %w", err)
	}

	histDBPath := cfg.ScanHistory
	if histDBPath == "" {
		histDBPath = dataDir + "/scan_history.db"
	}
	st, err := store.New(histDBPath)
	if err != nil {
		return fmt.Errorf("opening scan history db: %w", err)
	}
	defer st.Close()

	inbound := make(chan channel.InboundMessage, 64)
	outbound := make(chan channel.OutboundMessage, 64)
	mgr := channel.NewManager(inbound, outbound)

	enabled := func(name string) bool {
		if len(flagServeChannels) == 0 {
			return true
		}
		for _, c := range flagServeChannels {
			if c == name {
				return true
			}
		}
		return false
	}

	if enabled("telegram") && cfg.Channels.Telegram.Token != "" {
		mgr.Register(telegram.New(cfg.Channels.Telegram.Token, cfg.Channels.Telegram.AllowFrom, nil, inbound))
	}
	if enabled("discord") && cfg.Channels.Discord.Token != "" {
		mgr.Register(discord.New(cfg.Channels.Discord.Token, cfg.Channels.Discord.AllowFrom, inbound))
	}
	if enabled("slack") && cfg.Channels.Slack.BotToken != "" {
		mgr.Register(slack.New(cfg.Channels.Slack.BotToken, cfg.Channels.Slack.AppToken, cfg.Channels.Slack.AllowFrom, inbound))
	}
	if enabled("feishu") && cfg.Channels.Feishu.AppID != "" {
		mgr.Register(feishu.New(cfg.Channels.Feishu.AppID, cfg.Channels.Feishu.AppSecret, nil, inbound))
	}
	if enabled("dingtalk") && cfg.Channels.DingTalk.ClientID != "" {
		mgr.Register(dingtalk.New(cfg.Channels.DingTalk.ClientID, cfg.Channels.DingTalk.ClientSecret, nil, inbound))
	}
	if enabled("qq") && cfg.Channels.QQ.AppID != "" && cfg.Channels.QQ.Secret != "" {
		mgr.Register(qq.New(cfg.Channels.QQ.AppID, cfg.Channels.QQ.Secret, cfg.Channels.QQ.AllowFrom, inbound))
	}

	cfgFile := configPath()
	onActivate := func(ch, senderID string) {
		err := updateConfig(cfgFile, func(raw map[string]any) {
			chanMap := getOrCreateMap(getOrCreateMap(raw, "channels"), ch)
			existing, _ := chanMap["allow_from"].([]any)
			chanMap["allow_from"] = append(existing, senderID)
		})
		if err != nil {
			slog.Error("failed to persist activated user to config", "channel", ch, "err", err)
		} else {
			slog.Info("activated user saved to config", "channel", ch, "senderID", senderID)
		}
	}

	opts := qrdetect.Options{
		GaussianSigma: cfg.Detect.GaussianSigma,
		DiffThreshold: uint8(cfg.Detect.DiffThreshold),
		Dedup:         cfg.Detect.Dedup,
	}
	rtr := router.New(prefix, p, st, opts, outbound, onActivate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case msg := <-inbound:
						rtr.Handle(msg)
					default:
						return
					}
				}
			case msg := <-inbound:
				rtr.Handle(msg)
			}
		}
	}()

	slog.Info("qrscan serve started", "prefix", prefix)
	mgr.Run(ctx)
	slog.Info("qrscan serve stopped")
	return nil
}

// setupLogging configures the default slog handler to write to logFile at the
// given level. Relative paths are resolved relative to the executable's directory.
func setupLogging(level, logFile string) error {
	logPath := logFile
	if !filepath.IsAbs(logPath) {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}
		logPath = filepath.Join(filepath.Dir(execPath), filepath.Base(logFile))
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}

	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
	return nil
}
