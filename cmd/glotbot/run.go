package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/awfukui/glotbot/internal/bot"
	"github.com/awfukui/glotbot/internal/config"
	"github.com/awfukui/glotbot/internal/inference/openai"
	"github.com/awfukui/glotbot/internal/language"
	"github.com/awfukui/glotbot/internal/platform/discord"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the translation bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("config.Load() > %w", err)
			}
			return runBot(cmd, cfg)
		},
	}
}

func runBot(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	if cfg.LLM.APIKey == "" {
		slog.Warn("No LLM API key is configured. Translation requests will be rejected")
	}

	client := discord.NewClient(cfg.Bot.Token, cfg.Discord.APIBaseURL)
	defer func() {
		_ = client.Close()
	}()
	poller := discord.NewPoller(client, discord.PollerConfig{
		ChannelIDs:   cfg.Translation.ChannelIDs,
		GuildID:      cfg.Bot.GuildID,
		Interval:     time.Duration(cfg.Discord.PollIntervalSeconds) * time.Second,
		TriggerEmoji: bot.TriggerEmoji,
	})

	provider := openai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.RetryAttempts)
	defer func() {
		_ = provider.Close()
	}()

	filter := bot.NewFilter(bot.FilterConfig{
		GuildID:          cfg.Bot.GuildID,
		ChannelIDs:       cfg.Translation.ChannelIDs,
		MinMessageLength: cfg.Translation.MinMessageLength,
		CommandPrefix:    cfg.Bot.Prefix,
	})
	orchestrator := bot.NewOrchestrator(
		client,
		provider,
		language.NewPreferenceStore(),
		filter,
		bot.OrchestratorConfig{
			CommandPrefix:      cfg.Bot.Prefix,
			MinMessageLength:   cfg.Translation.MinMessageLength,
			ProviderConfigured: cfg.LLM.APIKey != "",
			ProviderTimeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
	)
	dispatcher := bot.NewDispatcher(orchestrator)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting the translation bot", "model", cfg.LLM.Model)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return poller.Run(ctx)
	})
	group.Go(func() error {
		dispatcher.Run(ctx, poller.Events())
		return nil
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("group.Wait() > %w", err)
	}
	slog.Info("Shut down")
	return nil
}
