package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/awfukui/glotbot/internal/inference"
	"github.com/awfukui/glotbot/internal/language"
	"github.com/awfukui/glotbot/internal/platform"
)

// embedFieldCap is the platform's per-field display limit for embeds.
const embedFieldCap = 1024

// Orchestrator runs the reaction-triggered translation workflow. Each event
// handler is safe to call from its own goroutine: the only shared state is
// the preference store, which guards itself.
type Orchestrator struct {
	gateway     platform.Gateway
	provider    inference.Client
	preferences *language.PreferenceStore
	filter      *Filter
	config      OrchestratorConfig
}

// OrchestratorConfig carries the static knobs of the workflow.
type OrchestratorConfig struct {
	// CommandPrefix appears in embed footers pointing users at the
	// language command.
	CommandPrefix string
	// MinMessageLength mirrors the filter's threshold for the too-short
	// error path on the reaction side.
	MinMessageLength int
	// ProviderConfigured is false when no LLM credential is present; the
	// workflow then short-circuits before any provider call.
	ProviderConfigured bool
	// ProviderTimeout bounds each provider call.
	ProviderTimeout time.Duration
}

func NewOrchestrator(
	gateway platform.Gateway,
	provider inference.Client,
	preferences *language.PreferenceStore,
	filter *Filter,
	config OrchestratorConfig,
) *Orchestrator {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 60 * time.Second
	}
	return &Orchestrator{
		gateway:     gateway,
		provider:    provider,
		preferences: preferences,
		filter:      filter,
		config:      config,
	}
}

// HandleMessageCreate attaches the trigger emoji to eligible messages.
func (o *Orchestrator) HandleMessageCreate(ctx context.Context, event platform.MessageCreateEvent) {
	msg := event.Message
	if !o.filter.ShouldReactToMessage(msg) {
		return
	}

	if err := o.gateway.AddReaction(ctx, msg.ChannelID, msg.ID, TriggerEmoji); err != nil {
		if errors.Is(err, platform.ErrPermission) {
			slog.Default().Warn("Cannot add reaction - missing permissions",
				"channelID", msg.ChannelID)
			return
		}
		slog.Default().Error("Error adding reaction",
			"messageID", msg.ID,
			"error", err)
		return
	}
	slog.Default().Debug("Added translation reaction", "messageID", msg.ID)
}

// HandleReactionAdd runs the translation workflow for one reaction event.
// Every failure is handled here; nothing escapes to the event pipeline.
func (o *Orchestrator) HandleReactionAdd(ctx context.Context, event platform.ReactionAddEvent) {
	msg := event.Message

	switch o.filter.ShouldProcessReaction(event) {
	case DecisionIgnore:
		return
	case DecisionRemoveSilently:
		if err := o.gateway.RemoveUserReaction(ctx, msg.ChannelID, msg.ID, event.UserID, event.Emoji); err != nil {
			slog.Default().Warn("Cannot remove reaction",
				"messageID", msg.ID,
				"userID", event.UserID,
				"error", err)
		}
		return
	case DecisionProcess:
	}

	// Remove the reaction before calling the provider so the UI reflects
	// the accepted request and a repeated reaction can retrigger.
	if err := o.gateway.RemoveUserReaction(ctx, msg.ChannelID, msg.ID, event.UserID, event.Emoji); err != nil {
		slog.Default().Warn("Cannot remove reaction",
			"messageID", msg.ID,
			"userID", event.UserID,
			"error", err)
	}

	if len(strings.TrimSpace(msg.Content)) < o.config.MinMessageLength {
		o.sendErrorDM(ctx, event.UserID, "Message is too short to translate.")
		return
	}

	targetCode := o.preferences.Get(event.UserID)
	targetName := language.Name(targetCode)

	if !o.config.ProviderConfigured {
		o.sendErrorDM(ctx, event.UserID, "Translation service is not configured.")
		return
	}

	providerCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	translation, err := o.provider.Translate(providerCtx, inference.TranslateRequest{
		Text:       msg.Content,
		TargetCode: targetCode,
		TargetName: targetName,
	})
	if err != nil {
		slog.Default().Error("Translation error",
			"userID", event.UserID,
			"messageID", msg.ID,
			"error", err)
		o.sendErrorDM(ctx, event.UserID, "An error occurred while translating. Please try again later.")
		return
	}

	embed := o.buildTranslationEmbed(msg, translation, targetName)
	if err := o.gateway.SendDirectEmbed(ctx, event.UserID, embed); err != nil {
		if errors.Is(err, platform.ErrPermission) {
			slog.Default().Warn("Cannot send DM - DMs may be disabled", "userID", event.UserID)
			return
		}
		slog.Default().Error("Error sending translation DM",
			"userID", event.UserID,
			"error", err)
		return
	}

	slog.Default().Info("Translated message",
		"messageID", msg.ID,
		"userID", event.UserID,
		"targetLanguage", targetCode)
}

func (o *Orchestrator) buildTranslationEmbed(
	msg platform.Message,
	translation inference.TranslateResponse,
	targetName string,
) platform.Embed {
	return platform.Embed{
		Title:     "🌐 Message Translation",
		Color:     platform.ColorBlue,
		Timestamp: msg.Timestamp,
		Fields: []platform.EmbedField{
			{
				Name:  fmt.Sprintf("Original (%s)", translation.DetectedLanguage),
				Value: fmt.Sprintf("```%s```", truncate(msg.Content, embedFieldCap)),
			},
			{
				Name:  fmt.Sprintf("Translation (%s)", targetName),
				Value: fmt.Sprintf("```%s```", truncate(translation.TranslatedContent, embedFieldCap)),
			},
			{
				Name: "Message Info",
				Value: fmt.Sprintf("**Author:** <@%s>\n**Channel:** <#%s>\n**Confidence:** %s",
					msg.AuthorID, msg.ChannelID, translation.Confidence),
			},
		},
		Footer: fmt.Sprintf("Use %stranslate to change your target language • Powered by AI", o.config.CommandPrefix),
	}
}

// sendErrorDM delivers an error embed; failures here are logged and
// swallowed since there is no fallback channel.
func (o *Orchestrator) sendErrorDM(ctx context.Context, userID, errorMessage string) {
	embed := platform.Embed{
		Title:       "❌ Translation Error",
		Description: errorMessage,
		Color:       platform.ColorRed,
		Footer:      fmt.Sprintf("Use %stranslate to set up translation", o.config.CommandPrefix),
	}
	if err := o.gateway.SendDirectEmbed(ctx, userID, embed); err != nil {
		if errors.Is(err, platform.ErrPermission) {
			slog.Default().Warn("Cannot send error DM", "userID", userID)
			return
		}
		slog.Default().Error("Error sending error DM",
			"userID", userID,
			"error", err)
	}
}

// truncate caps s at limit runes-worth of bytes with an ellipsis marker.
// Platform limits are byte-oriented; cutting on a rune boundary keeps the
// marker from splitting a multi-byte character.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
