package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/awfukui/glotbot/internal/inference"
	"github.com/awfukui/glotbot/internal/language"
	mock_inference "github.com/awfukui/glotbot/internal/mocks/inference"
	mock_platform "github.com/awfukui/glotbot/internal/mocks/platform"
	"github.com/awfukui/glotbot/internal/platform"
)

type orchestratorFixture struct {
	gateway      *mock_platform.MockGateway
	provider     *mock_inference.MockClient
	preferences  *language.PreferenceStore
	orchestrator *Orchestrator
}

func newOrchestratorFixture(t *testing.T, config OrchestratorConfig, filterConfig FilterConfig) *orchestratorFixture {
	ctrl := gomock.NewController(t)
	gateway := mock_platform.NewMockGateway(ctrl)
	provider := mock_inference.NewMockClient(ctrl)
	preferences := language.NewPreferenceStore()

	return &orchestratorFixture{
		gateway:      gateway,
		provider:     provider,
		preferences:  preferences,
		orchestrator: NewOrchestrator(gateway, provider, preferences, NewFilter(filterConfig), config),
	}
}

func defaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		CommandPrefix:      "!",
		MinMessageLength:   3,
		ProviderConfigured: true,
		ProviderTimeout:    time.Second,
	}
}

func TestOrchestrator_HandleMessageCreate(t *testing.T) {
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}

	t.Run("eligible message gets the trigger reaction", func(t *testing.T) {
		f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())
		f.gateway.EXPECT().
			AddReaction(gomock.Any(), "10", "100", TriggerEmoji).
			Return(nil)

		f.orchestrator.HandleMessageCreate(context.Background(), platform.MessageCreateEvent{Message: msg})
	})

	t.Run("ineligible message is skipped", func(t *testing.T) {
		f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

		shortMsg := msg
		shortMsg.Content = "Hi"
		f.orchestrator.HandleMessageCreate(context.Background(), platform.MessageCreateEvent{Message: shortMsg})
	})

	t.Run("permission failure is swallowed", func(t *testing.T) {
		f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())
		f.gateway.EXPECT().
			AddReaction(gomock.Any(), "10", "100", TriggerEmoji).
			Return(platform.ErrPermission)

		f.orchestrator.HandleMessageCreate(context.Background(), platform.MessageCreateEvent{Message: msg})
	})
}

func TestOrchestrator_HandleReactionAdd_Translates(t *testing.T) {
	// End to end: user B with preference "es" reacts to a French message.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())
	f.preferences.Set("2", "es")

	var delivered platform.Embed
	gomock.InOrder(
		f.gateway.EXPECT().
			RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
			Return(nil),
		f.provider.EXPECT().
			Translate(gomock.Any(), inference.TranslateRequest{
				Text:       "Bonjour tout le monde",
				TargetCode: "es",
				TargetName: "Spanish",
			}).
			Return(inference.TranslateResponse{
				TranslatedContent: "Hola a todos",
				DetectedLanguage:  "French",
				Confidence:        "high",
			}, nil),
		f.gateway.EXPECT().
			SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, embed platform.Embed) error {
				delivered = embed
				return nil
			}),
	)

	f.orchestrator.HandleReactionAdd(context.Background(), event)

	assert.Equal(t, "🌐 Message Translation", delivered.Title)
	assert.Equal(t, platform.ColorBlue, delivered.Color)
	assert.Equal(t, msg.Timestamp, delivered.Timestamp)
	require.Len(t, delivered.Fields, 3)
	assert.Equal(t, "Original (French)", delivered.Fields[0].Name)
	assert.Contains(t, delivered.Fields[0].Value, "Bonjour tout le monde")
	assert.Equal(t, "Translation (Spanish)", delivered.Fields[1].Name)
	assert.Contains(t, delivered.Fields[1].Value, "Hola a todos")
	assert.Equal(t, "Message Info", delivered.Fields[2].Name)
	assert.Contains(t, delivered.Fields[2].Value, "<@1>")
	assert.Contains(t, delivered.Fields[2].Value, "<#10>")
	assert.Contains(t, delivered.Fields[2].Value, "Confidence:** high")
	assert.Contains(t, delivered.Footer, "!translate")
}

func TestOrchestrator_HandleReactionAdd_DefaultLanguage(t *testing.T) {
	// A reactor with no stored preference gets English.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.provider.EXPECT().
		Translate(gomock.Any(), inference.TranslateRequest{
			Text:       "Bonjour tout le monde",
			TargetCode: "en",
			TargetName: "English",
		}).
		Return(inference.TranslateResponse{
			TranslatedContent: "Hello everyone",
			DetectedLanguage:  "French",
			Confidence:        "high",
		}, nil)
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		Return(nil)

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_TooShort(t *testing.T) {
	// Below the length threshold: reaction removed, error DM, no provider call.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Hi",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, embed platform.Embed) error {
			assert.Equal(t, "❌ Translation Error", embed.Title)
			assert.Equal(t, "Message is too short to translate.", embed.Description)
			assert.Equal(t, platform.ColorRed, embed.Color)
			return nil
		})

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_ProviderNotConfigured(t *testing.T) {
	// Without a credential the workflow short-circuits before the provider.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	config := defaultOrchestratorConfig()
	config.ProviderConfigured = false
	f := newOrchestratorFixture(t, config, defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, embed platform.Embed) error {
			assert.Equal(t, "Translation service is not configured.", embed.Description)
			return nil
		})

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_ProviderFailure(t *testing.T) {
	// A provider error produces the generic retry-later DM and nothing escapes.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.provider.EXPECT().
		Translate(gomock.Any(), gomock.Any()).
		Return(inference.TranslateResponse{}, errors.New("connection refused"))
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, embed platform.Embed) error {
			assert.Equal(t, "An error occurred while translating. Please try again later.", embed.Description)
			return nil
		})

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_ErrorDMFailureIsSwallowed(t *testing.T) {
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.provider.EXPECT().
		Translate(gomock.Any(), gomock.Any()).
		Return(inference.TranslateResponse{}, errors.New("i/o timeout"))
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		Return(platform.ErrPermission)

	// Must not panic or propagate anything.
	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_SelfReaction(t *testing.T) {
	// The author's own reaction is stripped without any DM or provider call.
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "1",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "1", TriggerEmoji).
		Return(nil)

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_IgnoredEmoji(t *testing.T) {
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   "Bonjour tout le monde",
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   "👍",
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	// No gateway or provider interaction at all.
	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestOrchestrator_HandleReactionAdd_TruncatesLongContent(t *testing.T) {
	longContent := strings.Repeat("a", 1500)
	msg := platform.Message{
		ID:        "100",
		ChannelID: "10",
		AuthorID:  "1",
		Content:   longContent,
	}
	event := platform.ReactionAddEvent{
		UserID:  "2",
		Emoji:   TriggerEmoji,
		Message: msg,
	}

	f := newOrchestratorFixture(t, defaultOrchestratorConfig(), defaultFilterConfig())

	f.gateway.EXPECT().
		RemoveUserReaction(gomock.Any(), "10", "100", "2", TriggerEmoji).
		Return(nil)
	f.provider.EXPECT().
		Translate(gomock.Any(), gomock.Any()).
		Return(inference.TranslateResponse{
			TranslatedContent: strings.Repeat("b", 1500),
			DetectedLanguage:  "English",
			Confidence:        "medium",
		}, nil)
	f.gateway.EXPECT().
		SendDirectEmbed(gomock.Any(), "2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, embed platform.Embed) error {
			require.Len(t, embed.Fields, 3)
			original := strings.Trim(embed.Fields[0].Value, "`")
			translated := strings.Trim(embed.Fields[1].Value, "`")
			assert.Len(t, original, embedFieldCap)
			assert.True(t, strings.HasSuffix(original, "..."))
			assert.Len(t, translated, embedFieldCap)
			assert.True(t, strings.HasSuffix(translated, "..."))
			return nil
		})

	f.orchestrator.HandleReactionAdd(context.Background(), event)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "short string untouched", input: "hello", limit: 10, want: "hello"},
		{name: "exact limit untouched", input: "hello", limit: 5, want: "hello"},
		{name: "over limit gets marker", input: "hello world", limit: 8, want: "hello..."},
		{name: "multi-byte runes are not split", input: "héllo wörld", limit: 8, want: "héll..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), tt.limit)
		})
	}
}
