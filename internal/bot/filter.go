package bot

import (
	"strings"

	"github.com/awfukui/glotbot/internal/platform"
)

// TriggerEmoji is the reaction that starts a translation request.
const TriggerEmoji = "\U0001F310" // 🌐

// Decision is the outcome of screening a reaction event.
type Decision int

const (
	// DecisionIgnore terminates with no observable effect.
	DecisionIgnore Decision = iota
	// DecisionRemoveSilently strips the reaction and stops.
	DecisionRemoveSilently
	// DecisionProcess proceeds to translation.
	DecisionProcess
)

func (d Decision) String() string {
	switch d {
	case DecisionIgnore:
		return "ignore"
	case DecisionRemoveSilently:
		return "remove silently"
	case DecisionProcess:
		return "process"
	}
	return "unknown"
}

// FilterConfig is the static configuration the eligibility decisions depend on.
type FilterConfig struct {
	// GuildID restricts the bot to a single guild when non-empty.
	GuildID string
	// ChannelIDs restricts translation to an allow-list when non-empty.
	ChannelIDs []string
	// MinMessageLength is the minimum trimmed content length worth translating.
	MinMessageLength int
	// CommandPrefix marks messages that are commands, not content.
	CommandPrefix string
}

// Filter makes the pure eligibility decisions for the translation workflow.
type Filter struct {
	config FilterConfig
}

func NewFilter(config FilterConfig) *Filter {
	return &Filter{config: config}
}

// inScope checks the guild restriction and channel allow-list shared by both
// decision points.
func (f *Filter) inScope(msg platform.Message) bool {
	if f.config.GuildID != "" && msg.GuildID != "" && msg.GuildID != f.config.GuildID {
		return false
	}
	if len(f.config.ChannelIDs) > 0 {
		found := false
		for _, channelID := range f.config.ChannelIDs {
			if msg.ChannelID == channelID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ShouldReactToMessage reports whether the trigger emoji should be attached
// to a new message.
func (f *Filter) ShouldReactToMessage(msg platform.Message) bool {
	if msg.AuthorIsBot {
		return false
	}
	if !f.inScope(msg) {
		return false
	}
	if len(strings.TrimSpace(msg.Content)) < f.config.MinMessageLength {
		return false
	}
	if strings.HasPrefix(msg.Content, f.config.CommandPrefix) {
		return false
	}
	return true
}

// ShouldProcessReaction screens a reaction-add event.
func (f *Filter) ShouldProcessReaction(event platform.ReactionAddEvent) Decision {
	if event.UserIsBot || event.Emoji != TriggerEmoji {
		return DecisionIgnore
	}
	if !f.inScope(event.Message) {
		return DecisionRemoveSilently
	}
	// Translating your own message is meaningless.
	if event.Message.AuthorID == event.UserID {
		return DecisionRemoveSilently
	}
	return DecisionProcess
}
