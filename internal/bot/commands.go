package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/awfukui/glotbot/internal/language"
	"github.com/awfukui/glotbot/internal/platform"
)

// commandNames are the accepted spellings of the language command.
var commandNames = map[string]bool{
	"translate": true,
	"lang":      true,
	"language":  true,
}

// IsCommand reports whether content invokes the language command with the
// configured prefix.
func (o *Orchestrator) IsCommand(content string) bool {
	name, _, ok := o.parseCommand(content)
	return ok && commandNames[name]
}

func (o *Orchestrator) parseCommand(content string) (name, arg string, ok bool) {
	if !strings.HasPrefix(content, o.config.CommandPrefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, o.config.CommandPrefix))
	if len(fields) == 0 {
		return "", "", false
	}
	name = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = fields[1]
	}
	return name, arg, true
}

// HandleCommand processes the language-preference command. Replies go to the
// issuer's DM channel, the same surface translations are delivered on.
func (o *Orchestrator) HandleCommand(ctx context.Context, event platform.MessageCreateEvent) {
	msg := event.Message
	name, arg, ok := o.parseCommand(msg.Content)
	if !ok || !commandNames[name] {
		return
	}

	var embed platform.Embed
	switch {
	case arg == "":
		embed = o.buildSettingsEmbed(msg.AuthorID)
	case !language.IsSupported(strings.ToLower(arg)):
		embed = o.buildInvalidCodeEmbed(strings.ToLower(arg))
	default:
		code := strings.ToLower(arg)
		o.preferences.Set(msg.AuthorID, code)
		embed = buildLanguageSetEmbed(code)
		slog.Default().Info("Language preference updated",
			"userID", msg.AuthorID,
			"languageCode", code)
	}

	if err := o.gateway.SendDirectEmbed(ctx, msg.AuthorID, embed); err != nil {
		slog.Default().Warn("Cannot send command reply DM",
			"userID", msg.AuthorID,
			"error", err)
	}
}

func (o *Orchestrator) buildSettingsEmbed(userID string) platform.Embed {
	currentCode := o.preferences.Get(userID)
	currentName := language.Name(currentCode)

	return platform.Embed{
		Title:       "🌐 Translation Settings",
		Description: fmt.Sprintf("Your current translation language: **%s** (`%s`)", currentName, currentCode),
		Color:       platform.ColorBlue,
		Fields: []platform.EmbedField{
			{
				Name:  "Change Language",
				Value: fmt.Sprintf("Use `%stranslate <code>` to select a new language", o.config.CommandPrefix),
			},
			{
				Name:  "Supported Languages",
				Value: strings.ToUpper(strings.Join(language.Codes(), ", ")),
			},
		},
		Footer: "React to messages with 🌐 to translate them!",
	}
}

func (o *Orchestrator) buildInvalidCodeEmbed(code string) platform.Embed {
	codes := language.Codes()
	quoted := make([]string, len(codes))
	for i, c := range codes {
		quoted[i] = fmt.Sprintf("`%s`", c)
	}

	return platform.Embed{
		Title:       "❌ Invalid Language Code",
		Description: fmt.Sprintf("Language code `%s` is not supported.", code),
		Color:       platform.ColorRed,
		Fields: []platform.EmbedField{
			{
				Name:  "Supported Languages",
				Value: strings.Join(quoted, ", "),
			},
		},
	}
}

func buildLanguageSetEmbed(code string) platform.Embed {
	return platform.Embed{
		Title:       "✅ Language Set Successfully",
		Description: fmt.Sprintf("Your translation language has been set to **%s** (`%s`)", language.Name(code), code),
		Color:       platform.ColorGreen,
		Fields: []platform.EmbedField{
			{
				Name:  "How it works:",
				Value: "• React to any message with 🌐 to get a translation\n• Translation will be sent to your DMs",
			},
		},
	}
}
