package platform

import (
	"context"
	"errors"
)

//go:generate mockgen -source=interface.go -destination=../mocks/platform/mock_platform.go -package=mock_platform

// ErrPermission is returned by Gateway operations the bot lacks permission
// for: adding reactions in locked channels, or sending direct messages to
// users who disabled them. Callers log these rather than escalating.
var ErrPermission = errors.New("missing permission")

// Gateway covers the outbound chat-platform operations the translation
// workflow needs. Every call is a network round trip.
type Gateway interface {
	// AddReaction attaches an emoji reaction as the bot user.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	// RemoveUserReaction removes another user's reaction from a message.
	RemoveUserReaction(ctx context.Context, channelID, messageID, userID, emoji string) error
	// SendDirectEmbed delivers an embed to the user's direct-message channel.
	SendDirectEmbed(ctx context.Context, userID string, embed Embed) error
}

// EventSource produces inbound events. Run blocks until the context is done;
// Events is closed when Run returns.
type EventSource interface {
	Events() <-chan Event
	Run(ctx context.Context) error
}
