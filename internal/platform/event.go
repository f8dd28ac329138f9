package platform

import "time"

// Message is an immutable snapshot of a chat message as seen by an event.
// IDs are the platform's string-encoded snowflakes; GuildID is empty for
// direct messages.
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	AuthorIsBot bool
	AuthorName  string
	Content     string
	Timestamp   time.Time
}

// Event is the discriminated inbound event variant. The concrete types are
// MessageCreateEvent and ReactionAddEvent; the orchestrator is written
// against this interface so it stays independent of the gateway transport.
type Event interface {
	isEvent()
}

// MessageCreateEvent is emitted for every new message in a visible channel.
type MessageCreateEvent struct {
	Message Message
}

// ReactionAddEvent is emitted when a user adds an emoji reaction to a
// message. Message is a snapshot of the reacted-to message.
type ReactionAddEvent struct {
	UserID    string
	UserIsBot bool
	Emoji     string
	Message   Message
}

func (MessageCreateEvent) isEvent() {}
func (ReactionAddEvent) isEvent()   {}
