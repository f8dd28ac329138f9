package discord

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/awfukui/glotbot/internal/platform"
)

const (
	defaultPollInterval = 3 * time.Second
	pollMessageLimit    = 50
	pollReactorLimit    = 100
	eventBufferSize     = 64
)

type PollerConfig struct {
	// ChannelIDs is the explicit set of channels to watch. When empty,
	// the text channels of GuildID are discovered at startup instead.
	ChannelIDs []string
	GuildID    string

	Interval     time.Duration
	TriggerEmoji string
}

// Poller implements platform.EventSource over the REST API: it periodically
// fetches the recent messages of each watched channel and diffs them against
// its previous snapshot to synthesize message and reaction events.
type Poller struct {
	client *Client
	config PollerConfig
	events chan platform.Event

	botUserID string
	cursors   map[string]string
	messages  map[string]platform.Message
	reactions map[string]*reactionState
}

type reactionState struct {
	count int
	users map[string]bool
}

func NewPoller(client *Client, config PollerConfig) *Poller {
	if config.Interval <= 0 {
		config.Interval = defaultPollInterval
	}
	return &Poller{
		client:    client,
		config:    config,
		events:    make(chan platform.Event, eventBufferSize),
		cursors:   map[string]string{},
		messages:  map[string]platform.Message{},
		reactions: map[string]*reactionState{},
	}
}

// Events implements platform.EventSource. The channel is closed when Run
// returns.
func (p *Poller) Events() <-chan platform.Event {
	return p.events
}

// emit never blocks past cancellation: the consumer stops draining once the
// context is done, so an unconditional send into a full buffer would wedge
// Run and the shutdown path behind it.
func (p *Poller) emit(ctx context.Context, event platform.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.events <- event:
		return nil
	}
}

// Run implements platform.EventSource. It blocks until ctx is canceled.
// Transient API failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.events)

	botUserID, err := p.fetchOwnUserID(ctx)
	if err != nil {
		return fmt.Errorf("fetchOwnUserID > %w", err)
	}
	p.botUserID = botUserID

	channelIDs := p.config.ChannelIDs
	if len(channelIDs) == 0 {
		channelIDs, err = p.fetchGuildTextChannels(ctx)
		if err != nil {
			return fmt.Errorf("fetchGuildTextChannels > %w", err)
		}
	}
	if len(channelIDs) == 0 {
		return fmt.Errorf("no channels to watch")
	}
	slog.Info("Watching channels", "count", len(channelIDs), "interval", p.config.Interval)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, channelID := range channelIDs {
				if err := p.pollChannel(ctx, channelID); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					slog.Warn("Failed to poll a channel", "channelId", channelID, "error", err)
				}
			}
		}
	}
}

func (p *Poller) fetchOwnUserID(ctx context.Context) (string, error) {
	response, err := p.client.httpClient.R().
		SetContext(ctx).
		SetResult(&wireUser{}).
		Get("/users/@me")
	if err != nil {
		return "", fmt.Errorf("httpClient.Get > %w", err)
	}
	if err := p.client.checkResponse(response); err != nil {
		return "", err
	}
	user := response.Result().(*wireUser)
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("empty user response: %s", response.String())
	}
	return user.ID, nil
}

func (p *Poller) fetchGuildTextChannels(ctx context.Context) ([]string, error) {
	if p.config.GuildID == "" {
		return nil, nil
	}

	channels := []wireGuildChannel{}
	response, err := p.client.httpClient.R().
		SetContext(ctx).
		SetResult(&channels).
		Get(fmt.Sprintf("/guilds/%s/channels", p.config.GuildID))
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if err := p.client.checkResponse(response); err != nil {
		return nil, err
	}

	channelIDs := []string{}
	for _, channel := range channels {
		if channel.Type == guildChannelTypeText {
			channelIDs = append(channelIDs, channel.ID)
		}
	}
	return channelIDs, nil
}

func (p *Poller) pollChannel(ctx context.Context, channelID string) error {
	messages := []wireMessage{}
	response, err := p.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(pollMessageLimit)).
		SetResult(&messages).
		Get(fmt.Sprintf("/channels/%s/messages", channelID))
	if err != nil {
		return fmt.Errorf("httpClient.Get > %w", err)
	}
	if err := p.client.checkResponse(response); err != nil {
		return err
	}

	cursor, seenBefore := p.cursors[channelID]
	newest := cursor
	// The API returns newest first; walk oldest to newest so events keep
	// their arrival order.
	for i := len(messages) - 1; i >= 0; i-- {
		wire := messages[i]
		message := p.toMessage(channelID, wire)
		p.messages[wire.ID] = message

		if isNewerID(wire.ID, newest) {
			newest = wire.ID
		}
		isNew := seenBefore && isNewerID(wire.ID, cursor)
		if isNew {
			if err := p.emit(ctx, platform.MessageCreateEvent{Message: message}); err != nil {
				return err
			}
		}

		if err := p.diffReactions(ctx, wire, message, isNew); err != nil {
			if ctx.Err() != nil {
				return err
			}
			slog.Warn("Failed to diff reactions", "messageId", wire.ID, "error", err)
		}
	}
	p.cursors[channelID] = newest
	p.pruneState(channelID, messages)
	return nil
}

// diffReactions emits a ReactionAddEvent for every user newly present on the
// trigger reaction. The reactor list is only refetched when the summary count
// moved, which keeps the steady state at one request per channel per tick.
// Reactions already present on messages that predate the poller are recorded
// without emitting events.
func (p *Poller) diffReactions(ctx context.Context, wire wireMessage, message platform.Message, isNew bool) error {
	count := 0
	for _, reaction := range wire.Reactions {
		if reaction.Emoji.Name == p.config.TriggerEmoji {
			count = reaction.Count
			break
		}
	}

	state, known := p.reactions[wire.ID]
	if !known {
		state = &reactionState{count: -1, users: map[string]bool{}}
		if isNew {
			state.count = 0
		}
		p.reactions[wire.ID] = state
	}
	if count == state.count {
		return nil
	}
	if count == 0 {
		state.count = 0
		state.users = map[string]bool{}
		return nil
	}

	reactors, err := p.fetchReactors(ctx, message.ChannelID, wire.ID)
	if err != nil {
		return fmt.Errorf("fetchReactors > %w", err)
	}

	current := map[string]bool{}
	for _, reactor := range reactors {
		current[reactor.ID] = true
		// count == -1 means this is the first time the message is seen:
		// its reactions predate the poller, so only record them.
		if state.count >= 0 && !state.users[reactor.ID] {
			event := platform.ReactionAddEvent{
				UserID:    reactor.ID,
				UserIsBot: reactor.Bot || reactor.ID == p.botUserID,
				Emoji:     p.config.TriggerEmoji,
				Message:   message,
			}
			if err := p.emit(ctx, event); err != nil {
				return err
			}
		}
	}
	state.count = count
	state.users = current
	return nil
}

func (p *Poller) fetchReactors(ctx context.Context, channelID, messageID string) ([]wireUser, error) {
	reactors := []wireUser{}
	response, err := p.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(pollReactorLimit)).
		SetResult(&reactors).
		Get(fmt.Sprintf("/channels/%s/messages/%s/reactions/%s",
			channelID, messageID, url.PathEscape(p.config.TriggerEmoji)))
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if err := p.client.checkResponse(response); err != nil {
		return nil, err
	}
	return reactors, nil
}

// pruneState drops cached state for messages that fell out of the channel's
// recent window, so long-running processes do not grow without bound.
func (p *Poller) pruneState(channelID string, recent []wireMessage) {
	keep := map[string]bool{}
	for _, wire := range recent {
		keep[wire.ID] = true
	}
	for id, message := range p.messages {
		if message.ChannelID == channelID && !keep[id] {
			delete(p.messages, id)
			delete(p.reactions, id)
		}
	}
}

func (p *Poller) toMessage(channelID string, wire wireMessage) platform.Message {
	timestamp, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
	if err != nil {
		timestamp = time.Time{}
	}
	return platform.Message{
		ID:          wire.ID,
		ChannelID:   channelID,
		GuildID:     wire.GuildID,
		AuthorID:    wire.Author.ID,
		AuthorIsBot: wire.Author.Bot || wire.Author.ID == p.botUserID,
		AuthorName:  wire.Author.Username,
		Content:     wire.Content,
		Timestamp:   timestamp,
	}
}

// isNewerID compares two snowflake IDs. Snowflakes are time ordered and
// decimal encoded, so a longer string is always the larger value.
func isNewerID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

const guildChannelTypeText = 0

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type wireGuildChannel struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
}

type wireMessage struct {
	ID        string         `json:"id"`
	GuildID   string         `json:"guild_id"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Author    wireUser       `json:"author"`
	Reactions []wireReaction `json:"reactions"`
}

type wireReaction struct {
	Emoji wireEmoji `json:"emoji"`
	Count int       `json:"count"`
}

type wireEmoji struct {
	Name string `json:"name"`
}
