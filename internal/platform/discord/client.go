package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"resty.dev/v3"

	"github.com/awfukui/glotbot/internal/platform"
)

// Client talks to the chat platform's REST API and implements
// platform.Gateway. Direct-message channel IDs are memoized per user since
// the platform requires opening a DM channel before sending into it.
type Client struct {
	httpClient *resty.Client

	mu         sync.Mutex
	dmChannels map[string]string
}

func NewClient(token, baseURL string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bot "+token)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient: client,
		dmChannels: make(map[string]string),
	}
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

// AddReaction implements platform.Gateway.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	response, err := c.httpClient.R().
		SetContext(ctx).
		Put(fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
			channelID, messageID, url.PathEscape(emoji)))
	if err != nil {
		return fmt.Errorf("httpClient.Put > %w", err)
	}
	return c.checkResponse(response)
}

// RemoveUserReaction implements platform.Gateway.
func (c *Client) RemoveUserReaction(ctx context.Context, channelID, messageID, userID, emoji string) error {
	response, err := c.httpClient.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/%s",
			channelID, messageID, url.PathEscape(emoji), userID))
	if err != nil {
		return fmt.Errorf("httpClient.Delete > %w", err)
	}
	return c.checkResponse(response)
}

// SendDirectEmbed implements platform.Gateway.
func (c *Client) SendDirectEmbed(ctx context.Context, userID string, embed platform.Embed) error {
	channelID, err := c.dmChannelFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("dmChannelFor > %w", err)
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"embeds": []wireEmbed{toWireEmbed(embed)},
		}).
		Post(fmt.Sprintf("/channels/%s/messages", channelID))
	if err != nil {
		return fmt.Errorf("httpClient.Post > %w", err)
	}
	return c.checkResponse(response)
}

func (c *Client) dmChannelFor(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	channelID, ok := c.dmChannels[userID]
	c.mu.Unlock()
	if ok {
		return channelID, nil
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"recipient_id": userID}).
		SetResult(&wireChannel{}).
		Post("/users/@me/channels")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if err := c.checkResponse(response); err != nil {
		return "", err
	}

	channel := response.Result().(*wireChannel)
	if channel == nil || channel.ID == "" {
		return "", fmt.Errorf("empty DM channel response: %s", response.String())
	}

	c.mu.Lock()
	c.dmChannels[userID] = channel.ID
	c.mu.Unlock()
	return channel.ID, nil
}

func (c *Client) checkResponse(response *resty.Response) error {
	if response.StatusCode() == http.StatusForbidden {
		return fmt.Errorf("%w: %s", platform.ErrPermission, response.String())
	}
	if response.IsError() {
		return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	return nil
}

type wireChannel struct {
	ID string `json:"id"`
}

type wireEmbed struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Color       int              `json:"color,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
	Fields      []wireEmbedField `json:"fields,omitempty"`
	Footer      *wireEmbedFooter `json:"footer,omitempty"`
}

type wireEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type wireEmbedFooter struct {
	Text string `json:"text"`
}

func toWireEmbed(embed platform.Embed) wireEmbed {
	wire := wireEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if !embed.Timestamp.IsZero() {
		wire.Timestamp = embed.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, field := range embed.Fields {
		wire.Fields = append(wire.Fields, wireEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}
	if embed.Footer != "" {
		wire.Footer = &wireEmbedFooter{Text: embed.Footer}
	}
	return wire
}
