// Package slack talks to Slack through slack-go: chat.postMessage for outbound text, Events API
// parsing and request signature verification for inbound events.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	slackapi "github.com/slack-go/slack"
)

var ErrNoToken = errors.New("slack: bot token not configured")

// Client posts messages with a bot token.
type Client struct {
	token string
	api   *slackapi.Client
}

// NewClient builds a Web API client. opts follow the defaults, so tests can point it at an
// httptest server with slackapi.OptionAPIURL.
func NewClient(token string, opts ...slackapi.Option) *Client {
	all := append([]slackapi.Option{slackapi.OptionHTTPClient(&http.Client{Timeout: 15 * time.Second})}, opts...)
	return &Client{token: token, api: slackapi.New(token, all...)}
}

// Send posts text to channel (a channel id, DM id or user id), threaded under threadTS when set.
func (c *Client) Send(ctx context.Context, channel, text, threadTS string) error {
	if c.token == "" || c.api == nil {
		return ErrNoToken
	}
	section := slackapi.NewSectionBlock(slackapi.NewTextBlockObject(slackapi.MarkdownType, text, false, false), nil, nil)
	opts := []slackapi.MsgOption{
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionBlocks(section),
	}
	if threadTS != "" {
		opts = append(opts, slackapi.MsgOptionTS(threadTS))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	return nil
}
