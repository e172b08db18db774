package slack

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/slack-go/slack/slackevents"

	"github.com/ankittk/hardcheck/pkg/models"
)

const (
	TypeURLVerification = slackevents.URLVerification
	TypeEventCallback   = slackevents.CallbackEvent
)

var ErrMalformedEnvelope = errors.New("slack envelope: malformed json")

// Parsed is the result of ParseEnvelope. Event is nil when the callback carries nothing to handle.
type Parsed struct {
	Type      string
	Challenge string
	Event     *models.InboundEvent
}

// ParseEnvelope decodes an Events API request body. Callbacks for event types slackevents does
// not know are returned without an Event rather than as errors, so Slack does not retry them.
func ParseEnvelope(body []byte) (Parsed, error) {
	if !json.Valid(body) {
		return Parsed{}, ErrMalformedEnvelope
	}
	outer, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.Debug("slack event ignored", "err", err)
		return Parsed{Type: TypeEventCallback}, nil
	}
	p := Parsed{Type: outer.Type}
	switch outer.Type {
	case TypeURLVerification:
		if v, ok := outer.Data.(*slackevents.EventsAPIURLVerificationEvent); ok {
			p.Challenge = v.Challenge
		}
		return p, nil
	case TypeEventCallback:
	default:
		return p, nil
	}

	switch ev := outer.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.SubType == "bot_message" || ev.SubType == "message_changed" || ev.BotID != "" {
			return p, nil
		}
		p.Event = inbound(ev.User, ev.Text, ev.Channel, ev.TimeStamp, ev.ChannelType == "im", false)
	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return p, nil
		}
		p.Event = inbound(ev.User, ev.Text, ev.Channel, ev.TimeStamp, false, true)
	}
	return p, nil
}

func inbound(user, text, channel, ts string, im, mention bool) *models.InboundEvent {
	if user == "" || text == "" {
		return nil
	}
	return &models.InboundEvent{
		UserID:    user,
		Text:      text,
		ChannelID: channel,
		Timestamp: ts,
		IsDirect:  im || strings.HasPrefix(channel, "D"),
		Mention:   mention,
	}
}
