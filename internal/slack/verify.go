package slack

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	slackapi "github.com/slack-go/slack"
)

const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

var (
	ErrInvalidTimestamp       = errors.New("invalid timestamp")
	ErrTimestampOutsideWindow = errors.New("timestamp outside allowed window")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// Verify checks a request against the signing secret. The timestamp must be within five minutes
// of the wall clock.
func Verify(header http.Header, body []byte, secret string) error {
	if _, err := strconv.ParseInt(strings.TrimSpace(header.Get(HeaderTimestamp)), 10, 64); err != nil {
		return ErrInvalidTimestamp
	}
	if !strings.HasPrefix(header.Get(HeaderSignature), "v0=") {
		return ErrInvalidSignature
	}
	sv, err := slackapi.NewSecretsVerifier(header, secret)
	switch {
	case errors.Is(err, slackapi.ErrExpiredTimestamp):
		return ErrTimestampOutsideWindow
	case err != nil:
		return ErrInvalidSignature
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	if err := sv.Ensure(); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
