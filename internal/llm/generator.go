package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ankittk/hardcheck/internal/classify"
)

// Generator turns a user's message into a reply. Reply never fails.
type Generator struct {
	Completer Completer // nil means templates only
}

func NewGenerator(c Completer) *Generator {
	return &Generator{Completer: c}
}

// Reply asks the completer for a response and appends a signature phrase; on any error it returns
// the fallback template for the message.
func (g *Generator) Reply(ctx context.Context, message string, p Profile) string {
	if g == nil || g.Completer == nil {
		return Fallback(message, p.Name)
	}
	prompt := BuildPrompt(message, p, classify.NeedsEncouragement(message))
	resp, err := g.Completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			slog.Warn("reply generation failed, using fallback", "err", err)
		}
		return Fallback(message, p.Name)
	}
	return withSignature(resp, SignaturePhrases[pick(message, len(SignaturePhrases))])
}
