// Package classify decides whether an inbound chat message deserves a reply.
package classify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ankittk/hardcheck/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	VariantLightweight   = "lightweight"
	VariantComprehensive = "comprehensive"

	minRunes = 3
)

// Config describes a classifier preset.
type Config struct {
	Name            string
	Window          time.Duration // replies to long messages only this soon after a broadcast
	DirectMinWords  int
	ChannelMinWords int
	Keywords        []string
	ReportPhrases   []string // any match counts as a long message; empty disables
}

// Lightweight answers any long-ish message within eight hours of the broadcast.
func Lightweight() Config {
	return Config{
		Name:            VariantLightweight,
		Window:          8 * time.Hour,
		DirectMinWords:  5,
		ChannelMinWords: 5,
		Keywords:        triggerKeywords,
	}
}

// Comprehensive uses a shorter window and longer thresholds, but also accepts end-of-day report
// vocabulary.
func Comprehensive() Config {
	return Config{
		Name:            VariantComprehensive,
		Window:          6 * time.Hour,
		DirectMinWords:  8,
		ChannelMinWords: 12,
		Keywords:        triggerKeywords,
		ReportPhrases:   reportPhrases,
	}
}

// Named returns the preset for name; empty means lightweight.
func Named(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantLightweight:
		return Lightweight(), nil
	case VariantComprehensive:
		return Comprehensive(), nil
	default:
		return Config{}, fmt.Errorf("unknown classifier variant %q", name)
	}
}

// Input is one message to classify.
type Input struct {
	Text          string
	IsDirect      bool
	LastBroadcast time.Time // zero when no broadcast has happened yet
	Now           time.Time
}

// Decision carries the verdict and the signals behind it.
type Decision struct {
	Respond           bool
	Keyword           bool
	DirectSubstantial bool
	WithinWindow      bool
	LongMessage       bool
	Words             int
	Matched           []string
}

// Model converts the decision to its JSON form.
func (d Decision) Model(variant string) models.Classification {
	return models.Classification{
		Respond:           d.Respond,
		Variant:           variant,
		Keyword:           d.Keyword,
		DirectSubstantial: d.DirectSubstantial,
		WithinWindow:      d.WithinWindow,
		LongMessage:       d.LongMessage,
		Words:             d.Words,
		Matched:           d.Matched,
	}
}

// Classifier is stateless and safe for concurrent use.
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Name() string { return c.cfg.Name }

// Classify applies the preset to in.
func (c *Classifier) Classify(in Input) Decision {
	text := normalize(in.Text)
	if utf8.RuneCountInString(text) < minRunes {
		return Decision{}
	}
	var d Decision
	d.Words = len(strings.Fields(text))
	d.Matched = matchAll(text, c.cfg.Keywords)
	d.Keyword = len(d.Matched) > 0
	d.DirectSubstantial = in.IsDirect && d.Words >= 1
	d.WithinWindow = withinWindow(in.LastBroadcast, in.Now, c.cfg.Window)

	minWords := c.cfg.ChannelMinWords
	if in.IsDirect {
		minWords = c.cfg.DirectMinWords
	}
	d.LongMessage = d.Words >= minWords
	if !d.LongMessage && len(c.cfg.ReportPhrases) > 0 {
		d.LongMessage = containsAny(text, c.cfg.ReportPhrases)
	}

	d.Respond = d.Keyword || d.DirectSubstantial || (d.WithinWindow && d.LongMessage)
	return d
}

// ShouldRespond is Classify(...).Respond.
func (c *Classifier) ShouldRespond(in Input) bool {
	return c.Classify(in).Respond
}

// NeedsEncouragement reports whether text reads like a struggling day.
func NeedsEncouragement(text string) bool {
	return containsAny(normalize(text), strugglingKeywords)
}

// withinWindow compares whole elapsed hours, so 8h59m is still inside an 8h window.
func withinWindow(last, now time.Time, window time.Duration) bool {
	if last.IsZero() {
		return true
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return true
	}
	return elapsed.Truncate(time.Hour) <= window
}

func normalize(s string) string {
	return strings.TrimSpace(cases.Lower(language.Und).String(s))
}

func matchAll(text string, vocab []string) []string {
	var out []string
	for _, kw := range vocab {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func containsAny(text string, vocab []string) bool {
	for _, kw := range vocab {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
