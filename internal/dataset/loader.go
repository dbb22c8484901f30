// Package dataset acquires, verifies and decodes the precomputed calendar dataset.
package dataset

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// Result is a successful load together with the bytes it came from.
type Result struct {
	Data     *calendar.Data
	Raw      []byte
	Resource string
	Duration time.Duration
}

// Loader runs read, parse, verify and decode. It fails closed: either a fully
// verified Data is returned or an error, never a partial dataset.
type Loader struct {
	provider ResourceProvider
	verifier *Verifier
	logger   zerolog.Logger
}

// NewLoader creates a loader reading through provider.
func NewLoader(provider ResourceProvider, verifier *Verifier) *Loader {
	return &Loader{
		provider: provider,
		verifier: verifier,
		logger:   logging.GetLogger("loader"),
	}
}

// Load reads and verifies the named resource.
func (l *Loader) Load(ctx context.Context, name string) (*calendar.Data, error) {
	res, err := l.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Fetch is Load that also returns the raw bytes, for callers that persist them.
func (l *Loader) Fetch(ctx context.Context, name string) (*Result, error) {
	start := time.Now()
	logger := l.logger.With().Str("resource", name).Logger()
	logger.Debug().Msg("Loading dataset")

	raw, err := l.provider.ReadResource(ctx, name)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read dataset")
		return nil, &UnavailableError{Resource: name, Err: err}
	}

	data, err := l.Decode(raw)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load dataset")
		return nil, err
	}

	res := &Result{Data: data, Raw: raw, Resource: name, Duration: time.Since(start)}
	logger.Info().
		Int("days", data.DayCount()).
		Int("scriptures", data.ScriptureCount()).
		Bool("verified", data.Integrity().Verified).
		Dur("duration", res.Duration).
		Msg("Dataset loaded")
	return res, nil
}

// Decode parses, verifies and decodes raw dataset bytes.
func (l *Loader) Decode(raw []byte) (*calendar.Data, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	integrity, err := l.verifier.Verify(doc)
	if err != nil {
		return nil, err
	}
	return Decode(doc, integrity)
}
