package dataset

import (
	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/canonical"
	"github.com/belphemur/hebrew-calendar/internal/constants"
	"github.com/belphemur/hebrew-calendar/internal/digest"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// Verifier checks the producer's digest against the canonical form of the
// rest of the document.
type Verifier struct {
	Encoder       canonical.Encoder
	RequireDigest bool
	logger        zerolog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(encoder canonical.Encoder, requireDigest bool) *Verifier {
	return &Verifier{
		Encoder:       encoder,
		RequireDigest: requireDigest,
		logger:        logging.GetLogger("verifier"),
	}
}

// ComputeDigest hashes the canonical encoding of doc without its integrity field.
func (v *Verifier) ComputeDigest(doc map[string]any) string {
	rest := make(map[string]any, len(doc))
	for k, val := range doc {
		if k != constants.IntegrityField {
			rest[k] = val
		}
	}
	return digest.Hex(v.Encoder.Marshal(rest))
}

// Verify compares the stored digest, if any, with the computed one. The
// comparison is exact, so an upper-case stored digest does not match.
func (v *Verifier) Verify(doc map[string]any) (calendar.Integrity, error) {
	computed := v.ComputeDigest(doc)

	raw, present := doc[constants.IntegrityField]
	if !present {
		if v.RequireDigest {
			return calendar.Integrity{}, malformed("", constants.IntegrityField, "digest is required but missing")
		}
		v.logger.Warn().Str("computed", computed).Msg("Dataset carries no digest, skipping integrity check")
		return calendar.Integrity{Computed: computed}, nil
	}

	stored, ok := raw.(string)
	if !ok {
		return calendar.Integrity{}, malformed("", constants.IntegrityField, "expected string, got %s", typeName(raw))
	}

	if stored != computed {
		v.logger.Error().Str("expected", stored).Str("computed", computed).Msg("Dataset digest mismatch")
		return calendar.Integrity{}, &IntegrityError{Expected: stored, Computed: computed}
	}

	v.logger.Debug().Str("digest", computed).Msg("Dataset digest verified")
	return calendar.Integrity{Stored: stored, Computed: computed, Verified: true}, nil
}
