// Package webhook authenticates inbound channel webhooks and normalizes
// their event payloads. Verification gates everything downstream: no session
// state is touched for a request that fails here.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/credentials"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// Authenticator verifies that a request body originated from the shop's
// channel, using the shop's signing secret.
type Authenticator struct {
	creds *credentials.Store
	log   zerolog.Logger
}

type AuthenticatorOption func(*Authenticator)

func WithLogger(log zerolog.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.log = log
	}
}

func NewAuthenticator(creds *credentials.Store, options ...AuthenticatorOption) (*Authenticator, error) {
	if creds == nil {
		return nil, errors.New("[NewAuthenticator] credential store is required")
	}

	a := &Authenticator{creds: creds, log: zerolog.Nop()}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

// Verify checks the supplied signature against a keyed hash of the exact raw
// body bytes. The signature scheme is base64(HMAC-SHA256(secret, body)), the
// channel's native webhook signature. Credential resolution failures are
// returned as-is so callers reject rather than skip verification; there is
// no open-fallback mode.
func (a *Authenticator) Verify(ctx context.Context, shopID string, rawBody []byte, signature string) error {
	if signature == "" {
		return interrors.ErrSignatureMissing
	}

	cred, err := a.creds.Resolve(ctx, shopID)
	if err != nil {
		return errors.Wrapf(err, "[Authenticator.Verify] resolve %s", shopID)
	}

	expected := Sign(cred.SigningSecret, rawBody)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		a.log.Warn().Str("shop_id", shopID).Int("body_len", len(rawBody)).Msg("webhook signature mismatch")
		return interrors.ErrSignatureMismatch
	}
	return nil
}

// Sign computes the channel webhook signature for a body. Exposed so tests
// and outbound simulators can produce valid signatures.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
