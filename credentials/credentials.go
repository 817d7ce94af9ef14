// Package credentials resolves the per-shop messaging channel secrets:
// the webhook signing secret and the outbound API access token.
package credentials

import (
	"context"
	"time"
)

// Credential holds the channel material for one shop.
type Credential struct {
	ShopID        string
	SigningSecret string // validates inbound webhook signatures
	AccessToken   string // authenticates outbound API calls
	FetchedAt     time.Time
}

// Source fetches credentials from the backing store. Implementations fail
// with errors.ErrCredentialNotFound when the shop has no channel settings
// and errors.ErrCredentialSourceUnavailable when the store is unreachable.
type Source interface {
	Fetch(ctx context.Context, shopID string) (Credential, error)
}
