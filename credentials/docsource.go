package credentials

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// SettingsCollection is where each shop's channel settings document lives,
// keyed by shop id.
const SettingsCollection = "shop_settings"

// Settings document field names. Shops may store the secret value directly;
// indirection through an external secret manager is resolved by the
// deployment glue before the document reaches this layer.
const (
	fieldSigningSecret = "line_channel_secret"
	fieldAccessToken   = "line_channel_access_token"
)

// DocstoreSource reads per-shop credentials from the settings collection.
type DocstoreSource struct {
	store   docstore.Store
	nowFunc func() time.Time
}

var _ Source = (*DocstoreSource)(nil)

func NewDocstoreSource(store docstore.Store) (*DocstoreSource, error) {
	if store == nil {
		return nil, errors.New("[NewDocstoreSource] store is required")
	}
	return &DocstoreSource{store: store, nowFunc: time.Now}, nil
}

func (s *DocstoreSource) Fetch(ctx context.Context, shopID string) (Credential, error) {
	if shopID == "" {
		return Credential{}, interrors.ErrCredentialNotFound
	}

	doc, err := s.store.Get(ctx, SettingsCollection, shopID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Credential{}, errors.Wrapf(interrors.ErrCredentialNotFound, "shop %s", shopID)
		}
		return Credential{}, errors.Wrapf(interrors.ErrCredentialSourceUnavailable, "shop %s: %v", shopID, err)
	}

	secret, _ := doc[fieldSigningSecret].(string)
	token, _ := doc[fieldAccessToken].(string)
	if secret == "" {
		return Credential{}, errors.Wrapf(interrors.ErrCredentialNotFound, "shop %s has no signing secret", shopID)
	}

	return Credential{
		ShopID:        shopID,
		SigningSecret: secret,
		AccessToken:   token,
		FetchedAt:     s.nowFunc(),
	}, nil
}
