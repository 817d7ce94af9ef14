package binding

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// The binding lives in two denormalized views so each side can be queried by
// its own key: global identity -> shops, and shop -> local owners.
const (
	OwnerShopsCollection = "owner_shops"
	ShopOwnersCollection = "shop_owners"
)

// OwnerShop is one row of either view.
type OwnerShop struct {
	GlobalID    string
	ShopID      string
	LocalID     string
	DisplayName string
	Active      bool
}

// Binder performs the durable mapping write between a verified global
// identity and a shop-local owner.
type Binder struct {
	store   docstore.Store
	nowFunc func() time.Time
	log     zerolog.Logger
}

type BinderOption func(*Binder)

// BinderWithNowFunc sets the clock (primarily for testing).
func BinderWithNowFunc(nowFunc func() time.Time) BinderOption {
	return func(b *Binder) {
		b.nowFunc = nowFunc
	}
}

func BinderWithLogger(log zerolog.Logger) BinderOption {
	return func(b *Binder) {
		b.log = log
	}
}

func NewBinder(store docstore.Store, options ...BinderOption) (*Binder, error) {
	if store == nil {
		return nil, errors.New("[NewBinder] store is required")
	}

	b := &Binder{store: store, nowFunc: time.Now, log: zerolog.Nop()}
	for _, opt := range options {
		opt(b)
	}
	return b, nil
}

// Bind upserts both views for (globalID, claims.ShopID). The write is
// idempotent: re-delivering the same verified handoff leaves one active
// record per view and preserves created_at. Binding the same global identity
// to the same shop under a different local id fails ErrBindingConflict
// instead of flipping the existing mapping.
func (b *Binder) Bind(ctx context.Context, globalID string, claims Claims, displayName string) error {
	if globalID == "" {
		return errors.New("[Binder.Bind] global id is required")
	}
	if claims.SubjectID == "" || claims.ShopID == "" {
		return errors.Wrap(interrors.ErrTokenInvalid, "[Binder.Bind] incomplete claims")
	}

	now := b.nowFunc().UTC().Format(time.RFC3339)
	ownerShopKey := globalID + "/" + claims.ShopID
	shopOwnerKey := claims.ShopID + "/" + claims.SubjectID

	var conflict bool
	err := b.store.Update(ctx, OwnerShopsCollection, ownerShopKey, func(doc docstore.Document) (docstore.Document, error) {
		if doc == nil {
			doc = docstore.Document{"created_at": now}
		}
		if existing, _ := doc["local_owner_user_id"].(string); existing != "" && existing != claims.SubjectID {
			if active, _ := doc["active"].(bool); active {
				conflict = true
				return doc, nil
			}
		}
		doc["global_id"] = globalID
		doc["shop_id"] = claims.ShopID
		doc["local_owner_user_id"] = claims.SubjectID
		doc["display_name"] = displayName
		doc["active"] = true
		doc["updated_at"] = now
		if _, ok := doc["created_at"]; !ok {
			doc["created_at"] = now
		}
		return doc, nil
	})
	if err != nil {
		return errors.Wrapf(interrors.ErrDurableWriteFailed, "owner_shops %s: %v", ownerShopKey, err)
	}
	if conflict {
		return errors.Wrapf(interrors.ErrBindingConflict, "global %s already bound to shop %s", globalID, claims.ShopID)
	}

	err = b.store.Update(ctx, ShopOwnersCollection, shopOwnerKey, func(doc docstore.Document) (docstore.Document, error) {
		if doc == nil {
			doc = docstore.Document{"created_at": now}
		}
		doc["shop_id"] = claims.ShopID
		doc["local_owner_user_id"] = claims.SubjectID
		doc["linked_liff_user_id"] = globalID
		doc["display_name"] = displayName
		doc["active"] = true
		doc["updated_at"] = now
		if _, ok := doc["created_at"]; !ok {
			doc["created_at"] = now
		}
		return doc, nil
	})
	if err != nil {
		// The views now disagree; the write is idempotent, so a retry of the
		// same handoff heals the pair.
		return errors.Wrapf(interrors.ErrDurableWriteFailed, "shop_owners %s: %v", shopOwnerKey, err)
	}

	b.log.Info().Str("global_id", globalID).Str("shop_id", claims.ShopID).Str("local_id", claims.SubjectID).Msg("owner binding upserted")
	return nil
}

// ShopsForOwner lists the shops bound to a global identity.
func (b *Binder) ShopsForOwner(ctx context.Context, globalID string) ([]OwnerShop, error) {
	results, err := b.store.Query(ctx, OwnerShopsCollection, func(doc docstore.Document) bool {
		g, _ := doc["global_id"].(string)
		return g == globalID
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[Binder.ShopsForOwner] %s", globalID)
	}
	return ownerShopsFromDocs(results), nil
}

// OwnersForShop lists the local owners bound within a shop.
func (b *Binder) OwnersForShop(ctx context.Context, shopID string) ([]OwnerShop, error) {
	results, err := b.store.Query(ctx, ShopOwnersCollection, func(doc docstore.Document) bool {
		s, _ := doc["shop_id"].(string)
		return s == shopID
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[Binder.OwnersForShop] %s", shopID)
	}
	return ownerShopsFromDocs(results), nil
}

func ownerShopsFromDocs(results []docstore.Keyed) []OwnerShop {
	out := make([]OwnerShop, 0, len(results))
	for _, kv := range results {
		var os OwnerShop
		os.ShopID, _ = kv.Doc["shop_id"].(string)
		os.LocalID, _ = kv.Doc["local_owner_user_id"].(string)
		os.DisplayName, _ = kv.Doc["display_name"].(string)
		os.Active, _ = kv.Doc["active"].(bool)
		if g, ok := kv.Doc["global_id"].(string); ok {
			os.GlobalID = g
		} else {
			os.GlobalID, _ = kv.Doc["linked_liff_user_id"].(string)
		}
		out = append(out, os)
	}
	return out
}
