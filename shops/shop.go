// Package shops manages the durable shop records produced by onboarding.
package shops

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// Collection is where shop records live, keyed by shop id.
const Collection = "shops"

// Location is a shop's physical address.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Shop is the durable record written when onboarding completes.
type Shop struct {
	ID               string
	Name             string
	ContactName      string
	Phone            string
	Online           bool // online-only shop, no physical location
	Location         *Location
	OwnerDisplayName string
	OwnerAvatarURL   string
	CreatedAt        time.Time
}

// Repo persists shops in the backing document store.
type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) (*Repo, error) {
	if store == nil {
		return nil, errors.New("[shops.NewRepo] store is required")
	}
	return &Repo{store: store}, nil
}

func (r *Repo) Create(ctx context.Context, shop *Shop) error {
	if shop == nil || shop.ID == "" {
		return errors.New("[Repo.Create] shop with id is required")
	}
	if err := r.store.Put(ctx, Collection, shop.ID, docFromShop(shop)); err != nil {
		return errors.Wrapf(interrors.ErrDurableWriteFailed, "shop %s: %v", shop.ID, err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, shopID string) (*Shop, error) {
	doc, err := r.store.Get(ctx, Collection, shopID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, errors.Wrapf(interrors.ErrShopNotFound, "shop %s", shopID)
		}
		return nil, errors.Wrapf(err, "[Repo.Get] shop %s", shopID)
	}
	return shopFromDoc(shopID, doc), nil
}

func docFromShop(shop *Shop) docstore.Document {
	doc := docstore.Document{
		"name":               shop.Name,
		"contact_name":       shop.ContactName,
		"phone":              shop.Phone,
		"online":             shop.Online,
		"owner_display_name": shop.OwnerDisplayName,
		"owner_avatar_url":   shop.OwnerAvatarURL,
		"created_at":         shop.CreatedAt.UTC().Format(time.RFC3339),
	}
	if shop.Location != nil {
		doc["location"] = map[string]any{
			"lat":     shop.Location.Lat,
			"lng":     shop.Location.Lng,
			"address": shop.Location.Address,
		}
	}
	return doc
}

func shopFromDoc(shopID string, doc docstore.Document) *Shop {
	shop := &Shop{ID: shopID}
	shop.Name, _ = doc["name"].(string)
	shop.ContactName, _ = doc["contact_name"].(string)
	shop.Phone, _ = doc["phone"].(string)
	shop.Online, _ = doc["online"].(bool)
	shop.OwnerDisplayName, _ = doc["owner_display_name"].(string)
	shop.OwnerAvatarURL, _ = doc["owner_avatar_url"].(string)

	if raw, ok := doc["created_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			shop.CreatedAt = ts
		}
	}
	if loc, ok := doc["location"].(map[string]any); ok {
		shop.Location = &Location{}
		shop.Location.Lat, _ = loc["lat"].(float64)
		shop.Location.Lng, _ = loc["lng"].(float64)
		shop.Location.Address, _ = loc["address"].(string)
	}
	return shop
}
