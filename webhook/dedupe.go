package webhook

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
)

// EventsSeenCollection records processed webhook event ids per shop.
const EventsSeenCollection = "events_seen"

// Deduper is a best-effort once-only guard over webhook event ids. The
// channel redelivers webhooks on timeouts; processing twice is harmless for
// the state machine but noisy, so duplicates are dropped when the store
// cooperates. Store failures fail open: a redelivered event is preferable to
// a dropped one.
type Deduper struct {
	store   docstore.Store
	nowFunc func() time.Time
	log     zerolog.Logger
}

type DeduperOption func(*Deduper)

func DeduperWithNowFunc(nowFunc func() time.Time) DeduperOption {
	return func(d *Deduper) {
		d.nowFunc = nowFunc
	}
}

func DeduperWithLogger(log zerolog.Logger) DeduperOption {
	return func(d *Deduper) {
		d.log = log
	}
}

func NewDeduper(store docstore.Store, options ...DeduperOption) (*Deduper, error) {
	if store == nil {
		return nil, errors.New("[NewDeduper] store is required")
	}

	d := &Deduper{store: store, nowFunc: time.Now, log: zerolog.Nop()}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Seen reports whether the event was already processed, recording it if not.
// Events without an id are always treated as new.
func (d *Deduper) Seen(ctx context.Context, shopID, eventID string) bool {
	if eventID == "" {
		return false
	}
	key := shopID + "/" + eventID

	if _, err := d.store.Get(ctx, EventsSeenCollection, key); err == nil {
		return true
	} else if !errors.Is(err, docstore.ErrNotFound) {
		d.log.Warn().Err(err).Str("shop_id", shopID).Msg("event dedupe read failed, failing open")
		return false
	}

	doc := docstore.Document{"seen_at": d.nowFunc().UTC()}
	if err := d.store.Put(ctx, EventsSeenCollection, key, doc); err != nil {
		d.log.Warn().Err(err).Str("shop_id", shopID).Msg("event dedupe write failed, failing open")
	}
	return false
}
