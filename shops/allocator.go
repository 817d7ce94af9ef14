package shops

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// Allocator hands out new shop identifiers. Allocation must be monotonic and
// collision-free across concurrent onboarding completions.
type Allocator interface {
	Next(ctx context.Context) (string, error)
}

const (
	counterCollection = "counters"
	counterKey        = "shops"
)

// CounterAllocator produces zero-padded sequential ids (shop_00001, ...) from
// a counter document. The increment runs inside the store's atomic Update and
// under the allocator's own mutex, so in-process completions serialize and
// cross-process safety rests on the store's per-key Update guarantee.
type CounterAllocator struct {
	store docstore.Store
	mu    sync.Mutex
}

var _ Allocator = (*CounterAllocator)(nil)

func NewCounterAllocator(store docstore.Store) (*CounterAllocator, error) {
	if store == nil {
		return nil, errors.New("[NewCounterAllocator] store is required")
	}
	return &CounterAllocator{store: store}, nil
}

func (a *CounterAllocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var next int64
	err := a.store.Update(ctx, counterCollection, counterKey, func(doc docstore.Document) (docstore.Document, error) {
		if doc == nil {
			doc = docstore.Document{}
		}
		next = asInt64(doc["next"]) + 1
		doc["next"] = next
		return doc, nil
	})
	if err != nil {
		return "", errors.Wrapf(interrors.ErrDurableWriteFailed, "allocate shop id: %v", err)
	}
	return fmt.Sprintf("shop_%05d", next), nil
}

// UUIDAllocator produces globally unique ids with no shared counter. Use it
// when the backing store cannot provide an atomic per-key update.
type UUIDAllocator struct{}

var _ Allocator = UUIDAllocator{}

func (UUIDAllocator) Next(context.Context) (string, error) {
	return "shop_" + uuid.New().String(), nil
}

// asInt64 reads a numeric document value; stores hand numbers back as int64
// or float64 depending on the codec.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
