package uploader

import (
	"context"

	"clipcast/internal/store"
)

// Uploader submits one item to the publishing platform. Implementations are
// opaque to the scheduling core: any returned error marks the item failed.
type Uploader interface {
	PostItem(ctx context.Context, item *store.Item) error
}
