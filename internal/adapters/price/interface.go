package price

import (
	"context"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// Source fetches current market snapshots for a set of currencies.
// Snapshots are append-only; every fetch produces new rows.
type Source interface {
	// Name returns the source label stored on each snapshot
	Name() string

	// FetchSnapshots returns one snapshot per currency, priced in vsCurrency.
	// Fields a source cannot report stay null.
	FetchSnapshots(ctx context.Context, currencies []string, vsCurrency string) ([]models.PriceSnapshot, error)
}
