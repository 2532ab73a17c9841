package port

import (
	"context"

	"github.com/rmarch/car-config/internal/core/domain"
)

// Store is the authoritative persistent store shared by all request
// handlers. Availability is always derived (capacity minus committed
// selections), never stored.
type Store interface {
	Models(ctx context.Context) ([]domain.Model, error)
	Accessories(ctx context.Context) ([]domain.Accessory, error)

	// Availability returns remaining units per accessory id, consistent
	// with the committed selections at the instant it is read.
	Availability(ctx context.Context) (map[string]int, error)

	// ConfigurationByOwner returns nil when the user has none.
	ConfigurationByOwner(ctx context.Context, owner int64) (*domain.Configuration, error)

	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)

	// WithinTx runs fn inside one serializable transaction. The whole
	// transaction rolls back when fn returns an error; a commit that loses
	// to a concurrent writer surfaces domain.ErrConcurrencyConflict.
	WithinTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the write surface available inside a transaction. Reads made
// through it see the transaction's own snapshot, closing the window between
// validation and write.
type StoreTx interface {
	Availability(ctx context.Context) (map[string]int, error)
	ConfigurationByOwner(ctx context.Context, owner int64) (*domain.Configuration, error)

	InsertConfiguration(ctx context.Context, cfg domain.Configuration) error
	AddSelections(ctx context.Context, owner int64, accessoryIDs []string) error
	RemoveSelections(ctx context.Context, owner int64, accessoryIDs []string) error
	DeleteConfiguration(ctx context.Context, owner int64) error
}
