package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Supplier is a party the business buys stock from.
type Supplier struct {
	Party
}

// NewSupplier creates a supplier with a validated code and name.
func NewSupplier(code, name string, at time.Time) (*Supplier, error) {
	p, err := newParty("Supplier", code, name, at)
	if err != nil {
		return nil, err
	}
	return &Supplier{Party: p}, nil
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, supplier *Supplier) error
}
