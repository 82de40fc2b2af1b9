package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer is a party the business sells to.
type Customer struct {
	Party
}

// NewCustomer creates a customer with a validated code and name.
func NewCustomer(code, name string, at time.Time) (*Customer, error) {
	p, err := newParty("Customer", code, name, at)
	if err != nil {
		return nil, err
	}
	return &Customer{Party: p}, nil
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, customer *Customer) error
}
