// Package partner holds the customers and suppliers the business trades with.
package partner

import (
	"strings"
	"time"

	"github.com/pyme/backend/internal/domain/shared"
)

func validateCode(kind, code string) error {
	if code == "" {
		return shared.NewDomainError(shared.CodeInvalidCode, kind+" code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError(shared.CodeInvalidCode, kind+" code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError(shared.CodeInvalidCode, kind+" code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidName, kind+" name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeInvalidName, kind+" name cannot exceed 200 characters")
	}
	return nil
}

// Party carries the fields customers and suppliers share.
type Party struct {
	shared.BaseAggregateRoot
	Code  string
	Name  string
	TaxID string
	Phone string
	Email string
}

func newParty(kind, code, name string, at time.Time) (Party, error) {
	if err := validateCode(kind, code); err != nil {
		return Party{}, err
	}
	if err := validateName(kind, name); err != nil {
		return Party{}, err
	}
	return Party{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
	}, nil
}

// SetContact replaces the contact details.
func (p *Party) SetContact(taxID, phone, email string) {
	p.TaxID = strings.TrimSpace(taxID)
	p.Phone = strings.TrimSpace(phone)
	p.Email = strings.TrimSpace(email)
}
