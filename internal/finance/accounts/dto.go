package accounts

import (
	"fmt"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// CreateAccountInput groups fields required to open an account.
type CreateAccountInput struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Type            string  `json:"type" validate:"required"`
	Currency        string  `json:"currency" validate:"required,len=3"`
	StartingBalance float64 `json:"starting_balance"`
	CreditLimit     *float64 `json:"credit_limit,omitempty"`
}

// Validate enforces domain rules the struct tags cannot express.
func (in CreateAccountInput) Validate() error {
	t := AccountType(in.Type)
	if !t.Valid() {
		return fmt.Errorf("%w: unknown account type %q", httpx.ErrValidation, in.Type)
	}
	if t == AccountTypeCreditCard {
		if in.CreditLimit == nil || *in.CreditLimit <= 0 {
			return fmt.Errorf("%w: credit-card account requires a positive credit_limit", httpx.ErrValidation)
		}
		if in.StartingBalance != 0 {
			return fmt.Errorf("%w: credit-card account cannot carry a starting balance", httpx.ErrValidation)
		}
	} else if in.CreditLimit != nil {
		return fmt.Errorf("%w: credit_limit is only valid for credit-card accounts", httpx.ErrValidation)
	}
	if in.StartingBalance < 0 {
		return fmt.Errorf("%w: starting_balance cannot be negative", httpx.ErrValidation)
	}
	return nil
}

// UpdateAccountInput carries optional field updates.
type UpdateAccountInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=120"`
	CreditLimit *float64 `json:"credit_limit,omitempty"`
}
