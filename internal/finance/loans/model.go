package loans

import "time"

// Loan tracks an outstanding debt being paid down. Loan-type transactions
// reduce remaining_amount; the loan deactivates when fully repaid.
type Loan struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	Name            string     `json:"name"`
	TotalAmount     float64    `json:"total_amount"`
	RemainingAmount float64    `json:"remaining_amount"`
	TargetDate      *time.Time `json:"target_date,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
