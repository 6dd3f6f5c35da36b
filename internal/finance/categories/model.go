package categories

import "time"

// CategoryType enumerates category kinds.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeSavings CategoryType = "savings"
	CategoryTypeLoan    CategoryType = "loan"
)

// Valid reports whether the category type is supported.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeSavings, CategoryTypeLoan:
		return true
	}
	return false
}

// Category labels transactions and budgets. Ownership is mandatory from
// creation; there are no shared or repair-assigned categories.
type Category struct {
	ID        int64        `json:"id"`
	OwnerID   int64        `json:"owner_id"`
	Type      CategoryType `json:"type"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
