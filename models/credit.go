package models

import "time"

// CreditAccount mirrors a row of the user_credits table.
type CreditAccount struct {
	UserID     string     `json:"user_id"`
	Credits    int        `json:"credits"`
	TotalSpent int        `json:"total_spent"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Transaction types recorded in credit_transactions.
const (
	TransactionSpent = "spent"
)

// CreditTransaction mirrors a row of the credit_transactions table.
type CreditTransaction struct {
	UserID      string     `json:"user_id"`
	Amount      int        `json:"amount"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}
