package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/postgrest-go"

	"summatube/api-gateway/models"
)

// Table names in the Supabase project.
const (
	TableUserCredits  = "user_credits"
	TableTransactions = "credit_transactions"
	TableProfiles     = "profiles"
)

// Querier starts PostgREST queries. Both *supabase.Client and
// *postgrest.Client satisfy it.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseStore keeps the ledger in Supabase tables through PostgREST.
// The PostgREST client has no context support, so ctx is not propagated.
type SupabaseStore struct {
	client Querier
}

// NewSupabaseStore returns a Store backed by client.
func NewSupabaseStore(client Querier) *SupabaseStore {
	return &SupabaseStore{client: client}
}

func (s *SupabaseStore) GetAccount(_ context.Context, userID string) (*models.CreditAccount, error) {
	body, _, err := s.client.From(TableUserCredits).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TableUserCredits, err)
	}

	var rows []models.CreditAccount
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TableUserCredits, err)
	}
	if len(rows) == 0 {
		return nil, ErrAccountNotFound
	}
	return &rows[0], nil
}

func (s *SupabaseStore) SwapCredits(_ context.Context, userID string, old, next, totalSpent int) (bool, error) {
	update := map[string]interface{}{
		"credits":     next,
		"total_spent": totalSpent,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}
	body, _, err := s.client.From(TableUserCredits).
		Update(update, "representation", "").
		Eq("user_id", userID).
		Eq("credits", strconv.Itoa(old)).
		Execute()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", TableUserCredits, err)
	}

	var rows []models.CreditAccount
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, fmt.Errorf("decode %s: %w", TableUserCredits, err)
	}
	return len(rows) == 1, nil
}

func (s *SupabaseStore) AddTransaction(_ context.Context, tx models.CreditTransaction) error {
	_, _, err := s.client.From(TableTransactions).
		Insert(tx, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert %s: %w", TableTransactions, err)
	}
	return nil
}

func (s *SupabaseStore) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	body, _, err := s.client.From(TableProfiles).
		Select("*", "", false).
		Eq("id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TableProfiles, err)
	}

	var rows []models.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TableProfiles, err)
	}
	if len(rows) == 0 {
		return models.Profile{}, nil
	}
	return rows[0], nil
}
