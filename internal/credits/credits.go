// Package credits gates summary requests on a per-account credit balance.
package credits

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/metrics"
	"summatube/api-gateway/models"
)

// ErrAccountNotFound is returned by a Store when the user has no credit row.
var ErrAccountNotFound = errors.New("credit account not found")

// ErrContention is returned when every conditional update lost a race.
var ErrContention = errors.New("credit balance changed concurrently")

// DefaultMaxAttempts bounds the compare-and-swap retries of one Charge.
const DefaultMaxAttempts = 5

// SpendDescription is recorded on every spend transaction.
const SpendDescription = "Video summary"

// Store is the ledger backend.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*models.CreditAccount, error)
	// SwapCredits sets the balance to next only if it is still old and
	// reports whether the row was updated.
	SwapCredits(ctx context.Context, userID string, old, next, totalSpent int) (bool, error)
	AddTransaction(ctx context.Context, tx models.CreditTransaction) error
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Identity resolves a bearer token to a user.
type Identity interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// Gate checks and charges credits.
type Gate struct {
	store       Store
	identity    Identity
	maxAttempts int
	logger      *logrus.Logger
	now         func() time.Time
}

// NewGate wires a Gate. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewGate(store Store, identity Identity, maxAttempts int, logger *logrus.Logger) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{store: store, identity: identity, maxAttempts: maxAttempts, logger: logger, now: time.Now}
}

// Identify resolves token to a user or fails with Unauthorized.
func (g *Gate) Identify(ctx context.Context, token string) (*models.User, error) {
	user, err := g.identity.UserFromToken(ctx, token)
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "", err)
	}
	return user, nil
}

// Authorize resolves token and checks that the account can pay for one
// summary. It does not deduct anything.
func (g *Gate) Authorize(ctx context.Context, token string) (*models.CreditAccount, error) {
	user, err := g.Identify(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := g.store.GetAccount(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, apperr.Wrap(apperr.InsufficientCredits, "", err)
		}
		return nil, apperr.Wrap(apperr.GenerationFailed, "Could not read credit balance", err)
	}
	if account.Credits < 1 {
		g.logger.WithField("user_id", user.ID).Info("Request rejected for insufficient credits")
		return nil, apperr.New(apperr.InsufficientCredits, "")
	}
	return account, nil
}

// Charge deducts one credit from userID and returns the remaining balance.
// The deduction is a conditional update that is retried while other
// requests for the same account win the race.
func (g *Gate) Charge(ctx context.Context, userID string) (int, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, apperr.Wrap(apperr.GenerationFailed, "Could not update credit balance", err)
		}

		account, err := g.store.GetAccount(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return 0, apperr.Wrap(apperr.InsufficientCredits, "", err)
			}
			return 0, apperr.Wrap(apperr.GenerationFailed, "Could not read credit balance", err)
		}
		if account.Credits < 1 {
			return 0, apperr.New(apperr.InsufficientCredits, "")
		}

		remaining := account.Credits - 1
		swapped, err := g.store.SwapCredits(ctx, userID, account.Credits, remaining, account.TotalSpent+1)
		if err != nil {
			return 0, apperr.Wrap(apperr.GenerationFailed, "Could not update credit balance", err)
		}
		if !swapped {
			metrics.CreditChargeConflicts.Inc()
			g.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"attempt": attempt,
			}).Debug("Credit balance changed underneath charge, retrying")
			continue
		}

		metrics.CreditsChargedTotal.Inc()
		g.recordSpend(ctx, userID)
		return remaining, nil
	}
	return 0, apperr.Wrap(apperr.GenerationFailed, "Could not update credit balance", ErrContention)
}

// The balance is already updated, so a failed ledger insert is only logged.
func (g *Gate) recordSpend(ctx context.Context, userID string) {
	now := g.now().UTC()
	err := g.store.AddTransaction(ctx, models.CreditTransaction{
		UserID:      userID,
		Amount:      -1,
		Type:        models.TransactionSpent,
		Description: SpendDescription,
		CreatedAt:   &now,
	})
	if err != nil {
		g.logger.WithError(err).WithField("user_id", userID).Error("Failed to record credit transaction")
	}
}

// Balance returns the current credits of userID, or 0 when it has no account.
func (g *Gate) Balance(ctx context.Context, userID string) (int, error) {
	account, err := g.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Credits, nil
}

// Profile returns the profiles row of userID. A missing row is an empty profile.
func (g *Gate) Profile(ctx context.Context, userID string) (models.Profile, error) {
	return g.store.GetProfile(ctx, userID)
}
