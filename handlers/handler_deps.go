package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/auth"
	"summatube/api-gateway/models"
)

// SummaryPipeline produces a summary for a YouTube link.
type SummaryPipeline interface {
	Generate(ctx context.Context, url string) (*models.SummaryResult, error)
}

// TranscriptChecker reports whether a video has captions.
type TranscriptChecker interface {
	Available(ctx context.Context, videoID string) (bool, error)
}

// CreditGate resolves callers and manages their credit balance.
type CreditGate interface {
	Identify(ctx context.Context, token string) (*models.User, error)
	Authorize(ctx context.Context, token string) (*models.CreditAccount, error)
	Charge(ctx context.Context, userID string) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
	Profile(ctx context.Context, userID string) (models.Profile, error)
}

// AuthService signs users up, in and out.
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*auth.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*models.User, *models.Session, error)
	SignOut(ctx context.Context, token string) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Pipeline    SummaryPipeline
	Transcripts TranscriptChecker
	// Credits and Auth are nil when no account backend is configured.
	Credits CreditGate
	Auth    AuthService
	// ChargeCredits gates /summarize on the caller's balance.
	ChargeCredits bool
	Logger        *logrus.Logger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(pipeline SummaryPipeline, transcripts TranscriptChecker, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Pipeline:    pipeline,
		Transcripts: transcripts,
		Logger:      logger,
	}
}

// WithAccounts enables the auth endpoints and, when charge is set, the credit gate.
func (h *ApplicationHandler) WithAccounts(credits CreditGate, authService AuthService, charge bool) *ApplicationHandler {
	h.Credits = credits
	h.Auth = authService
	h.ChargeCredits = charge && credits != nil
	return h
}
