// Package auth adapts Supabase Auth (GoTrue) to the gateway's user model.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/models"
)

// ErrMissingToken is returned when no bearer token was presented.
var ErrMissingToken = errors.New("missing bearer token")

// SignUpResult is the outcome of a registration. Session is nil when the
// backend requires the address to be confirmed first.
type SignUpResult struct {
	User    *models.User
	Session *models.Session
}

// RequiresConfirmation reports whether the user must confirm their email.
func (r *SignUpResult) RequiresConfirmation() bool { return r.Session == nil }

// Service wraps a GoTrue client.
type Service struct {
	client gotrue.Client
	logger *logrus.Logger
}

// NewService returns a Service backed by client.
func NewService(client gotrue.Client, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{client: client, logger: logger}
}

// SignUp registers a user. fullName defaults to the local part of email.
func (s *Service) SignUp(_ context.Context, email, password, fullName string) (*SignUpResult, error) {
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}
	resp, err := s.client.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"full_name": fullName},
	})
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("Signup rejected")
		return nil, err
	}

	// With autoconfirm on the user comes back inside the session.
	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	result := &SignUpResult{User: toUser(user)}
	if resp.AccessToken != "" {
		result.Session = toSession(resp.Session)
	}
	return result, nil
}

// SignIn exchanges email and password for a session.
func (s *Service) SignIn(_ context.Context, email, password string) (*models.User, *models.Session, error) {
	resp, err := s.client.SignInWithEmailPassword(email, password)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Info("Login failed")
		return nil, nil, apperr.Wrap(apperr.Unauthorized, "Invalid email or password", err)
	}
	return toUser(resp.User), toSession(resp.Session), nil
}

// SignOut revokes the session behind token.
func (s *Service) SignOut(_ context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	return s.client.WithToken(token).Logout()
}

// UserFromToken resolves the user that owns an access token.
func (s *Service) UserFromToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Wrap(apperr.Unauthorized, "", ErrMissingToken)
	}
	resp, err := s.client.WithToken(token).GetUser()
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "Invalid token", err)
	}
	if resp.ID == uuid.Nil {
		return nil, apperr.New(apperr.Unauthorized, "Invalid token")
	}
	return toUser(resp.User), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func toUser(u types.User) *models.User {
	out := &models.User{
		ID:       u.ID.String(),
		Email:    u.Email,
		Metadata: u.UserMetadata,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		out.CreatedAt = &created
	}
	return out
}

func toSession(s types.Session) *models.Session {
	return &models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
	}
}
