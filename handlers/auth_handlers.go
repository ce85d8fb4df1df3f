package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/auth"
	"summatube/api-gateway/models"
	"summatube/api-gateway/utils"
)

var validate = validator.New()

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName,omitempty" validate:"omitempty,max=200"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries the signed-in user and their tokens.
type SessionResponse struct {
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

// ConfirmationResponse is returned when the backend requires email confirmation.
type ConfirmationResponse struct {
	Message                   string `json:"message"`
	RequiresEmailConfirmation bool   `json:"requiresEmailConfirmation"`
}

// MeResponse describes the current user and their balance.
type MeResponse struct {
	User    map[string]any `json:"user"`
	Credits int            `json:"credits"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse lists the fields that failed validation.
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// Signup godoc
// @Summary Register a new account
// @Description Returns the new session, or a ConfirmationResponse when the address must be confirmed first.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   request body SignupRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ValidationErrorResponse
// @Router /auth/signup [post]
func (h *ApplicationHandler) Signup(c *fiber.Ctx) error {
	payload := new(SignupRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	payload.Email = utils.SanitizeInput(payload.Email)
	payload.FullName = utils.SanitizeInput(payload.FullName)

	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			Error:   "Email and password are required",
			Details: utils.FormatValidationErrors(err),
		})
	}

	result, err := h.Auth.SignUp(c.UserContext(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	if result.RequiresConfirmation() {
		return utils.RespondWithJSON(c, fiber.StatusOK, ConfirmationResponse{
			Message:                   "Registration successful! Check your email to confirm your account.",
			RequiresEmailConfirmation: true,
		})
	}
	h.Logger.WithField("user_id", result.User.ID).Info("User signed up")
	return utils.RespondWithJSON(c, fiber.StatusOK, SessionResponse{User: result.User, Session: result.Session})
}

// Login godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   request body LoginRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *ApplicationHandler) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	payload.Email = utils.SanitizeInput(payload.Email)

	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			Error:   "Email and password are required",
			Details: utils.FormatValidationErrors(err),
		})
	}

	user, session, err := h.Auth.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.respondAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, SessionResponse{User: user, Session: session})
}

// Me godoc
// @Summary Current user and credit balance
// @Tags auth
// @Produce  json
// @Param   Authorization header string true "Bearer access token"
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *ApplicationHandler) Me(c *fiber.Ctx) error {
	token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return utils.RespondWithAppError(c, apperr.New(apperr.Unauthorized, ""))
	}

	ctx := c.UserContext()
	user, err := h.Credits.Identify(ctx, token)
	if err != nil {
		return h.respondAppError(c, apperr.Wrap(apperr.Unauthorized, "Invalid token", err))
	}

	out := map[string]any{}
	profile, err := h.Credits.Profile(ctx, user.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to load profile")
	}
	for k, v := range profile {
		out[k] = v
	}
	out["id"] = user.ID
	out["email"] = user.Email

	credits, err := h.Credits.Balance(ctx, user.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to load credit balance")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, MeResponse{User: out, Credits: credits})
}

// Logout godoc
// @Summary Revoke the current session
// @Tags auth
// @Produce  json
// @Param   Authorization header string true "Bearer access token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *ApplicationHandler) Logout(c *fiber.Ctx) error {
	token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err := h.Auth.SignOut(c.UserContext(), token); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, MessageResponse{Message: "Signed out successfully"})
}
