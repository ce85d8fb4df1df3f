package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/auth"
	"summatube/api-gateway/internal/pipeline"
	"summatube/api-gateway/middleware"
	"summatube/api-gateway/models"
	"summatube/api-gateway/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusResponse is returned by informational endpoints.
type StatusResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// Summarize godoc
// @Summary Summarize a YouTube video
// @Description Fetches the transcript of the linked video and returns an AI-generated summary.
// @Description Videos without captions return a notice with hasTranscript=false and are not charged.
// @Tags summary
// @Accept  json
// @Produce  json
// @Param   request body models.SummaryRequest true "Video link"
// @Param   Authorization header string false "Bearer access token (required when credits are enabled)"
// @Success 200 {object} models.SummaryResult
// @Failure 400 {object} ErrorResponse "Missing or invalid URL"
// @Failure 401 {object} ErrorResponse "Unauthorized or insufficient credits"
// @Failure 429 {object} ErrorResponse "Rate limited or AI quota exceeded"
// @Failure 500 {object} ErrorResponse "Summary generation failed"
// @Router /summarize [post]
func (h *ApplicationHandler) Summarize(c *fiber.Ctx) error {
	var body any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	if err := pipeline.ValidateSummaryRequest(body); err != nil {
		return h.respondAppError(c, err)
	}
	rawURL := utils.SanitizeInput(body.(map[string]any)["url"].(string))

	ctx := c.UserContext()
	var account *models.CreditAccount
	if h.ChargeCredits {
		var err error
		account, err = h.Credits.Authorize(ctx, auth.BearerToken(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			return h.respondAppError(c, err)
		}
	}

	result, err := h.Pipeline.Generate(ctx, rawURL)
	if err != nil {
		return h.respondAppError(c, err)
	}

	if account != nil && result.HasTranscript {
		remaining, err := h.Credits.Charge(ctx, account.UserID)
		switch {
		case apperr.Is(err, apperr.InsufficientCredits):
			// another request spent the last credit first
			return h.respondAppError(c, err)
		case err != nil:
			h.Logger.WithError(err).WithField("user_id", account.UserID).Error("Failed to charge credit for summary")
		default:
			result.RemainingCredits = &remaining
		}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, result)
}

// SummarizeInfo godoc
// @Summary Summary endpoint status
// @Tags summary
// @Produce  json
// @Success 200 {object} StatusResponse
// @Router /summarize [get]
func (h *ApplicationHandler) SummarizeInfo(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "YouTube Summary API is running",
		Endpoints: map[string]string{
			"POST": "/summarize - Generate video summary",
		},
	})
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce  json
// @Success 200 {object} StatusResponse
// @Router /health [get]
func (h *ApplicationHandler) Health(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "API Gateway is healthy",
	})
}

// respondAppError writes a classified error. Anything unclassified is logged
// and reported as a generic generation failure.
func (h *ApplicationHandler) respondAppError(c *fiber.Ctx, err error) error {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Wrap(apperr.GenerationFailed, "", err)
	}

	fields := logrus.Fields{
		"path": c.Path(),
		"code": appErr.Kind.Code(),
	}
	if id, ok := c.Locals(middleware.RequestIDKey).(string); ok {
		fields["request_id"] = id
	}
	entry := h.Logger.WithFields(fields)
	if appErr.Kind.HTTPStatus() >= fiber.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.Info(strings.TrimSpace(appErr.Public()))
	}
	return utils.RespondWithAppError(c, appErr)
}
