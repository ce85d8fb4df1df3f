package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/youtube"
	"summatube/api-gateway/models"
	"summatube/api-gateway/utils"
)

// CheckTranscriptGet godoc
// @Summary Check transcript availability
// @Description Reports whether captions exist for the linked video without generating a summary.
// @Tags transcript
// @Produce  json
// @Param   url query string true "YouTube video URL"
// @Success 200 {object} models.TranscriptCheck
// @Failure 400 {object} ErrorResponse "Missing or invalid URL"
// @Failure 500 {object} ErrorResponse "Transcript provider error"
// @Router /check-transcript [get]
func (h *ApplicationHandler) CheckTranscriptGet(c *fiber.Ctx) error {
	return h.checkTranscript(c, c.Query("url"))
}

// CheckTranscriptPost godoc
// @Summary Check transcript availability
// @Tags transcript
// @Accept  json
// @Produce  json
// @Param   request body models.SummaryRequest true "Video link"
// @Success 200 {object} models.TranscriptCheck
// @Failure 400 {object} ErrorResponse "Missing or invalid URL"
// @Failure 500 {object} ErrorResponse "Transcript provider error"
// @Router /check-transcript [post]
func (h *ApplicationHandler) CheckTranscriptPost(c *fiber.Ctx) error {
	var body any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Request body must be an object")
	}
	rawURL, _ := obj["url"].(string)
	return h.checkTranscript(c, rawURL)
}

func (h *ApplicationHandler) checkTranscript(c *fiber.Ctx, rawURL string) error {
	rawURL = utils.SanitizeInput(rawURL)
	if rawURL == "" {
		return utils.RespondWithAppError(c, apperr.New(apperr.MissingURL, ""))
	}
	if !youtube.IsValidURL(rawURL) {
		return utils.RespondWithAppError(c, apperr.New(apperr.InvalidURL, ""))
	}
	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return utils.RespondWithAppError(c, apperr.New(apperr.InvalidURL, "Could not extract video ID from URL"))
	}

	available, err := h.Transcripts.Available(c.UserContext(), videoID)
	if err != nil {
		h.Logger.WithError(err).WithField("video_id", videoID).Error("Transcript check failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to check transcript availability. Please try again later.")
	}

	message := "Transcript is not available for this video"
	if available {
		message = "Transcript is available for this video"
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, models.TranscriptCheck{
		VideoID:             videoID,
		URL:                 rawURL,
		TranscriptAvailable: available,
		Message:             message,
	})
}
