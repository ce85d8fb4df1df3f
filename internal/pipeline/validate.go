package pipeline

import (
	"strings"

	"summatube/api-gateway/internal/apperr"
)

// ValidateSummaryRequest checks a decoded JSON body before the pipeline runs.
// body is whatever encoding/json produced, so non-object payloads are rejected too.
func ValidateSummaryRequest(body any) error {
	obj, ok := body.(map[string]any)
	if !ok || obj == nil {
		return apperr.New(apperr.MissingURL, "Request body must be an object")
	}
	raw, ok := obj["url"]
	if !ok {
		return apperr.New(apperr.MissingURL, "URL is required")
	}
	url, ok := raw.(string)
	if !ok {
		return apperr.New(apperr.InvalidURL, "URL must be a string")
	}
	if strings.TrimSpace(url) == "" {
		return apperr.New(apperr.MissingURL, "URL cannot be empty")
	}
	return nil
}
