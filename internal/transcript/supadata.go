// Package transcript fetches YouTube captions from the hosted Supadata API.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/models"
)

// DefaultBaseURL is the Supadata v1 API root.
const DefaultBaseURL = "https://api.supadata.ai/v1"

// configErrorMessage reports missing or rejected provider credentials.
const configErrorMessage = "Transcript service configuration error"

// minSegmentChars is the shortest segment text kept when building the full text.
const minSegmentChars = 4

var (
	numericOnlyRE     = regexp.MustCompile(`^[0-9\s]+$`)
	whitespaceRE      = regexp.MustCompile(`\s+`)
	sentenceSpacingRE = regexp.MustCompile(`([.!?])\s*([A-Z])`)
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the transcript provider.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a Client. A nil httpClient uses a default one.
func NewClient(cfg Config, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

type supadataItem struct {
	Text     string   `json:"text"`
	Offset   *float64 `json:"offset"`
	Start    *float64 `json:"start"`
	Duration float64  `json:"duration"`
	Lang     string   `json:"lang"`
}

type supadataResponse struct {
	Lang    string         `json:"lang"`
	Content []supadataItem `json:"content"`
}

type supadataError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Fetch returns the transcript for videoID. A video without captions yields an
// apperr.TranscriptUnavailable error. Provider, credential and network failures
// yield apperr.GenerationFailed.
func (c *Client) Fetch(ctx context.Context, videoID string) (*models.TranscriptResult, error) {
	raw, err := c.fetchRaw(ctx, videoID)
	if err != nil {
		return nil, err
	}

	segments := make([]models.TranscriptSegment, 0, len(raw.Content))
	kept := make([]string, 0, len(raw.Content))
	for _, item := range raw.Content {
		seg := item.segment()
		segments = append(segments, seg)
		if keepSegment(seg.Text) {
			kept = append(kept, strings.TrimSpace(seg.Text))
		}
	}

	fullText := CleanText(strings.Join(kept, " "))
	if fullText == "" {
		c.logger.WithField("video_id", videoID).Warn("Transcript contained no usable segments")
		return nil, apperr.New(apperr.TranscriptUnavailable, "")
	}

	c.logger.WithFields(logrus.Fields{
		"video_id":   videoID,
		"segments":   len(segments),
		"kept":       len(kept),
		"text_chars": len(fullText),
	}).Debug("Transcript fetched")

	return &models.TranscriptResult{
		VideoID:  videoID,
		Language: raw.Lang,
		Segments: segments,
		FullText: fullText,
	}, nil
}

// Available reports whether the provider has captions for videoID. Only
// infrastructure failures are returned as errors.
func (c *Client) Available(ctx context.Context, videoID string) (bool, error) {
	raw, err := c.fetchRaw(ctx, videoID)
	if err != nil {
		if apperr.Is(err, apperr.TranscriptUnavailable) {
			return false, nil
		}
		return false, err
	}
	return len(raw.Content) > 0, nil
}

func (c *Client) fetchRaw(ctx context.Context, videoID string) (*supadataResponse, error) {
	if c.apiKey == "" {
		return nil, apperr.Wrap(apperr.GenerationFailed, configErrorMessage, errors.New("api key is not set"))
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/youtube/transcript?%s", c.baseURL, url.Values{"videoId": {videoID}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.GenerationFailed, "Failed to fetch transcript", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("video_id", videoID).Error("Transcript provider request failed")
		return nil, apperr.Wrap(apperr.GenerationFailed, "Failed to fetch transcript", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.GenerationFailed, "Failed to fetch transcript", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.New(apperr.TranscriptUnavailable, "")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WithField("status", resp.StatusCode).Error("Transcript provider rejected credentials")
		return nil, apperr.Wrap(apperr.GenerationFailed, configErrorMessage,
			fmt.Errorf("provider returned %d", resp.StatusCode))
	default:
		var perr supadataError
		_ = json.Unmarshal(body, &perr)
		if isUnavailableCode(perr.Error) {
			return nil, apperr.New(apperr.TranscriptUnavailable, "")
		}
		detail := perr.Message
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return nil, apperr.Wrap(apperr.GenerationFailed, "Failed to fetch transcript",
			fmt.Errorf("provider returned %d: %s", resp.StatusCode, detail))
	}

	var out supadataResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperr.Wrap(apperr.GenerationFailed, "Failed to fetch transcript",
			fmt.Errorf("decode transcript: %w", err))
	}
	if len(out.Content) == 0 {
		return nil, apperr.New(apperr.TranscriptUnavailable, "")
	}
	return &out, nil
}

func isUnavailableCode(code string) bool {
	switch code {
	case "transcript-unavailable", "not-found", "video-not-found":
		return true
	}
	return false
}

// Supadata reports offsets in milliseconds.
func (i supadataItem) segment() models.TranscriptSegment {
	seg := models.TranscriptSegment{Text: i.Text}
	switch {
	case i.Offset != nil:
		seg.Start = *i.Offset / 1000
		seg.Duration = i.Duration / 1000
	case i.Start != nil:
		seg.Start = *i.Start
		seg.Duration = i.Duration
	}
	return seg
}

// keepSegment drops filler: numeric-only lines and fragments too short to carry meaning.
func keepSegment(text string) bool {
	text = strings.TrimSpace(text)
	return len([]rune(text)) >= minSegmentChars && !numericOnlyRE.MatchString(text)
}

// CleanText collapses whitespace and restores the space after sentence ends.
func CleanText(text string) string {
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = sentenceSpacingRE.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}
