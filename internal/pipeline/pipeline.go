// Package pipeline sequences URL validation, transcript retrieval and
// summarization for a single request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/metrics"
	"summatube/api-gateway/internal/youtube"
	"summatube/api-gateway/models"
)

// NoTranscriptNotice is returned as the summary of videos without captions.
const NoTranscriptNotice = "Unfortunately, this video has no subtitles. Please try another video with subtitles."

// DefaultTimeout bounds one pipeline run.
const DefaultTimeout = 90 * time.Second

// State is a step of one pipeline run.
type State int

const (
	Validating State = iota
	ExtractingID
	FetchingTranscript
	Summarizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case ExtractingID:
		return "extracting_id"
	case FetchingTranscript:
		return "fetching_transcript"
	case Summarizing:
		return "summarizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TranscriptFetcher returns the captions of a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (*models.TranscriptResult, error)
}

// Summarizer turns transcript text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, cacheKey string) (string, error)
}

// Titler optionally suggests a title for the video.
type Titler interface {
	Title(ctx context.Context, transcript string) string
}

// Options tunes a Pipeline.
type Options struct {
	Timeout time.Duration
	// Titles enables a second model call that fills SummaryResult.Title.
	Titles bool
	// OnTransition, when set, is called on every state change. err is non-nil
	// only when entering Failed.
	OnTransition func(videoID string, from, to State, err error)
}

// Pipeline produces a SummaryResult for a YouTube link.
type Pipeline struct {
	transcripts TranscriptFetcher
	summarizer  Summarizer
	opts        Options
	logger      *logrus.Logger
}

// New wires a Pipeline.
func New(transcripts TranscriptFetcher, summarizer Summarizer, opts Options, logger *logrus.Logger) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{transcripts: transcripts, summarizer: summarizer, opts: opts, logger: logger}
}

// run tracks the state of a single Generate call.
type run struct {
	p       *Pipeline
	videoID string
	state   State
}

func (r *run) enter(next State) {
	if r.p.opts.OnTransition != nil {
		r.p.opts.OnTransition(r.videoID, r.state, next, nil)
	}
	r.state = next
}

func (r *run) fail(err error) error {
	if r.p.opts.OnTransition != nil {
		r.p.opts.OnTransition(r.videoID, r.state, Failed, err)
	}
	r.p.logger.WithFields(logrus.Fields{
		"video_id": r.videoID,
		"state":    r.state.String(),
	}).WithError(err).Warn("Summary pipeline failed")
	r.state = Failed
	return err
}

// Generate runs the pipeline for rawURL. A video without captions is not an
// error: the result carries NoTranscriptNotice and HasTranscript=false.
func (p *Pipeline) Generate(ctx context.Context, rawURL string) (result *models.SummaryResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineResult(resultLabel(result, err), time.Since(start).Seconds())
	}()

	r := &run{p: p, state: Validating}

	if strings.TrimSpace(rawURL) == "" {
		return nil, r.fail(apperr.New(apperr.MissingURL, ""))
	}
	if !youtube.IsValidURL(rawURL) {
		return nil, r.fail(apperr.New(apperr.InvalidURL, ""))
	}

	r.enter(ExtractingID)
	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return nil, r.fail(apperr.New(apperr.InvalidURL, "Could not extract video ID from URL"))
	}
	r.videoID = videoID

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	r.enter(FetchingTranscript)
	transcript, err := p.transcripts.Fetch(ctx, videoID)
	if err != nil {
		if apperr.Is(err, apperr.TranscriptUnavailable) {
			p.logger.WithField("video_id", videoID).Info("No transcript available, returning notice")
			r.enter(Done)
			return &models.SummaryResult{
				VideoID:       videoID,
				Summary:       NoTranscriptNotice,
				OriginalURL:   rawURL,
				HasTranscript: false,
			}, nil
		}
		return nil, r.fail(p.generationError(ctx, err))
	}

	r.enter(Summarizing)
	summary, err := p.summarizer.Summarize(ctx, transcript.FullText, videoID)
	if err != nil {
		return nil, r.fail(p.generationError(ctx, err))
	}

	result = &models.SummaryResult{
		VideoID:       videoID,
		Summary:       summary,
		OriginalURL:   rawURL,
		HasTranscript: true,
	}
	if titler, ok := p.summarizer.(Titler); ok && p.opts.Titles {
		result.Title = titler.Title(ctx, transcript.FullText)
	}

	r.enter(Done)
	p.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"duration": time.Since(start).String(),
	}).Info("Summary generated")
	return result, nil
}

// generationError keeps classified provider failures and folds everything
// else into GenerationFailed with the cause in the message.
func (p *Pipeline) generationError(ctx context.Context, err error) error {
	if kind, ok := apperr.KindOf(err); ok {
		switch kind {
		case apperr.QuotaExceeded, apperr.ServiceConfiguration, apperr.EmptyTranscript:
			return err
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", p.opts.Timeout, err)
	}
	return apperr.Wrap(apperr.GenerationFailed, "Failed to generate summary: "+err.Error(), err)
}

func resultLabel(result *models.SummaryResult, err error) string {
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			return strings.ToLower(kind.Code())
		}
		return "error"
	}
	if result != nil && !result.HasTranscript {
		return "no_transcript"
	}
	return "success"
}
