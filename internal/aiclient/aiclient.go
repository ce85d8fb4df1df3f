package aiclient

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/metrics"
)

// Backend sends one prompt to a hosted text-generation model using apiKey.
// Implementations should return *apperr.Error values for failures they can
// classify; anything else is classified by the Summarizer.
type Backend interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	Name() string
	Close() error
}

// Options tunes a Summarizer.
type Options struct {
	// MaxTranscriptChars bounds the transcript interpolated into the prompt.
	MaxTranscriptChars int
	// Language names the language the summary is written in.
	Language string
	// Timeout bounds a single model call, pacing wait included.
	Timeout time.Duration
}

// DefaultMaxTranscriptChars leaves room for the prompt within provider limits.
const DefaultMaxTranscriptChars = 30000

// cacheKeyChars is the length of transcript prefix used when no key is given.
const cacheKeyChars = 500

// Summarizer turns transcript text into a summary using a Backend, rotating
// keys from a KeyPool and reusing results from a SummaryCache.
type Summarizer struct {
	backend Backend
	keys    *KeyPool
	cache   *SummaryCache
	opts    Options
	logger  *logrus.Logger
}

// NewSummarizer wires a Summarizer. A nil cache disables caching.
func NewSummarizer(backend Backend, keys *KeyPool, cache *SummaryCache, opts Options, logger *logrus.Logger) *Summarizer {
	if opts.MaxTranscriptChars <= 0 {
		opts.MaxTranscriptChars = DefaultMaxTranscriptChars
	}
	if opts.Language == "" {
		opts.Language = "English"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Summarizer{backend: backend, keys: keys, cache: cache, opts: opts, logger: logger}
}

// Summarize returns a summary of transcript. cacheKey is usually the video ID;
// when empty a prefix of the transcript is used instead.
func (s *Summarizer) Summarize(ctx context.Context, transcript, cacheKey string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", apperr.New(apperr.EmptyTranscript, "")
	}

	if cacheKey == "" {
		cacheKey = transcriptCacheKey(transcript)
	}
	if s.cache != nil {
		if summary, ok := s.cache.Get(cacheKey); ok {
			metrics.SummaryCacheLookups.WithLabelValues("hit").Inc()
			s.logger.WithField("cache_key", cacheKey).Info("Using cached summary")
			return summary, nil
		}
		metrics.SummaryCacheLookups.WithLabelValues("miss").Inc()
	}

	truncated := truncateRunes(transcript, s.opts.MaxTranscriptChars, "...")
	prompt := buildSummaryPrompt(truncated, s.opts.Language)

	summary, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", apperr.New(apperr.GenerationFailed, "Generated summary is empty")
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, summary)
	}
	s.logger.WithFields(logrus.Fields{
		"cache_key":     cacheKey,
		"summary_chars": len(summary),
	}).Info("Summary generated and cached")
	return summary, nil
}

// Title suggests a short title for the video. Failures fall back to DefaultTitle.
func (s *Summarizer) Title(ctx context.Context, transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return DefaultTitle
	}
	title, err := s.generate(ctx, buildTitlePrompt(transcript))
	if err != nil {
		s.logger.WithError(err).Warn("Title generation failed")
		return DefaultTitle
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return DefaultTitle
	}
	return title
}

// Close releases the backend's connections.
func (s *Summarizer) Close() error {
	return s.backend.Close()
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	if s.keys == nil {
		return "", apperr.Wrap(apperr.ServiceConfiguration, "", ErrNoKeys)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	key, idx, err := s.keys.Acquire(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.GenerationFailed, "Failed to generate summary", err)
	}
	s.logger.WithFields(logrus.Fields{
		"backend": s.backend.Name(),
		"key":     fmt.Sprintf("%d/%d %s", idx+1, s.keys.Len(), MaskKey(key)),
	}).Debug("Calling text generation backend")

	start := time.Now()
	out, err := s.backend.Generate(ctx, key, prompt)
	metrics.ModelCallDuration.WithLabelValues(s.backend.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		classified := classify(err)
		metrics.ModelCallErrors.WithLabelValues(s.backend.Name(), classified.Kind.Code()).Inc()
		s.logger.WithError(err).WithField("kind", classified.Kind.Code()).Error("Text generation failed")
		return "", classified
	}
	return out, nil
}

var (
	configErrorRE = regexp.MustCompile(`(?i)api[ _-]?key|unauthenticated|permission denied|invalid authentication`)
	quotaErrorRE  = regexp.MustCompile(`(?i)quota|rate limit|resource[ _]exhausted|too many requests|\b429\b`)
)

// classify maps a backend error onto the failure taxonomy.
func classify(err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.GenerationFailed, "Failed to generate summary", err)
	}
	msg := err.Error()
	switch {
	case configErrorRE.MatchString(msg):
		return apperr.Wrap(apperr.ServiceConfiguration, "", err)
	case quotaErrorRE.MatchString(msg):
		return apperr.Wrap(apperr.QuotaExceeded, "", err)
	}
	return apperr.Wrap(apperr.GenerationFailed, "Failed to generate summary", err)
}

func transcriptCacheKey(transcript string) string {
	return strings.Join(strings.Fields(truncateRunes(transcript, cacheKeyChars, "")), " ")
}

// Providers accepted by NewBackend.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewBackend builds the backend named by provider.
func NewBackend(provider, model, baseURL string) (Backend, error) {
	switch strings.ToLower(provider) {
	case "", ProviderGemini:
		return NewGeminiBackend(model), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(model, baseURL), nil
	}
	return nil, fmt.Errorf("unknown summarizer provider %q", provider)
}
