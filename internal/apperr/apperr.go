// Package apperr defines the closed set of failure kinds the summary service
// can report, and how each one is presented over HTTP.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind tags an Error with one entry of the failure taxonomy.
type Kind int

const (
	MissingURL Kind = iota + 1
	InvalidURL
	TranscriptUnavailable
	EmptyTranscript
	ServiceConfiguration
	QuotaExceeded
	GenerationFailed
	Unauthorized
	InsufficientCredits
	TooManyRequests
)

// Kinds lists every Kind, in declaration order.
var Kinds = []Kind{
	MissingURL,
	InvalidURL,
	TranscriptUnavailable,
	EmptyTranscript,
	ServiceConfiguration,
	QuotaExceeded,
	GenerationFailed,
	Unauthorized,
	InsufficientCredits,
	TooManyRequests,
}

// Code returns the stable machine-readable code sent to clients.
func (k Kind) Code() string {
	switch k {
	case MissingURL:
		return "MISSING_URL"
	case InvalidURL:
		return "INVALID_URL"
	case TranscriptUnavailable:
		return "TRANSCRIPT_UNAVAILABLE"
	case EmptyTranscript:
		return "EMPTY_TRANSCRIPT"
	case ServiceConfiguration:
		return "SERVICE_CONFIGURATION_ERROR"
	case QuotaExceeded:
		return "QUOTA_EXCEEDED"
	case GenerationFailed:
		return "GENERATION_FAILED"
	case Unauthorized:
		return "UNAUTHORIZED"
	case InsufficientCredits:
		return "INSUFFICIENT_CREDITS"
	case TooManyRequests:
		return "TOO_MANY_REQUESTS"
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps the kind onto a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case MissingURL, InvalidURL:
		return http.StatusBadRequest
	case Unauthorized, InsufficientCredits:
		return http.StatusUnauthorized
	case TooManyRequests, QuotaExceeded:
		return http.StatusTooManyRequests
	case TranscriptUnavailable, EmptyTranscript, ServiceConfiguration, GenerationFailed:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// DefaultMessage is the user-readable text used when an Error carries none.
func (k Kind) DefaultMessage() string {
	switch k {
	case MissingURL:
		return "URL is required"
	case InvalidURL:
		return "Invalid YouTube URL. Please provide a valid YouTube video link."
	case TranscriptUnavailable:
		return "Transcript not available for this video"
	case EmptyTranscript:
		return "Transcript is empty"
	case ServiceConfiguration:
		return "AI service configuration error"
	case QuotaExceeded:
		return "AI service rate limit exceeded. Please try again later."
	case GenerationFailed:
		return "An error occurred while generating the summary. Please try again."
	case Unauthorized:
		return "Authorization required"
	case InsufficientCredits:
		return "Insufficient credits"
	case TooManyRequests:
		return "Too many requests. Please try again later."
	}
	return "An unexpected error occurred"
}

func (k Kind) String() string { return k.Code() }

// Error is a classified failure. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.DefaultMessage()
	}
	if e.Err != nil && !strings.Contains(msg, e.Err.Error()) {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Public is the message safe to show to the caller. The cause is not included.
func (e *Error) Public() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.DefaultMessage()
}

// New returns an Error of the given kind. An empty msg uses the kind's default.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost classified error, or false.
func KindOf(err error) (Kind, bool) {
	if e, ok := As(err); ok {
		return e.Kind, true
	}
	return 0, false
}
