package tutor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyMessage rejects a blank text send.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyClip rejects a voice send with no audio.
	ErrEmptyClip = errors.New("audio clip is empty")
)

// MissingCredentialError means the language model key is not configured.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return e.Name + " is not configured"
}

// UpstreamError is a failed or unusable language model response.
type UpstreamError struct {
	Status int
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Reason)
	}
	return "upstream: " + e.Reason
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// TimeoutError means the bounded wait for a reply elapsed.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no reply within %s", e.After)
}

// TranscriptionError wraps a failed speech-to-text round trip.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// PermissionError records a denied microphone.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	if e.Reason == "" {
		return "microphone permission denied"
	}
	return "microphone permission denied: " + e.Reason
}

// errorKind labels a pipeline failure for logs and metrics.
func errorKind(err error) string {
	var (
		missing  *MissingCredentialError
		upstream *UpstreamError
		timeout  *TimeoutError
		stt      *TranscriptionError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &missing):
		return "missing_credential"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &stt):
		return "transcription"
	case errors.As(err, &upstream):
		return "upstream"
	default:
		return "error"
	}
}
