package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Learner / auth flow errors
	ErrCodeGuestCreationFailed = "guest_creation_failed"
	ErrCodeRefreshFailed       = "refresh_failed"

	// Curriculum errors
	ErrCodeUnitNotFound    = "unit_not_found"
	ErrCodeTopicNotFound   = "topic_not_found"
	ErrCodeExerciseLocked  = "exercise_locked"
	ErrCodeInvalidPractice = "invalid_practice_ref"

	// Practice session errors
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeSessionComplete = "session_complete"
	ErrCodeInvalidAnswer   = "invalid_answer"
	ErrCodeSubmitFailed    = "submit_failed"
	ErrCodeProgressFailed  = "progress_fetch_failed"

	// Preference errors
	ErrCodeUnsupportedLanguage = "unsupported_language"
	ErrCodePreferenceFailed    = "preference_update_failed"

	// Tutor errors
	ErrCodeEmptyMessage      = "empty_message"
	ErrCodeTutorBusy         = "tutor_busy"
	ErrCodeMissingCredential = "missing_credential"

	// Speech errors
	ErrCodeAudioNotFound = "audio_not_found"
	ErrCodeCaptureBusy   = "capture_busy"
	ErrCodeClipTooLarge  = "clip_too_large"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
