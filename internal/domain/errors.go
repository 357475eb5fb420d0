package domain

import "errors"

var (
	ErrStoryNotFound = errors.New("story not found")

	// ErrStoryExpired rejects engagement mutations on a story past its
	// expiry. The counters are left untouched.
	ErrStoryExpired = errors.New("story has expired")

	// ErrCollaboratorUnavailable marks a failed candidate source. The feed
	// composer absorbs it and contributes zero candidates from that source.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrFeedUnavailable means the feed could not be computed at all, as
	// opposed to a feed that is legitimately empty or degraded.
	ErrFeedUnavailable = errors.New("feed unavailable")
)

// ValidationError rejects a malformed creation payload before anything is
// persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// IsValidation reports whether err is a payload validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
