package starboard

import "github.com/pkg/errors"

var (
	// ErrNotFound means the referenced message, channel or entry is gone.
	// Syncs treat it as a retraction signal, not a failure.
	ErrNotFound = errors.New("starboard: not found")

	// ErrTransient means the operation may succeed if retried later
	// (rate limits, timeouts, 5xx responses)
	ErrTransient = errors.New("starboard: transient failure")

	// ErrConflict means a concurrent writer changed the entry between
	// read and write, the sync has to re-read and re-evaluate
	ErrConflict = errors.New("starboard: conflicting write")
)

// IsNotFound reports whether err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsTransient reports whether err is or wraps ErrTransient
func IsTransient(err error) bool {
	return errors.Cause(err) == ErrTransient
}

// IsConflict reports whether err is or wraps ErrConflict
func IsConflict(err error) bool {
	return errors.Cause(err) == ErrConflict
}
