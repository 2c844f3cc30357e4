package stats

import "github.com/pkg/errors"

// Errors reported by the statistics and set packages. They are usually
// returned wrapped with the name or setting involved, so compare them with
// errors.Is or errors.Cause.
var (
	// ErrInsufficientData is returned when a summary value is requested
	// before enough samples were recorded to compute it.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDuplicateName is returned when inserting a member whose name is
	// already used by a sibling.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrNotFound is returned when removing or looking up an absent member.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfiguration is returned for unusable construction settings,
	// e.g. a zero window size or group size.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}
