package library

import (
	"errors"
	"fmt"

	"github.com/theEricHoang/coal/models"
)

// outcome is the metrics label for a command result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrDuplicateOwnership):
		return "duplicate"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
