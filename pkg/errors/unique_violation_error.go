package custom_error

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

type CustomError interface {
	Error() string
}

type UniqueViolationError struct {
	message string
	code    string
}

type ForeignKeyViolationError struct {
	message string
	code    string
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func WrapDBError(message, code string) CustomError {
	switch code {
	case uniqueViolationCode:
		return &UniqueViolationError{
			message: message,
			code:    code,
		}
	case foreignKeyViolationCode:
		return &ForeignKeyViolationError{
			message: "value is still referenced by other resources: " + message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// FromPQ wraps a *pq.Error into one of the typed errors above. Errors coming
// from anywhere else are returned unchanged.
func FromPQ(message string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	return WrapDBError(fmt.Sprintf("%s: %s", message, pqErr.Message), string(pqErr.Code))
}
