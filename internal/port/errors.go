package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrRepositoryNotFound    = errors.New("repository not found")
	ErrRenderProfileNotFound = errors.New("render profile not found")
	ErrLinkNotFound          = errors.New("link not found")
	ErrJobNotFound           = errors.New("job not found")
	ErrAlreadyLinked         = errors.New("repository already linked to project")
	ErrDuplicateName         = errors.New("name already in use")
	ErrTokenMissing          = errors.New("github token not set")
	ErrNothingToSync         = errors.New("repository has neither url nor local path")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
