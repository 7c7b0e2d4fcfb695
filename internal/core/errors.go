package core

// ValidationError rejects malformed or unauthorized input before anything is
// persisted. Handlers map it to a 400 with a stable machine code.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
