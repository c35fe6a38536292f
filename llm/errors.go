package llm

import "fmt"

// BackendError describes a failed interaction with a generation backend:
// missing credential, transport failure, non-2xx status, or a response the
// adapter could not make sense of.
type BackendError struct {
	Provider string
	Status   int // HTTP status when one was received, zero otherwise
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
