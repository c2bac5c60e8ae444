package remote

import "fmt"

// NetworkError covers transport failures, non-2xx statuses and bodies that
// are not a valid envelope.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err == nil {
		return "network error"
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func NewHTTPStatusError(code int) *NetworkError {
	return &NetworkError{StatusCode: code}
}

// RemoteError is a well formed envelope with success=false.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func NewRemoteError(message string) *RemoteError {
	if message == "" {
		message = "Unknown error from remote"
	}
	return &RemoteError{Message: message}
}
