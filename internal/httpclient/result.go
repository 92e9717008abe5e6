package httpclient

// Result is the outcome of a REST call: either a decoded JSON payload or a
// human-readable failure message, never both.
type Result struct {
	ok      bool
	payload any
	message string
}

// Success wraps an already-decoded JSON value.
func Success(payload any) Result {
	return Result{ok: true, payload: payload}
}

// Failure wraps a diagnostic message.
func Failure(message string) Result {
	return Result{message: message}
}

// OK reports whether the call succeeded. Payload is only meaningful when OK is true.
func (r Result) OK() bool { return r.ok }

// Payload returns the decoded JSON value of a successful call.
func (r Result) Payload() any { return r.payload }

// Message returns the failure message, or "" on success.
func (r Result) Message() string { return r.message }

// Err converts a failed Result into a *CallError. It returns nil on success.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return &CallError{Message: r.message}
}

// CallError carries a failure message across error-returning APIs.
type CallError struct {
	Message string
}

func (e *CallError) Error() string { return e.Message }
