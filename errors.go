package orgvclient

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired reports that the access-token refresh failed and the
	// session must be re-established interactively.
	ErrSessionExpired = errors.New("session expired")
	// ErrRetryExhausted reports that a request failed authentication twice in
	// a row; the coordinator never retries a request more than once.
	ErrRetryExhausted = errors.New("authentication retry exhausted")
	// ErrNetworkUnreachable reports that no response was received at all.
	ErrNetworkUnreachable = errors.New("server unreachable")
	// ErrServiceUnavailable reports an explicit maintenance-mode response.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrChallengeExpired reports that a challenge session countdown reached
	// zero before verification completed.
	ErrChallengeExpired = errors.New("challenge session expired")
	// ErrChallengeStep reports an operation invoked in a step that does not
	// permit it.
	ErrChallengeStep = errors.New("operation not valid in current challenge step")
	// ErrMethodPending reports that another verification method is already
	// being requested for this flow.
	ErrMethodPending = errors.New("another method request is in flight")
	// ErrResendCooldown reports that the resend affordance is still gated.
	ErrResendCooldown = errors.New("resend still cooling down")
	// ErrNoMethods reports that the server offered no verification methods.
	ErrNoMethods = errors.New("no verification methods available")
	// ErrFlowClosed reports use of a challenge flow after Close.
	ErrFlowClosed = errors.New("challenge flow closed")
	// ErrNotAuthenticated reports an operation that requires a session when
	// none is established.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrClientNotReady reports use of a Client that was not built.
	ErrClientNotReady = errors.New("client not initialized")
)

// APIError is a 4xx/5xx response carrying a server-supplied message body.
// Flows classify it by message substring to attribute it to a form field.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	if e.Reason != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Is maps response statuses onto the package sentinels so callers can use
// errors.Is without unpacking the APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrServiceUnavailable:
		return e.Status == 503
	case ErrNotAuthenticated:
		return e.Status == 401
	}
	return false
}

// apiMessage returns the server message of err when it is an APIError.
func apiMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
