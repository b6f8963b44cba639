package orgvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// retriedKey marks a request that has already been replayed once after a
// token refresh. A marked request that still fails with 401 is returned to
// the caller untouched; it is never queued or retried again.
type retriedKey struct{}

func markRetried(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), retriedKey{}, true))
}

func isRetried(req *http.Request) bool {
	v, _ := req.Context().Value(retriedKey{}).(bool)
	return v
}

// pendingResult carries the outcome of a replayed request back to the
// goroutine that queued it.
type pendingResult struct {
	resp *http.Response
	err  error
}

// pendingRequest is one queued caller waiting for the in-flight refresh to
// settle. The done channel is buffered so the settling goroutine never
// blocks on a departed waiter.
type pendingRequest struct {
	req  *http.Request
	done chan pendingResult
}

// refreshCoordinator is the inbound interceptor stage enforcing the
// single-flight refresh discipline:
//
//   - At most one refresh call is in flight at any time.
//   - Requests that hit 401 while a refresh is in flight are queued, not
//     raced, and replayed in arrival order once the refresh settles.
//   - No request is ever retried more than once.
//
// The refreshing flag is set synchronously, in the same critical section
// that decides a refresh is needed, before the refresh call is issued. Every
// exit path clears it via settle, which also drains the queue, so a failed
// refresh can never wedge the coordinator.
type refreshCoordinator struct {
	next      http.RoundTripper
	refresh   func(ctx context.Context) error
	onExpired func()
	notices   *noticeCenter
	logger    *slog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []*pendingRequest
}

func (rc *refreshCoordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rc.next.RoundTrip(req)
	if err != nil {
		rc.notices.notify(NoticeError, noticeIDNetworkError, "Network error. Please check your connection.")
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		rc.notices.notify(NoticeError, noticeIDServiceUnavailable, outageNotice(resp))
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// 401 on a pre-authentication path means the credentials themselves were
	// rejected, not that the session went stale. Refreshing cannot help, and
	// the caller needs the raw response so the server's message reaches the
	// form instead of a session-expired redirect.
	if isPreAuthPath(req.URL.Path) {
		return resp, nil
	}

	// Already replayed once. A request the server keeps rejecting must
	// terminate, not loop through another refresh.
	if isRetried(req) {
		drainBody(resp)
		return nil, fmt.Errorf("%w: %s %s still unauthorized after refresh", ErrRetryExhausted, req.Method, req.URL.Path)
	}

	if req.GetBody == nil && req.Body != nil {
		// Cannot safely replay a consumed one-shot body.
		return resp, nil
	}

	rc.mu.Lock()
	if rc.refreshing {
		// A refresh is in flight. Join the queue and wait for the outcome.
		pending := &pendingRequest{req: req, done: make(chan pendingResult, 1)}
		rc.queue = append(rc.queue, pending)
		rc.mu.Unlock()
		drainBody(resp)

		select {
		case res := <-pending.done:
			return res.resp, res.err
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	rc.refreshing = true
	rc.mu.Unlock()
	drainBody(resp)

	refreshErr := rc.refresh(req.Context())
	if refreshErr != nil {
		rc.settle(refreshErr)
		rc.logger.Warn("token refresh failed, session expired", "error", refreshErr)
		rc.onExpired()
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)
	}

	rc.settle(nil)
	return rc.replay(req)
}

// settle clears the refreshing flag and takes ownership of the queue under
// the lock, then resolves every queued request in arrival order. On refresh
// failure each waiter receives the error; on success each queued request is
// replayed through the full chain before the triggering request is.
func (rc *refreshCoordinator) settle(refreshErr error) {
	rc.mu.Lock()
	queued := rc.queue
	rc.queue = nil
	rc.refreshing = false
	rc.mu.Unlock()

	for _, pending := range queued {
		if refreshErr != nil {
			pending.done <- pendingResult{err: fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)}
			continue
		}
		resp, err := rc.replay(pending.req)
		pending.done <- pendingResult{resp: resp, err: err}
	}
}

// replay re-issues a request through the whole coordinator, marked so a
// second 401 surfaces to the caller instead of triggering another refresh.
// Re-entering RoundTrip keeps the network-error and 503 handling uniform for
// replays.
func (rc *refreshCoordinator) replay(req *http.Request) (*http.Response, error) {
	replayReq := markRetried(req)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body for replay: %w", err)
		}
		replayReq.Body = body
	}
	return rc.RoundTrip(replayReq)
}

// outageNotice builds the service-unavailable notice from the server's
// reason field when one is present, restoring the body so the caller can
// still decode the response.
func outageNotice(resp *http.Response) string {
	const fallback = "Service is temporarily unavailable. Please try again later."
	if resp.Body == nil {
		return fallback
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return fallback
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(data, &body) != nil || body.Reason == "" {
		return fallback
	}
	return body.Reason
}

// drainBody releases a response we are discarding so the underlying
// connection can be reused.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}

// IsSessionExpired reports whether err resulted from a failed token refresh
// that invalidated the session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
