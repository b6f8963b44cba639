package orgvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/VimalKMGithub/orgvclient/internal/statefile"
)

// Service route prefixes as exposed by the platform gateway.
const (
	authBase  = "/auth-service"
	userBase  = "/user-service"
	adminBase = "/admin-service"
)

// Auth service paths. The anti-forgery bootstrap lives at the gateway root.
const (
	pathCSRF               = "/csrf"
	pathLogin              = authBase + "/login"
	pathRequestMFALogin    = authBase + "/request-to-login-by-mfa"
	pathVerifyMFALogin     = authBase + "/verify-to-login-by-mfa"
	pathLogout             = authBase + "/logout"
	pathActiveDevices      = authBase + "/active-devices"
	pathLogoutFromDevices  = authBase + "/logout-from-devices"
	pathLogoutAllDevices   = authBase + "/logout-all-devices"
	pathRefreshAccessToken = authBase + "/refresh-access-token"
	pathRequestToggleMFA   = authBase + "/request-to-toggle-mfa"
	pathVerifyToggleMFA    = authBase + "/verify-to-toggle-mfa"
)

// User service paths.
const (
	pathSelfDetails                   = userBase + "/self-details"
	pathRegister                      = userBase + "/register"
	pathVerifyEmail                   = userBase + "/verify-email"
	pathResendEmailVerificationLink   = userBase + "/resend-email-verification-link"
	pathForgotPassword                = userBase + "/forgot-password"
	pathForgotPasswordMethodSelection = userBase + "/forgot-password-method-selection"
	pathResetPassword                 = userBase + "/reset-password"
	pathChangePassword                = userBase + "/change-password"
	pathChangePasswordMethodSelection = userBase + "/change-password-method-selection"
	pathVerifyChangePassword          = userBase + "/verify-change-password"
	pathDeleteAccount                 = userBase + "/delete-account"
	pathDeleteAccountMethodSelection  = userBase + "/delete-account-method-selection"
	pathVerifyDeleteAccount           = userBase + "/verify-delete-account"
	pathEmailChangeRequest            = userBase + "/email-change-request"
	pathVerifyEmailChange             = userBase + "/verify-email-change"
	pathUpdateDetails                 = userBase + "/update-details"
)

// Admin service paths.
const (
	pathCreateUsers     = adminBase + "/create-users"
	pathReadUsers       = adminBase + "/read-users"
	pathUpdateUsers     = adminBase + "/update-users"
	pathDeleteUsers     = adminBase + "/delete-users"
	pathCreateRoles     = adminBase + "/create-roles"
	pathReadRoles       = adminBase + "/read-roles"
	pathUpdateRoles     = adminBase + "/update-roles"
	pathDeleteRoles     = adminBase + "/delete-roles"
	pathReadPermissions = adminBase + "/read-permissions"
)

// Client is the authenticated entry point to the platform. All requests
// issued through it pass the interceptor chain (refresh coordination, then
// header stamping); the refresh and anti-forgery bootstrap calls bypass the
// chain on a raw client sharing the same cookie jar.
//
// A Client is safe for concurrent use. Construct one with Builder.Build.
type Client struct {
	config  Config
	baseURL *url.URL
	httpc   *http.Client
	rawc    *http.Client
	jar     http.CookieJar

	device      *deviceIdentity
	coordinator *refreshCoordinator
	broadcaster *Broadcaster
	notices     *noticeCenter
	session     *SessionState
	logger      *slog.Logger
	store       *statefile.Store
}

// Session returns the client's session state tracker.
func (c *Client) Session() *SessionState { return c.session }

// Broadcaster returns the client's session event broadcaster.
func (c *Client) Broadcaster() *Broadcaster { return c.broadcaster }

// DeviceID returns the stable identifier stamped on every request.
func (c *Client) DeviceID() string { return c.device.ID() }

// Close releases background resources: the broadcaster's subscriptions,
// external signal transports, and the durable state store.
func (c *Client) Close() error {
	if c.broadcaster != nil {
		c.broadcaster.Close()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// endpoint resolves a gateway path against the configured base URL.
func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// csrfToken reads the current anti-forgery token from the cookie jar. The
// token is read fresh on every request since the server may rotate it.
func (c *Client) csrfToken() string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// BootstrapCSRF primes the cookie jar with an anti-forgery token. It retries
// with backoff because it races service startup in fresh deployments.
func (c *Client) BootstrapCSRF(ctx context.Context) error {
	return retry.Do(
		func() error {
			return c.getJSON(ctx, pathCSRF, nil, nil)
		},
		retry.Context(ctx),
		retry.Attempts(c.config.Bootstrap.CSRFAttempts),
		retry.Delay(c.config.Bootstrap.CSRFDelay),
		retry.LastErrorOnly(true),
	)
}

// refreshAccessToken performs the single-flight refresh call on the raw
// client so it is never intercepted recursively. Device id and anti-forgery
// token are stamped by hand for the same reason.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathRefreshAccessToken), nil)
	if err != nil {
		return fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set(HeaderDeviceID, c.device.ID())
	if token := c.csrfToken(); token != "" {
		req.Header.Set(HeaderCSRFToken, token)
	}
	resp, err := c.rawc.Do(req)
	if err != nil {
		return fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	drainBody(resp)
	return nil
}

// doJSON issues a request with an optional JSON body through the interceptor
// chain, optionally with query parameters, and decodes a 2xx response body
// into out (when out is non-nil). Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.httpc == nil {
		return ErrClientNotReady
	}
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}
	target := c.endpoint(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		drainBody(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) putJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, in, out)
}

// decodeAPIError turns an error response into *APIError, preserving the
// server's message verbatim because flow error classification keys on it.
func decodeAPIError(resp *http.Response) error {
	defer drainBody(resp)
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Reason  string `json:"reason"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	message := payload.Message
	if message == "" {
		message = payload.Error
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message, Reason: payload.Reason}
}

// newCookieJar builds the shared jar used by both the intercepted and raw
// clients so refresh calls see the same cookies the intercepted calls set.
func newCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return jar, nil
}
