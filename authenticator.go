package orgvclient

import "net/http"

// requestAuthenticator is the outbound interceptor stage. It stamps every
// request with the device identifier and, when the jar holds one, the
// anti-forgery token mirror. It must stay synchronous: header mutation only,
// no network and no blocking work (the device identifier is resolved once
// during Build).
type requestAuthenticator struct {
	next      http.RoundTripper
	device    *deviceIdentity
	csrfToken func() string
	userAgent string
}

func (a *requestAuthenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set(HeaderDeviceID, a.device.ID())
	if token := a.csrfToken(); token != "" {
		clone.Header.Set(HeaderCSRFToken, token)
	}
	if a.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", a.userAgent)
	}
	return a.next.RoundTrip(clone)
}
