package orgvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Login submits the primary credentials. A response carrying MFAMethods and
// a StateToken means the server demands a second factor; drive a LoginFlow
// to completion in that case.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, pathLogin, req, &out)
	return out, err
}

// RequestMFALogin asks the server to issue (or re-issue) a login challenge
// for the chosen method.
func (c *Client) RequestMFALogin(ctx context.Context, req RequestMFALoginRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathRequestMFALogin, req, &out)
	return out, err
}

// VerifyMFALogin completes the MFA login challenge and establishes the
// session cookies.
func (c *Client) VerifyMFALogin(ctx context.Context, req VerifyMFALoginRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathVerifyMFALogin, req, &out)
	return out, err
}

// ActiveDevices lists the devices currently holding a session for the
// account.
func (c *Client) ActiveDevices(ctx context.Context) (ActiveDevicesResponse, error) {
	var out ActiveDevicesResponse
	err := c.getJSON(ctx, pathActiveDevices, nil, &out)
	return out, err
}

// LogoutFromDevices ends the sessions held by the given devices.
func (c *Client) LogoutFromDevices(ctx context.Context, deviceIDs []string) error {
	return c.postJSON(ctx, pathLogoutFromDevices, deviceIDs, nil)
}

// LogoutAllDevices ends every session of the account, this device included.
func (c *Client) LogoutAllDevices(ctx context.Context) error {
	return c.postJSON(ctx, pathLogoutAllDevices, nil, nil)
}

// RequestToggleMFA initiates enabling or disabling an MFA method. Enabling
// the authenticator app returns the enrollment QR code image; every other
// combination returns a message.
func (c *Client) RequestToggleMFA(ctx context.Context, req ToggleMFARequest) (MessageResponse, []byte, error) {
	if req.Type == MethodAuthenticatorAppMFA && req.Toggle == "enable" {
		qr, err := c.postRaw(ctx, pathRequestToggleMFA, req)
		return MessageResponse{}, qr, err
	}
	var out MessageResponse
	err := c.postJSON(ctx, pathRequestToggleMFA, req, &out)
	return out, nil, err
}

// VerifyToggleMFA completes an MFA toggle challenge. A message telling the
// user to log in again means the server invalidated the session.
func (c *Client) VerifyToggleMFA(ctx context.Context, req VerifyToggleMFARequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathVerifyToggleMFA, req, &out)
	return out, err
}

// postRaw issues a POST through the interceptor chain and returns the
// response body bytes, for the one endpoint that answers with an image.
func (c *Client) postRaw(ctx context.Context, path string, in any) ([]byte, error) {
	encoded, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding POST %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

// UnmarshalJSON decodes the flat device map the server renders: every key
// except current_device_id is a device identifier mapping to its last-seen
// description.
func (r *ActiveDevicesResponse) UnmarshalJSON(data []byte) error {
	flat := map[string]string{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.Devices = map[string]string{}
	for key, value := range flat {
		if key == "current_device_id" {
			r.CurrentDeviceID = value
			continue
		}
		r.Devices[key] = value
	}
	return nil
}
