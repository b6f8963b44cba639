package orgvclient

import (
	"context"
	"net/http"
	"net/url"
)

// SelfDetails fetches the authenticated account's own profile.
func (c *Client) SelfDetails(ctx context.Context) (UserSummary, error) {
	var out UserSummary
	err := c.getJSON(ctx, pathSelfDetails, nil, &out)
	return out, err
}

// Register creates a self-service account. The account stays unusable until
// the emailed verification link is followed.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathRegister, req, &out)
	return out, err
}

// VerifyEmail redeems an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathVerifyEmail, map[string]string{"emailVerificationToken": token}, &out)
	return out, err
}

// ResendEmailVerificationLink re-sends the verification email.
func (c *Client) ResendEmailVerificationLink(ctx context.Context, identifier string) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathResendEmailVerificationLink, map[string]string{"usernameOrEmailOrId": identifier}, &out)
	return out, err
}

// ForgotPassword starts account recovery; the response lists the available
// recovery methods.
func (c *Client) ForgotPassword(ctx context.Context, identifier string) (MethodsResponse, error) {
	var out MethodsResponse
	err := c.postJSON(ctx, pathForgotPassword, map[string]string{"usernameOrEmailOrId": identifier}, &out)
	return out, err
}

// ForgotPasswordMethodSelection picks the recovery method; the server sends
// the code. The method travels as a query parameter, the identifier in the
// body.
func (c *Client) ForgotPasswordMethodSelection(ctx context.Context, identifier, method string) (MessageResponse, error) {
	var out MessageResponse
	query := url.Values{"method": {method}}
	err := c.doJSON(ctx, http.MethodPost, pathForgotPasswordMethodSelection, query,
		map[string]string{"usernameOrEmailOrId": identifier}, &out)
	return out, err
}

// ResetPassword completes account recovery with the received code.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathResetPassword, req, &out)
	return out, err
}

// ChangePassword initiates a password change. A response carrying methods
// demands a second factor; an empty one means the change took effect and all
// sessions are invalidated.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (MethodsResponse, error) {
	var out MethodsResponse
	err := c.postJSON(ctx, pathChangePassword, req, &out)
	return out, err
}

// ChangePasswordMethodSelection picks the verification method for a pending
// password change.
func (c *Client) ChangePasswordMethodSelection(ctx context.Context, method string) (MessageResponse, error) {
	var out MessageResponse
	query := url.Values{"method": {method}}
	err := c.doJSON(ctx, http.MethodPost, pathChangePasswordMethodSelection, query, nil, &out)
	return out, err
}

// VerifyChangePassword completes a password change challenge.
func (c *Client) VerifyChangePassword(ctx context.Context, req VerifyChangePasswordRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathVerifyChangePassword, req, &out)
	return out, err
}

// DeleteAccount initiates self-service account deletion, gated by the
// password. Accounts without MFA are deleted directly; otherwise the
// response lists verification methods.
func (c *Client) DeleteAccount(ctx context.Context, password string) (MethodsResponse, error) {
	var out MethodsResponse
	err := c.doJSON(ctx, http.MethodDelete, pathDeleteAccount, nil,
		map[string]string{"password": password}, &out)
	return out, err
}

// DeleteAccountMethodSelection picks the verification method for a pending
// account deletion.
func (c *Client) DeleteAccountMethodSelection(ctx context.Context, method string) (MessageResponse, error) {
	var out MessageResponse
	query := url.Values{"method": {method}}
	err := c.doJSON(ctx, http.MethodPost, pathDeleteAccountMethodSelection, query, nil, &out)
	return out, err
}

// VerifyDeleteAccount completes account deletion with the received code.
func (c *Client) VerifyDeleteAccount(ctx context.Context, method, otp string) (MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, http.MethodDelete, pathVerifyDeleteAccount, nil,
		map[string]string{"method": method, "otpTotp": otp}, &out)
	return out, err
}

// EmailChangeRequest starts an email change; codes go to both the old and
// the new address.
func (c *Client) EmailChangeRequest(ctx context.Context, newEmail string) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathEmailChangeRequest, map[string]string{"newEmail": newEmail}, &out)
	return out, err
}

// VerifyEmailChange completes an email change with both codes and the
// account password. All sessions are invalidated on success.
func (c *Client) VerifyEmailChange(ctx context.Context, req VerifyEmailChangeRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.postJSON(ctx, pathVerifyEmailChange, req, &out)
	return out, err
}

// UpdateDetails updates the mutable profile fields, gated by the current
// password.
func (c *Client) UpdateDetails(ctx context.Context, req UpdateDetailsRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.putJSON(ctx, pathUpdateDetails, req, &out)
	return out, err
}
