package orgvclient

import (
	"context"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// ChangeEmailFlow drives an email change. There is no method selection: the
// server always emails one code to the old address and one to the new, and
// verification takes both plus the account password. Success invalidates
// every session pending re-verification of the new address.
type ChangeEmailFlow struct {
	*flowCore
	client *Client

	newEmail string
}

// NewChangeEmailFlow creates an email change flow.
func (c *Client) NewChangeEmailFlow() *ChangeEmailFlow {
	f := &ChangeEmailFlow{client: c}
	f.flowCore = newFlowCore("change-email", c.config.Challenge, c.notices, c.logger,
		StepRequest, "Session expired. Please try again.")
	f.flowCore.onExpire = func() {
		f.selectedMethod = ""
	}
	return f
}

// Submit requests the change; the server sends both codes and the flow moves
// to verification with both countdowns running.
func (f *ChangeEmailFlow) Submit(ctx context.Context, newEmail string) error {
	if err := validate.Email(newEmail); err != nil {
		f.failField("newEmail", err.Error())
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	resp, err := f.client.EmailChangeRequest(ctx, newEmail)
	if err != nil {
		f.routeError(err, "Failed to request email change.", fieldRule{keyword: "email", field: "newEmail"})
		return err
	}
	f.mu.Lock()
	f.newEmail = newEmail
	f.mu.Unlock()
	f.enterVerify(MethodEmailMFA, true)
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	return nil
}

// Resend re-issues the change request so both codes are re-sent.
func (f *ChangeEmailFlow) Resend(ctx context.Context) error {
	if err := f.canResend(); err != nil {
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	f.mu.Lock()
	newEmail := f.newEmail
	f.mu.Unlock()
	resp, err := f.client.EmailChangeRequest(ctx, newEmail)
	if err != nil {
		f.routeError(err, "Failed to resend verification codes.")
		return err
	}
	f.resetResend()
	if resp.Message != "" {
		f.notices.success(resp.Message)
	} else {
		f.notices.success("Verification codes resent successfully.")
	}
	return nil
}

// Verify submits both codes and the password and completes the change.
func (f *ChangeEmailFlow) Verify(ctx context.Context, oldEmailOTP, newEmailOTP, password string) error {
	fieldErrs := map[string]error{
		"oldEmailOtp": validate.OTP(oldEmailOTP, f.cfg.OTPDigits),
		"newEmailOtp": validate.OTP(newEmailOTP, f.cfg.OTPDigits),
		"password":    validate.Password(password),
	}
	if err := f.failFields(fieldErrs); err != nil {
		return err
	}
	if err := f.requireStep(StepVerify); err != nil {
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	_, err := f.client.VerifyEmailChange(ctx, VerifyEmailChangeRequest{
		NewEmailOTP: newEmailOTP,
		OldEmailOTP: oldEmailOTP,
		Password:    password,
	})
	if err != nil {
		f.routeError(err, "Verification failed.", fieldRule{keyword: "password", field: "password"})
		return err
	}
	f.notices.success("Email changed successfully. Please login again.")
	f.client.session.LocalLogout()
	f.finish()
	return nil
}
