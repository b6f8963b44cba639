package orgvclient

import (
	"context"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// ChangePasswordFlow drives an in-session password change. Accounts without
// MFA complete at the first step; otherwise the server demands a second
// factor and the flow walks method selection and verification. Success
// invalidates every session, so the terminal transition clears local auth
// state.
type ChangePasswordFlow struct {
	*flowCore
	client *Client

	oldPassword        string
	newPassword        string
	confirmNewPassword string
}

// NewChangePasswordFlow creates a password change flow.
func (c *Client) NewChangePasswordFlow() *ChangePasswordFlow {
	f := &ChangePasswordFlow{client: c}
	f.flowCore = newFlowCore("change-password", c.config.Challenge, c.notices, c.logger,
		StepSelectMethod, "Session expired. Please try again.")
	return f
}

// Submit proposes the password change. done true means it took effect
// directly and the local session was cleared.
func (f *ChangePasswordFlow) Submit(ctx context.Context, oldPassword, newPassword, confirmNewPassword string) (done bool, err error) {
	fieldErrs := map[string]error{
		"oldPassword": validate.Password(oldPassword),
		"newPassword": validate.Password(newPassword),
	}
	if newPassword != confirmNewPassword {
		fieldErrs["confirmNewPassword"] = errConfirmMismatch
	}
	if err := f.failFields(fieldErrs); err != nil {
		return false, err
	}
	if err := f.beginOp(); err != nil {
		return false, err
	}
	defer f.endOp()

	resp, err := f.client.ChangePassword(ctx, ChangePasswordRequest{
		OldPassword:        oldPassword,
		NewPassword:        newPassword,
		ConfirmNewPassword: confirmNewPassword,
	})
	if err != nil {
		f.routeError(err, "Failed to change password.", fieldRule{keyword: "old", field: "oldPassword"})
		return false, err
	}
	f.mu.Lock()
	f.oldPassword = oldPassword
	f.newPassword = newPassword
	f.confirmNewPassword = confirmNewPassword
	f.mu.Unlock()
	if len(resp.Methods) > 0 {
		f.enterSelect(resp.Methods, false)
		if resp.Message != "" {
			f.notices.info(resp.Message)
		}
		return false, nil
	}
	f.completed()
	return true, nil
}

// SelectMethod picks the verification method; the server sends the code and
// the challenge countdown starts.
func (f *ChangePasswordFlow) SelectMethod(ctx context.Context, method string) error {
	if err := f.requireStep(StepSelectMethod); err != nil {
		return err
	}
	if err := f.beginMethod(method); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.ChangePasswordMethodSelection(ctx, method)
	if err != nil {
		f.routeError(err, "Failed to select MFA method.")
		return err
	}
	f.enterVerify(method, true)
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	return nil
}

// Resend re-issues the method selection to get a fresh code.
func (f *ChangePasswordFlow) Resend(ctx context.Context) error {
	if err := f.canResend(); err != nil {
		return err
	}
	f.mu.Lock()
	method := f.selectedMethod
	f.mu.Unlock()
	if err := f.beginMethod(method); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.ChangePasswordMethodSelection(ctx, method)
	if err != nil {
		f.routeError(err, "Failed to resend OTP.")
		return err
	}
	f.resetResend()
	if resp.Message != "" {
		f.notices.success(resp.Message)
	} else {
		f.notices.success("OTP resent successfully")
	}
	return nil
}

// Verify submits the code and completes the change.
func (f *ChangePasswordFlow) Verify(ctx context.Context, otp string) error {
	if err := validate.OTP(otp, f.cfg.OTPDigits); err != nil {
		f.failField("otp", err.Error())
		return err
	}
	if err := f.requireStep(StepVerify); err != nil {
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	f.mu.Lock()
	method := f.selectedMethod
	req := VerifyChangePasswordRequest{
		OldPassword:        f.oldPassword,
		NewPassword:        f.newPassword,
		ConfirmNewPassword: f.confirmNewPassword,
		Method:             &method,
		OTPTOTP:            otp,
	}
	f.mu.Unlock()
	if _, err := f.client.VerifyChangePassword(ctx, req); err != nil {
		f.routeError(err, "Verification failed.", fieldRule{keyword: "otp", field: "otp"})
		return err
	}
	f.completed()
	return nil
}

// completed is the terminal transition: every session is gone server-side,
// so clear local auth state.
func (f *ChangePasswordFlow) completed() {
	f.notices.success("Password changed successfully. Please login again.")
	f.client.session.LocalLogout()
	f.finish()
}
