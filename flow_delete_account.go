package orgvclient

import (
	"context"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// DeleteAccountFlow drives self-service account deletion, gated by the
// password and, when MFA is enabled, a second factor. Terminal success
// clears local auth state; the account is gone.
type DeleteAccountFlow struct {
	*flowCore
	client *Client
}

// NewDeleteAccountFlow creates an account deletion flow.
func (c *Client) NewDeleteAccountFlow() *DeleteAccountFlow {
	f := &DeleteAccountFlow{client: c}
	f.flowCore = newFlowCore("delete-account", c.config.Challenge, c.notices, c.logger,
		StepSelectMethod, "Session expired. Please try again.")
	return f
}

// Submit initiates deletion. done true means the account had no MFA and was
// deleted directly.
func (f *DeleteAccountFlow) Submit(ctx context.Context, password string) (done bool, err error) {
	if err := validate.Password(password); err != nil {
		f.failField("password", err.Error())
		return false, err
	}
	if err := f.beginOp(); err != nil {
		return false, err
	}
	defer f.endOp()

	resp, err := f.client.DeleteAccount(ctx, password)
	if err != nil {
		f.routeError(err, "Failed to initiate account deletion.", fieldRule{keyword: "password", field: "password"})
		return false, err
	}
	if len(resp.Methods) > 0 {
		f.enterSelect(resp.Methods, false)
		if resp.Message != "" {
			f.notices.info(resp.Message)
		}
		return false, nil
	}
	f.deleted()
	return true, nil
}

// SelectMethod picks the verification method; the server sends the code.
func (f *DeleteAccountFlow) SelectMethod(ctx context.Context, method string) error {
	if err := f.requireStep(StepSelectMethod); err != nil {
		return err
	}
	if err := f.beginMethod(method); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.DeleteAccountMethodSelection(ctx, method)
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
func (f *DeleteAccountFlow) Resend(ctx context.Context) error {
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

	resp, err := f.client.DeleteAccountMethodSelection(ctx, method)
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

// Verify submits the code and completes the deletion.
func (f *DeleteAccountFlow) Verify(ctx context.Context, otp string) error {
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
	f.mu.Unlock()
	if _, err := f.client.VerifyDeleteAccount(ctx, method, otp); err != nil {
		f.routeError(err, "Verification failed.", fieldRule{keyword: "otp", field: "otp"})
		return err
	}
	f.deleted()
	return nil
}

func (f *DeleteAccountFlow) deleted() {
	f.notices.success("Account deleted successfully.")
	f.client.session.LocalLogout()
	f.finish()
}
