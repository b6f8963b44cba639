package orgvclient

import (
	"context"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// ForgotPasswordFlow drives unauthenticated account recovery: identify the
// account, choose a recovery method, then submit the received code together
// with the new password. Terminal success has no session side effect; the
// next step is a fresh login.
type ForgotPasswordFlow struct {
	*flowCore
	client *Client

	identifier string
}

// NewForgotPasswordFlow creates an account recovery flow.
func (c *Client) NewForgotPasswordFlow() *ForgotPasswordFlow {
	f := &ForgotPasswordFlow{client: c}
	f.flowCore = newFlowCore("forgot-password", c.config.Challenge, c.notices, c.logger,
		StepRequest, "Session expired. Please try again.")
	f.flowCore.onExpire = func() {
		f.methods = nil
		f.selectedMethod = ""
	}
	return f
}

// Submit identifies the account and fetches its recovery methods.
func (f *ForgotPasswordFlow) Submit(ctx context.Context, identifier string) error {
	if err := validate.UserIdentifier(identifier); err != nil {
		f.failField("identifier", err.Error())
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	resp, err := f.client.ForgotPassword(ctx, identifier)
	if err != nil {
		f.routeError(err, "Failed to process request.", fieldRule{keyword: "user", field: "identifier"})
		return err
	}
	if len(resp.Methods) == 0 {
		f.notices.errorf("No recovery methods available for this account.")
		return ErrNoMethods
	}
	f.mu.Lock()
	f.identifier = identifier
	f.mu.Unlock()
	f.enterSelect(resp.Methods, false)
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	return nil
}

// SelectMethod picks the recovery method; the server sends the code and the
// challenge countdown starts.
func (f *ForgotPasswordFlow) SelectMethod(ctx context.Context, method string) error {
	if err := f.requireStep(StepSelectMethod); err != nil {
		return err
	}
	if err := f.beginMethod(method); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.ForgotPasswordMethodSelection(ctx, f.accountID(), method)
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
func (f *ForgotPasswordFlow) Resend(ctx context.Context) error {
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

	resp, err := f.client.ForgotPasswordMethodSelection(ctx, f.accountID(), method)
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

// SubmitReset completes recovery with the code and the replacement password.
func (f *ForgotPasswordFlow) SubmitReset(ctx context.Context, otp, newPassword, confirmNewPassword string) error {
	fieldErrs := map[string]error{
		"otpTotp":     validate.OTP(otp, f.cfg.OTPDigits),
		"newPassword": validate.Password(newPassword),
	}
	if newPassword != confirmNewPassword {
		fieldErrs["confirmNewPassword"] = errConfirmMismatch
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

	f.mu.Lock()
	method := f.selectedMethod
	if method == "" {
		method = MethodEmailMFA
	}
	identifier := f.identifier
	f.mu.Unlock()
	resp, err := f.client.ResetPassword(ctx, ResetPasswordRequest{
		UsernameOrEmailOrID: identifier,
		Method:              method,
		OTPTOTP:             otp,
		NewPassword:         newPassword,
		ConfirmNewPassword:  confirmNewPassword,
	})
	if err != nil {
		f.routeError(err, "Failed to reset password. Please try again.", fieldRule{keyword: "otp", field: "otpTotp"})
		return err
	}
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	f.finish()
	return nil
}

func (f *ForgotPasswordFlow) accountID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identifier
}
