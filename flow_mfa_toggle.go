package orgvclient

import (
	"context"
	"strings"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// MFAToggleFlow drives enabling or disabling an MFA method: a toggle request
// followed by one-time-code verification. It has no method-selection step;
// the method is chosen by the toggle request itself. The flow is reusable: a
// completed toggle returns it to the idle step for the next one.
//
// Enabling the authenticator app yields an enrollment QR code instead of an
// emailed code; QRCode exposes it while the verification is pending.
type MFAToggleFlow struct {
	*flowCore
	client *Client

	method   string
	enabling bool
	qrCode   []byte
}

// NewMFAToggleFlow creates an MFA toggle flow.
func (c *Client) NewMFAToggleFlow() *MFAToggleFlow {
	f := &MFAToggleFlow{client: c}
	f.flowCore = newFlowCore("mfa-toggle", c.config.Challenge, c.notices, c.logger,
		StepRequest, "Session expired. Please try again.")
	f.flowCore.onExpire = func() {
		f.method = ""
		f.selectedMethod = ""
		f.qrCode = nil
	}
	return f
}

// Request starts a toggle for method. enable false requests disabling.
func (f *MFAToggleFlow) Request(ctx context.Context, method string, enable bool) error {
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	resp, qr, err := f.client.RequestToggleMFA(ctx, ToggleMFARequest{
		Type:   method,
		Toggle: enableDisable(enable),
	})
	if err != nil {
		f.routeError(err, "Failed to request MFA change.")
		return err
	}
	f.mu.Lock()
	f.method = method
	f.enabling = enable
	f.qrCode = qr
	f.mu.Unlock()
	f.enterVerify(method, true)
	if qr != nil {
		f.notices.info("Scan the QR code with your Authenticator App.")
	} else if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	return nil
}

// Resend re-issues the toggle request to get a fresh email code.
func (f *MFAToggleFlow) Resend(ctx context.Context) error {
	if err := f.canResend(); err != nil {
		return err
	}
	if err := f.beginOp(); err != nil {
		return err
	}
	defer f.endOp()

	f.mu.Lock()
	method, enable := f.method, f.enabling
	f.mu.Unlock()
	resp, qr, err := f.client.RequestToggleMFA(ctx, ToggleMFARequest{
		Type:   method,
		Toggle: enableDisable(enable),
	})
	if err != nil {
		f.routeError(err, "Failed to resend OTP.")
		return err
	}
	if qr != nil {
		f.mu.Lock()
		f.qrCode = qr
		f.mu.Unlock()
	}
	if method == MethodEmailMFA {
		f.resetResend()
		if resp.Message != "" {
			f.notices.success(resp.Message)
		} else {
			f.notices.success("OTP resent successfully")
		}
	}
	return nil
}

// Verify submits the code. When the server's confirmation tells the user to
// log in again, the toggle invalidated the session and the flow clears local
// auth state; otherwise it refreshes the cached user and returns to idle.
// loggedOut reports which of the two happened.
func (f *MFAToggleFlow) Verify(ctx context.Context, otp string) (loggedOut bool, err error) {
	if err := validate.OTP(otp, f.cfg.OTPDigits); err != nil {
		f.failField("otp", err.Error())
		return false, err
	}
	if err := f.requireStep(StepVerify); err != nil {
		return false, err
	}
	if err := f.beginOp(); err != nil {
		return false, err
	}
	defer f.endOp()

	f.mu.Lock()
	method, enable := f.method, f.enabling
	f.mu.Unlock()
	resp, err := f.client.VerifyToggleMFA(ctx, VerifyToggleMFARequest{
		Type:    method,
		Toggle:  enableDisable(enable),
		OTPTOTP: otp,
	})
	if err != nil {
		f.routeError(err, "Verification failed.", fieldRule{keyword: "otp", field: "otp"})
		return false, err
	}
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	if strings.Contains(strings.ToLower(resp.Message), "log in again") {
		f.client.session.LocalLogout()
		f.finish()
		return true, nil
	}
	if err := f.client.session.RefreshUser(ctx); err != nil {
		return false, err
	}
	f.Cancel()
	return false, nil
}

// Cancel abandons the pending toggle and returns the flow to idle.
func (f *MFAToggleFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepRequest
	f.method = ""
	f.qrCode = nil
	f.errors = map[string]string{}
	f.sessionCountdown = 0
	f.resendCountdown = 0
}

// QRCode returns the pending authenticator enrollment image, if any.
func (f *MFAToggleFlow) QRCode() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.qrCode...)
}
