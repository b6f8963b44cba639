package orgvclient

import (
	"context"

	"github.com/VimalKMGithub/orgvclient/internal/validate"
)

// LoginFlow drives the credential login challenge: submit credentials, and
// when the account has MFA enabled, choose a verification method and submit
// the one-time code. Terminal success refreshes the cached session user.
//
// One flow instance serves one login attempt sequence; create it on entering
// the login surface and Close it on leaving.
type LoginFlow struct {
	*flowCore
	client *Client

	stateToken string
}

// NewLoginFlow creates a login challenge flow.
func (c *Client) NewLoginFlow() *LoginFlow {
	f := &LoginFlow{client: c}
	f.flowCore = newFlowCore("login", c.config.Challenge, c.notices, c.logger,
		StepRequest, "Session expired. Please login again.")
	f.flowCore.onExpire = func() {
		f.stateToken = ""
		f.methods = nil
		f.selectedMethod = ""
	}
	return f
}

// SubmitCredentials submits the identifier and password. It reports done
// true when the session was established directly; done false means the
// server demanded a second factor and the flow moved to method selection.
func (f *LoginFlow) SubmitCredentials(ctx context.Context, identifier, password string) (done bool, err error) {
	if err := validate.UserIdentifier(identifier); err != nil {
		f.failField("username", err.Error())
		return false, err
	}
	if err := validate.Password(password); err != nil {
		f.failField("password", err.Error())
		return false, err
	}
	if err := f.beginOp(); err != nil {
		return false, err
	}
	defer f.endOp()

	resp, err := f.client.Login(ctx, LoginRequest{
		UsernameOrEmailOrID: identifier,
		Password:            password,
	})
	if err != nil {
		f.routeError(err, "Login failed.", fieldRule{keyword: "user", field: "username"})
		return false, err
	}
	if len(resp.MFAMethods) > 0 && resp.StateToken != "" {
		f.mu.Lock()
		f.stateToken = resp.StateToken
		f.mu.Unlock()
		f.enterSelect(resp.MFAMethods, true)
		if resp.Message != "" {
			f.notices.info(resp.Message)
		}
		return false, nil
	}
	return true, f.established(ctx)
}

// SelectMethod asks the server to issue the challenge for method and moves
// the flow to verification.
func (f *LoginFlow) SelectMethod(ctx context.Context, method string) error {
	if err := f.requireStep(StepSelectMethod); err != nil {
		return err
	}
	if err := f.beginMethod(method); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.RequestMFALogin(ctx, RequestMFALoginRequest{
		Type:       method,
		StateToken: f.token(),
	})
	if err != nil {
		f.routeError(err, "Failed to select MFA method.")
		return err
	}
	f.enterVerify(method, false)
	if resp.Message != "" {
		f.notices.success(resp.Message)
	}
	return nil
}

// Resend re-requests the email code. Gated by the resend cooldown; a
// success restarts it.
func (f *LoginFlow) Resend(ctx context.Context) error {
	if err := f.canResend(); err != nil {
		return err
	}
	if err := f.beginMethod(MethodEmailMFA); err != nil {
		return err
	}
	defer f.endMethod()

	resp, err := f.client.RequestMFALogin(ctx, RequestMFALoginRequest{
		Type:       MethodEmailMFA,
		StateToken: f.token(),
	})
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

// VerifyOTP submits the one-time code and, on success, establishes the
// session.
func (f *LoginFlow) VerifyOTP(ctx context.Context, otp string) error {
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
	token := f.stateToken
	f.mu.Unlock()
	_, err := f.client.VerifyMFALogin(ctx, VerifyMFALoginRequest{
		Type:       method,
		StateToken: token,
		OTPTOTP:    otp,
	})
	if err != nil {
		f.routeError(err, "Verification failed.", fieldRule{keyword: "otp", field: "otp"})
		return err
	}
	return f.established(ctx)
}

// established runs the terminal success transition exactly once: refresh the
// cached user, announce, finish.
func (f *LoginFlow) established(ctx context.Context) error {
	if err := f.client.session.RefreshUser(ctx); err != nil {
		return err
	}
	f.notices.success("Login successful!")
	f.finish()
	return nil
}

func (f *LoginFlow) token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateToken
}
