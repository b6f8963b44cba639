package orgvclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
)

func decodeBody[T any](t *testing.T, r *http.Request) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Errorf("decoding request body: %v", err)
	}
	return v
}

func TestLoginFlowDirect(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[LoginRequest](t, r)
		if req.UsernameOrEmailOrID != "alice" {
			t.Errorf("identifier = %q, want alice", req.UsernameOrEmailOrID)
		}
		g.setAuthenticated(true)
		writeJSON(w, LoginResponse{Message: "Login successful"})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	done, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass")
	if err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	if !done {
		t.Fatal("expected direct login without MFA")
	}
	if flow.State().Step != StepDone {
		t.Fatalf("step = %s, want DONE", flow.State().Step)
	}
	if !client.Session().IsAuthenticated() {
		t.Fatal("expected authenticated session")
	}
	user, ok := client.Session().Current()
	if !ok || user.Username != "alice" {
		t.Fatalf("cached user = %+v, ok=%v", user, ok)
	}
}

func TestLoginFlowMFAChallenge(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, LoginResponse{
			Message:    "MFA required",
			MFAMethods: []string{MethodEmailMFA},
			StateToken: "tok-1",
		})
	})
	g.handle(pathRequestMFALogin, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[RequestMFALoginRequest](t, r)
		if req.StateToken != "tok-1" {
			t.Errorf("state token = %q, want tok-1", req.StateToken)
		}
		if req.Type != MethodEmailMFA {
			t.Errorf("type = %q, want %s", req.Type, MethodEmailMFA)
		}
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	g.handle(pathVerifyMFALogin, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[VerifyMFALoginRequest](t, r)
		if req.OTPTOTP != "123456" {
			writeJSONStatus(w, http.StatusUnauthorized, map[string]string{"message": "Invalid OTP"})
			return
		}
		if req.StateToken != "tok-1" {
			t.Errorf("state token = %q, want tok-1", req.StateToken)
		}
		g.setAuthenticated(true)
		writeJSON(w, MessageResponse{Message: "Login successful"})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	done, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass")
	if err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	if done {
		t.Fatal("expected a pending MFA challenge")
	}
	state := flow.State()
	if state.Step != StepSelectMethod {
		t.Fatalf("step = %s, want SELECT_METHOD", state.Step)
	}
	if len(state.Methods) != 1 || state.Methods[0] != MethodEmailMFA {
		t.Fatalf("methods = %v, want [%s]", state.Methods, MethodEmailMFA)
	}
	if state.SessionCountdown != 300 {
		t.Fatalf("session countdown = %d, want 300", state.SessionCountdown)
	}

	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	state = flow.State()
	if state.Step != StepVerify {
		t.Fatalf("step = %s, want VERIFY", state.Step)
	}
	if state.ResendCountdown != 60 {
		t.Fatalf("resend countdown = %d, want 60", state.ResendCountdown)
	}

	// A bad code surfaces as a field error, not a session reset.
	if err := flow.VerifyOTP(context.Background(), "000000"); err == nil {
		t.Fatal("expected bad OTP to fail")
	}
	if msg := flow.State().Errors["otp"]; msg != "Invalid OTP" {
		t.Fatalf(`otp error = %q, want "Invalid OTP"`, msg)
	}

	if err := flow.VerifyOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if flow.State().Step != StepDone {
		t.Fatalf("step = %s, want DONE", flow.State().Step)
	}
	if !client.Session().IsAuthenticated() {
		t.Fatal("expected authenticated session after MFA login")
	}
}

func TestLoginFlowValidatesInput(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "x", "Secr3t!pass"); err == nil {
		t.Fatal("expected identifier validation to fail")
	}
	if flow.State().Errors["username"] == "" {
		t.Fatal("expected a username field error")
	}

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "short"); err == nil {
		t.Fatal("expected password validation to fail")
	}
	if flow.State().Errors["password"] == "" {
		t.Fatal("expected a password field error")
	}
}

func TestLoginFlowCredentialRejection(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSONStatus(w, http.StatusUnauthorized, map[string]string{"message": "Invalid user credentials"})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "Wr0ng!pass"); err == nil {
		t.Fatal("expected credential rejection")
	}
	// The server message contains "user", so it routes to the identifier
	// field instead of a general notice.
	if msg := flow.State().Errors["username"]; msg != "Invalid user credentials" {
		t.Fatalf("username error = %q", msg)
	}
	if flow.State().Step != StepRequest {
		t.Fatalf("step = %s, want REQUEST", flow.State().Step)
	}
}

func TestLoginFlowChallengeExpiry(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, LoginResponse{MFAMethods: []string{MethodEmailMFA}, StateToken: "tok-1"})
	})
	client, sink := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass"); err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	before := sink.count()

	for i := 0; i < 300; i++ {
		flow.Tick()
	}
	state := flow.State()
	if state.Step != StepRequest {
		t.Fatalf("step after expiry = %s, want REQUEST", state.Step)
	}
	if state.SessionCountdown != 0 {
		t.Fatalf("session countdown = %d, want 0", state.SessionCountdown)
	}
	if flow.token() != "" {
		t.Fatal("expected state token cleared on expiry")
	}
	if got := sink.count() - before; got != 1 {
		t.Fatalf("expected exactly one expiry warning, got %d", got)
	}

	// Extra ticks after the reset must not fire the warning again.
	for i := 0; i < 10; i++ {
		flow.Tick()
	}
	if got := sink.count() - before; got != 1 {
		t.Fatalf("expiry warning fired again: %d notices", got)
	}

	// Operations against the dead challenge report expiry, not a step error.
	if err := flow.VerifyOTP(context.Background(), "123456"); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestLoginFlowResendCooldown(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, LoginResponse{MFAMethods: []string{MethodEmailMFA}, StateToken: "tok-1"})
	})
	g.handle(pathRequestMFALogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass"); err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}

	if err := flow.Resend(context.Background()); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown, got %v", err)
	}

	for i := 0; i < 60; i++ {
		flow.Tick()
	}
	if flow.State().ResendCountdown != 0 {
		t.Fatalf("resend countdown = %d, want 0", flow.State().ResendCountdown)
	}
	if err := flow.Resend(context.Background()); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if flow.State().ResendCountdown != 60 {
		t.Fatalf("resend countdown after resend = %d, want 60", flow.State().ResendCountdown)
	}
}

func TestFlowBack(t *testing.T) {
	g := newGateway()
	g.handle(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, LoginResponse{MFAMethods: []string{MethodEmailMFA, MethodAuthenticatorAppMFA}, StateToken: "tok-1"})
	})
	g.handle(pathRequestMFALogin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass"); err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}

	flow.Back()
	state := flow.State()
	if state.Step != StepSelectMethod {
		t.Fatalf("step = %s, want SELECT_METHOD", state.Step)
	}
	if state.SelectedMethod != "" {
		t.Fatalf("selected method = %q, want empty", state.SelectedMethod)
	}

	flow.Back()
	if flow.State().Step != StepRequest {
		t.Fatalf("step = %s, want REQUEST", flow.State().Step)
	}
	if flow.State().SessionCountdown != 0 {
		t.Fatal("expected countdown stopped after backing out")
	}
}

func TestChangePasswordFlowDirect(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathChangePassword, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MethodsResponse{Message: "Password changed"})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewChangePasswordFlow()
	defer flow.Close()

	done, err := flow.Submit(context.Background(), "Old3t!pass", "New3t!pass", "New3t!pass")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !done {
		t.Fatal("expected direct completion without MFA")
	}
	// The change revoked every session server-side.
	if client.Session().IsAuthenticated() {
		t.Fatal("expected local session cleared")
	}
}

func TestChangePasswordFlowConfirmMismatch(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	flow := client.NewChangePasswordFlow()
	defer flow.Close()

	if _, err := flow.Submit(context.Background(), "Old3t!pass", "New3t!pass", "Other3t!pass"); err == nil {
		t.Fatal("expected confirm mismatch to fail")
	}
	if msg := flow.State().Errors["confirmNewPassword"]; msg != errConfirmMismatch.Error() {
		t.Fatalf("confirm error = %q", msg)
	}
}

func TestChangePasswordFlowWithMFA(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathChangePassword, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MethodsResponse{Methods: []string{MethodEmailMFA}})
	})
	g.handle(pathChangePasswordMethodSelection, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != MethodEmailMFA {
			t.Errorf("method query = %q, want %s", got, MethodEmailMFA)
		}
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	g.handle(pathVerifyChangePassword, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[VerifyChangePasswordRequest](t, r)
		if req.OTPTOTP != "123456" {
			t.Errorf("otp = %q, want 123456", req.OTPTOTP)
		}
		writeJSON(w, MessageResponse{Message: "Password changed"})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewChangePasswordFlow()
	defer flow.Close()

	done, err := flow.Submit(context.Background(), "Old3t!pass", "New3t!pass", "New3t!pass")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if done {
		t.Fatal("expected a pending MFA challenge")
	}
	// The challenge countdown starts on method selection, not on submit.
	if flow.State().SessionCountdown != 0 {
		t.Fatalf("countdown before selection = %d, want 0", flow.State().SessionCountdown)
	}

	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	if flow.State().SessionCountdown != 300 {
		t.Fatalf("countdown after selection = %d, want 300", flow.State().SessionCountdown)
	}

	if err := flow.Verify(context.Background(), "123456"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if flow.State().Step != StepDone {
		t.Fatalf("step = %s, want DONE", flow.State().Step)
	}
	if client.Session().IsAuthenticated() {
		t.Fatal("expected local session cleared after password change")
	}
}

func TestChangePasswordFlowExpiryReturnsToSelection(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathChangePassword, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MethodsResponse{Methods: []string{MethodEmailMFA}})
	})
	g.handle(pathChangePasswordMethodSelection, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewChangePasswordFlow()
	defer flow.Close()

	if _, err := flow.Submit(context.Background(), "Old3t!pass", "New3t!pass", "New3t!pass"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}

	for i := 0; i < 300; i++ {
		flow.Tick()
	}
	if flow.State().Step != StepSelectMethod {
		t.Fatalf("step after expiry = %s, want SELECT_METHOD", flow.State().Step)
	}
}

func TestMFAToggleFlowAuthenticatorEnable(t *testing.T) {
	qr := []byte{0x89, 'P', 'N', 'G'}

	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathRequestToggleMFA, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[ToggleMFARequest](t, r)
		if req.Type != MethodAuthenticatorAppMFA || req.Toggle != "enable" {
			t.Errorf("unexpected toggle request %+v", req)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(qr)
	})
	g.handle(pathVerifyToggleMFA, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "MFA enabled successfully"})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewMFAToggleFlow()
	defer flow.Close()

	if err := flow.Request(context.Background(), MethodAuthenticatorAppMFA, true); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(flow.QRCode()) != string(qr) {
		t.Fatal("expected enrollment QR bytes")
	}
	// No email code in play; nothing to resend.
	if flow.State().ResendCountdown != 0 {
		t.Fatalf("resend countdown = %d, want 0", flow.State().ResendCountdown)
	}

	loggedOut, err := flow.Verify(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if loggedOut {
		t.Fatal("enable should keep the session")
	}
	if !client.Session().IsAuthenticated() {
		t.Fatal("expected session to survive the toggle")
	}
	// The flow is reusable: back to idle for the next toggle.
	if flow.State().Step != StepRequest {
		t.Fatalf("step = %s, want REQUEST", flow.State().Step)
	}
	if len(flow.QRCode()) != 0 {
		t.Fatal("expected QR cleared after completion")
	}
}

func TestMFAToggleFlowResendRefreshesQR(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	var requests atomic.Int32
	g.handle(pathRequestToggleMFA, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = fmt.Fprintf(w, "png-%d", requests.Add(1))
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewMFAToggleFlow()
	defer flow.Close()

	if err := flow.Request(context.Background(), MethodAuthenticatorAppMFA, true); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(flow.QRCode()) != "png-1" {
		t.Fatalf("QR = %q, want png-1", flow.QRCode())
	}

	// A re-issued enrollment invalidates the first secret; the flow must
	// expose the fresh image, not the stale one.
	if err := flow.Resend(context.Background()); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if string(flow.QRCode()) != "png-2" {
		t.Fatalf("QR after resend = %q, want png-2", flow.QRCode())
	}
}

func TestMFAToggleFlowDisableLogsOut(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathRequestToggleMFA, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	g.handle(pathVerifyToggleMFA, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "MFA disabled. Please log in again."})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewMFAToggleFlow()
	defer flow.Close()

	if err := flow.Request(context.Background(), MethodEmailMFA, false); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if flow.State().ResendCountdown != 60 {
		t.Fatalf("resend countdown = %d, want 60", flow.State().ResendCountdown)
	}

	loggedOut, err := flow.Verify(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !loggedOut {
		t.Fatal("expected the toggle to end the session")
	}
	if client.Session().IsAuthenticated() {
		t.Fatal("expected local session cleared")
	}
	if flow.State().Step != StepDone {
		t.Fatalf("step = %s, want DONE", flow.State().Step)
	}
}

func TestForgotPasswordFlow(t *testing.T) {
	g := newGateway()
	g.handle(pathForgotPassword, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MethodsResponse{Methods: []string{MethodEmailMFA}})
	})
	g.handle(pathForgotPasswordMethodSelection, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != MethodEmailMFA {
			t.Errorf("method query = %q, want %s", got, MethodEmailMFA)
		}
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	g.handle(pathResetPassword, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[ResetPasswordRequest](t, r)
		if req.OTPTOTP != "123456" {
			t.Errorf("otp = %q, want 123456", req.OTPTOTP)
		}
		writeJSON(w, MessageResponse{Message: "Password reset"})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewForgotPasswordFlow()
	defer flow.Close()

	if err := flow.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if flow.State().Step != StepSelectMethod {
		t.Fatalf("step = %s, want SELECT_METHOD", flow.State().Step)
	}

	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	if err := flow.SubmitReset(context.Background(), "123456", "New3t!pass", "New3t!pass"); err != nil {
		t.Fatalf("SubmitReset failed: %v", err)
	}
	if flow.State().Step != StepDone {
		t.Fatalf("step = %s, want DONE", flow.State().Step)
	}
}

func TestForgotPasswordFlowNoMethods(t *testing.T) {
	g := newGateway()
	g.handle(pathForgotPassword, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MethodsResponse{})
	})
	client, _ := newTestClient(t, g)

	flow := client.NewForgotPasswordFlow()
	defer flow.Close()

	if err := flow.Submit(context.Background(), "alice"); !errors.Is(err, ErrNoMethods) {
		t.Fatalf("expected ErrNoMethods, got %v", err)
	}
}

func TestChangeEmailFlow(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathEmailChangeRequest, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "Codes sent to both addresses"})
	})
	g.handle(pathVerifyEmailChange, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[VerifyEmailChangeRequest](t, r)
		if req.OldEmailOTP != "111111" || req.NewEmailOTP != "222222" {
			t.Errorf("unexpected codes %+v", req)
		}
		writeJSON(w, MessageResponse{Message: "Email changed"})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewChangeEmailFlow()
	defer flow.Close()

	if err := flow.Submit(context.Background(), "not-an-email"); err == nil {
		t.Fatal("expected email validation to fail")
	}
	if flow.State().Errors["newEmail"] == "" {
		t.Fatal("expected a newEmail field error")
	}

	if err := flow.Submit(context.Background(), "alice-new@orgv.test"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	state := flow.State()
	if state.Step != StepVerify {
		t.Fatalf("step = %s, want VERIFY", state.Step)
	}
	if state.SessionCountdown != 300 || state.ResendCountdown != 60 {
		t.Fatalf("countdowns = %d/%d, want 300/60", state.SessionCountdown, state.ResendCountdown)
	}

	if err := flow.Verify(context.Background(), "111111", "222222", "Secr3t!pass"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	// A successful email change revokes the session.
	if client.Session().IsAuthenticated() {
		t.Fatal("expected local session cleared")
	}
}

func TestDeleteAccountFlow(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathDeleteAccount, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		writeJSON(w, MethodsResponse{Methods: []string{MethodAuthenticatorAppMFA}})
	})
	g.handle(pathDeleteAccountMethodSelection, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{})
	})
	g.handle(pathVerifyDeleteAccount, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		writeJSON(w, MessageResponse{Message: "Account deleted"})
	})
	client, _ := newTestClient(t, g)
	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	flow := client.NewDeleteAccountFlow()
	defer flow.Close()

	done, err := flow.Submit(context.Background(), "Secr3t!pass")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if done {
		t.Fatal("expected a pending MFA challenge")
	}
	if err := flow.SelectMethod(context.Background(), MethodAuthenticatorAppMFA); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	// Authenticator codes have no cooldown; nothing was emailed.
	if flow.State().ResendCountdown != 0 {
		t.Fatalf("resend countdown = %d, want 0", flow.State().ResendCountdown)
	}
	if err := flow.Verify(context.Background(), "123456"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if client.Session().IsAuthenticated() {
		t.Fatal("expected local session cleared after deletion")
	}
}

func TestFlowRejectsWrongStep(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	defer flow.Close()

	if err := flow.SelectMethod(context.Background(), MethodEmailMFA); !errors.Is(err, ErrChallengeStep) {
		t.Fatalf("expected ErrChallengeStep, got %v", err)
	}
	if err := flow.VerifyOTP(context.Background(), "123456"); !errors.Is(err, ErrChallengeStep) {
		t.Fatalf("expected ErrChallengeStep, got %v", err)
	}
}

func TestFlowRejectsAfterClose(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	flow := client.NewLoginFlow()
	flow.Close()

	if _, err := flow.SubmitCredentials(context.Background(), "alice", "Secr3t!pass"); !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}
}
