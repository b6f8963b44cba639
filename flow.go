package orgvclient

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Step identifies a phase of a challenge flow.
type Step string

// Challenge flow steps. Not every flow visits every step; flows without a
// method-selection phase go straight from REQUEST to VERIFY.
const (
	StepRequest      Step = "REQUEST"
	StepSelectMethod Step = "SELECT_METHOD"
	StepVerify       Step = "VERIFY"
	StepDone         Step = "DONE"
)

// FlowState is a point-in-time snapshot of a challenge flow, safe to render
// after the flow has moved on.
type FlowState struct {
	Step             Step
	Methods          []string
	SelectedMethod   string
	LoadingMethod    string
	SessionCountdown int
	ResendCountdown  int
	Errors           map[string]string
}

// fieldRule routes a server message containing keyword to a field-level
// error. Matching is best-effort lowercase substring search; the server does
// not return structured error codes.
type fieldRule struct {
	keyword string
	field   string
}

// flowCore is the shared machinery of the six challenge flows: the step
// value, the two countdowns, the single-loading-method guard and the error
// map. Each flow owns exactly one core; cores are never shared between
// flows. All mutation happens under mu; network calls happen outside it.
type flowCore struct {
	name    string
	cfg     ChallengeConfig
	notices *noticeCenter
	logger  *slog.Logger

	// expireTo is where the session countdown reaching zero aborts the flow
	// back to.
	expireTo      Step
	expireMessage string
	// onExpire clears flow-specific state (tokens, inputs) on abort; called
	// under mu.
	onExpire func()

	mu               sync.Mutex
	step             Step
	methods          []string
	selectedMethod   string
	loadingMethod    string
	loading          bool
	sessionCountdown int
	resendCountdown  int
	errors           map[string]string
	expired          bool
	closed           bool

	stopTicker chan struct{}
}

func newFlowCore(name string, cfg ChallengeConfig, notices *noticeCenter, logger *slog.Logger, expireTo Step, expireMessage string) *flowCore {
	f := &flowCore{
		name:          name,
		cfg:           cfg,
		notices:       notices,
		logger:        logger,
		expireTo:      expireTo,
		expireMessage: expireMessage,
		step:          StepRequest,
		errors:        map[string]string{},
	}
	if cfg.TickInterval > 0 {
		f.stopTicker = make(chan struct{})
		go f.run()
	}
	return f
}

// run drives the one-second tick until Close.
func (f *flowCore) run() {
	ticker := time.NewTicker(f.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopTicker:
			return
		case <-ticker.C:
			f.Tick()
		}
	}
}

// Tick advances both countdowns by one second. The session countdown hitting
// zero while a challenge is pending aborts the flow back to its earlier step
// with a warning, clearing the code and errors; the resend countdown hitting
// zero merely re-enables the resend affordance. Tests drive Tick directly
// with the background ticker disabled.
func (f *flowCore) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.resendCountdown > 0 {
		f.resendCountdown--
	}
	if f.sessionCountdown > 0 {
		f.sessionCountdown--
		if f.sessionCountdown == 0 && f.step != f.expireTo && f.step != StepDone {
			f.expireLocked()
		}
	}
}

func (f *flowCore) expireLocked() {
	f.notices.notify(NoticeWarning, "", f.expireMessage)
	f.logger.Debug("challenge expired", "flow", f.name, "returning_to", string(f.expireTo))
	f.step = f.expireTo
	f.errors = map[string]string{}
	f.loadingMethod = ""
	f.resendCountdown = 0
	f.expired = true
	if f.onExpire != nil {
		f.onExpire()
	}
}

// Close stops the flow's ticker. Idempotent; the flow rejects further
// operations.
func (f *flowCore) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.sessionCountdown = 0
	f.resendCountdown = 0
	if f.stopTicker != nil {
		close(f.stopTicker)
	}
}

// State returns a snapshot of the flow.
func (f *flowCore) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	return FlowState{
		Step:             f.step,
		Methods:          append([]string(nil), f.methods...),
		SelectedMethod:   f.selectedMethod,
		LoadingMethod:    f.loadingMethod,
		SessionCountdown: f.sessionCountdown,
		ResendCountdown:  f.resendCountdown,
		Errors:           errs,
	}
}

// beginOp marks the flow busy for a whole-flow operation (submit, verify).
func (f *flowCore) beginOp() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	if f.loading {
		return ErrMethodPending
	}
	f.loading = true
	f.errors = map[string]string{}
	return nil
}

func (f *flowCore) endOp() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

// beginMethod marks one method loading. Selecting a method while another is
// loading is rejected, which is what makes double-clicks harmless.
func (f *flowCore) beginMethod(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	if f.loadingMethod != "" {
		return ErrMethodPending
	}
	f.loadingMethod = method
	return nil
}

func (f *flowCore) endMethod() {
	f.mu.Lock()
	f.loadingMethod = ""
	f.mu.Unlock()
}

// requireStep rejects an operation issued from the wrong step. When the
// mismatch is because the challenge countdown already aborted the flow, the
// caller learns that instead of a generic step error.
func (f *flowCore) requireStep(want Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != want {
		if f.expired {
			return ErrChallengeExpired
		}
		return ErrChallengeStep
	}
	return nil
}

// enterSelect records the offered methods and moves to method selection.
// The login flow starts its challenge countdown here (the server's state
// token is already live); the in-session flows start it on method selection.
func (f *flowCore) enterSelect(methods []string, startSession bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append([]string(nil), methods...)
	f.step = StepSelectMethod
	f.expired = false
	if startSession {
		f.sessionCountdown = f.cfg.SessionTTLSeconds
	}
}

// enterVerify records the chosen method and moves to verification. The
// resend countdown starts only for the email method; the authenticator app
// has nothing to resend.
func (f *flowCore) enterVerify(method string, startSession bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedMethod = method
	f.step = StepVerify
	f.expired = false
	if startSession {
		f.sessionCountdown = f.cfg.SessionTTLSeconds
	}
	if method == MethodEmailMFA {
		f.resendCountdown = f.cfg.ResendCooldownSeconds
	}
}

// canResend gates the resend affordance on the cooldown and a chosen method.
func (f *flowCore) canResend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	if f.selectedMethod == "" {
		return ErrNoMethods
	}
	if f.resendCountdown > 0 {
		return ErrResendCooldown
	}
	return nil
}

// resetResend restarts the cooldown after a successful resend.
func (f *flowCore) resetResend() {
	f.mu.Lock()
	f.resendCountdown = f.cfg.ResendCooldownSeconds
	f.mu.Unlock()
}

// Back steps the flow back one phase, clearing the code and errors. From
// VERIFY it returns to SELECT_METHOD when the flow offered a choice,
// otherwise to REQUEST.
func (f *flowCore) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepVerify:
		f.errors = map[string]string{}
		f.selectedMethod = ""
		f.resendCountdown = 0
		if len(f.methods) > 0 {
			f.step = StepSelectMethod
		} else {
			f.step = StepRequest
			f.sessionCountdown = 0
		}
	case StepSelectMethod:
		f.errors = map[string]string{}
		f.methods = nil
		f.sessionCountdown = 0
		f.step = StepRequest
	}
}

// finish marks the flow terminally complete and stops both countdowns.
func (f *flowCore) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepDone
	f.sessionCountdown = 0
	f.resendCountdown = 0
	f.loadingMethod = ""
}

// failField records a field-level error.
func (f *flowCore) failField(field, message string) {
	f.mu.Lock()
	f.errors[field] = message
	f.mu.Unlock()
}

// errConfirmMismatch matches the wording the password forms show.
var errConfirmMismatch = errors.New("Confirm password does not match")

// failFields records every non-nil entry as a field error and returns one of
// them, or nil when all inputs validated.
func (f *flowCore) failFields(fieldErrs map[string]error) error {
	var firstErr error
	f.mu.Lock()
	for field, err := range fieldErrs {
		if err == nil {
			continue
		}
		f.errors[field] = err.Error()
		firstErr = err
	}
	f.mu.Unlock()
	return firstErr
}

// routeError classifies a server error once per flow: the first rule whose
// keyword the lowercased message contains claims it as a field error;
// anything else surfaces as a general notice. Errors without a server
// message (network, decode) fall back to a flow-specific message.
func (f *flowCore) routeError(err error, fallback string, rules ...fieldRule) {
	message := apiMessage(err)
	if message == "" {
		f.notices.errorf(fallback)
		return
	}
	lower := strings.ToLower(message)
	for _, rule := range rules {
		if strings.Contains(lower, rule.keyword) {
			f.failField(rule.field, message)
			return
		}
	}
	f.notices.errorf(message)
}
