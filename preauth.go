package orgvclient

// preAuthPaths are the endpoints reachable without an established session.
// A refresh failure on one of these propagates the error to the caller so
// the entry form can display it; anywhere else it becomes a session-expired
// broadcast instead.
var preAuthPaths = map[string]struct{}{
	pathCSRF:                          {},
	pathLogin:                         {},
	pathRequestMFALogin:               {},
	pathVerifyMFALogin:                {},
	pathRegister:                      {},
	pathVerifyEmail:                   {},
	pathResendEmailVerificationLink:   {},
	pathForgotPassword:                {},
	pathForgotPasswordMethodSelection: {},
	pathResetPassword:                 {},
}

func isPreAuthPath(path string) bool {
	_, ok := preAuthPaths[path]
	return ok
}
