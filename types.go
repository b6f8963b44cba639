package orgvclient

// Verification method identifiers issued by the platform.
const (
	MethodEmailMFA            = "EMAIL_MFA"
	MethodAuthenticatorAppMFA = "AUTHENTICATOR_APP_MFA"
)

// Permission is one grantable permission as rendered by the user service.
type Permission struct {
	PermissionName string `json:"permissionName"`
	CreatedAt      string `json:"createdAt"`
	CreatedBy      string `json:"createdBy"`
}

// Role is one role with its permission set.
type Role struct {
	RoleName    string       `json:"roleName"`
	Description *string      `json:"description"`
	SystemRole  bool         `json:"systemRole"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   *string      `json:"updatedAt"`
	CreatedBy   string       `json:"createdBy"`
	UpdatedBy   *string      `json:"updatedBy"`
}

// ExternalIdentity is a linked OAuth2 identity.
type ExternalIdentity struct {
	ID                string `json:"id"`
	Provider          string `json:"provider"`
	ProviderUserID    string `json:"providerUserId"`
	Email             string `json:"email"`
	CreatedAt         string `json:"createdAt"`
	LinkedAt          string `json:"linkedAt"`
	LastUsedAt        string `json:"lastUsedAt"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	UserID            string `json:"userId"`
}

// UserSummary is the self-details projection of the authenticated account.
type UserSummary struct {
	ID                      string             `json:"id"`
	FirstName               string             `json:"firstName"`
	MiddleName              *string            `json:"middleName"`
	LastName                *string            `json:"lastName"`
	Username                string             `json:"username"`
	Email                   string             `json:"email"`
	CreatedBy               string             `json:"createdBy"`
	UpdatedBy               *string            `json:"updatedBy"`
	Roles                   []Role             `json:"roles"`
	MFAMethods              []string           `json:"mfaMethods"`
	LastLoginAt             *string            `json:"lastLoginAt"`
	PasswordChangedAt       string             `json:"passwordChangedAt"`
	CreatedAt               string             `json:"createdAt"`
	UpdatedAt               *string            `json:"updatedAt"`
	LastLockedAt            *string            `json:"lastLockedAt"`
	EmailVerified           bool               `json:"emailVerified"`
	MFAEnabled              bool               `json:"mfaEnabled"`
	AccountLocked           bool               `json:"accountLocked"`
	AccountEnabled          bool               `json:"accountEnabled"`
	FailedLoginAttempts     int                `json:"failedLoginAttempts"`
	FailedMFAAttempts       int                `json:"failedMfaAttempts"`
	AllowedConcurrentLogins int                `json:"allowedConcurrentLogins"`
	OAuth2User              bool               `json:"oauth2User"`
	ExternalIdentities      []ExternalIdentity `json:"externalIdentities"`
}

// LoginRequest carries the primary credentials.
type LoginRequest struct {
	UsernameOrEmailOrID string `json:"usernameOrEmailOrId"`
	Password            string `json:"password"`
}

// LoginResponse either establishes the session directly or demands a second
// factor via the returned methods and state token.
type LoginResponse struct {
	MFAMethods []string `json:"mfa_methods,omitempty"`
	StateToken string   `json:"state_token,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// MessageResponse is the generic message-only body most endpoints return.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// MethodsResponse is returned by flow initiations that may demand a second
// factor: a method list advances the flow, an empty one means direct success.
type MethodsResponse struct {
	Message string   `json:"message,omitempty"`
	Methods []string `json:"methods,omitempty"`
}

// RequestMFALoginRequest selects (or re-requests) a login verification method.
type RequestMFALoginRequest struct {
	Type       string `json:"type"`
	StateToken string `json:"stateToken"`
}

// VerifyMFALoginRequest completes the MFA login challenge.
type VerifyMFALoginRequest struct {
	Type       string `json:"type"`
	StateToken string `json:"stateToken"`
	OTPTOTP    string `json:"otpTotp"`
}

// ToggleMFARequest enables or disables one MFA method. Toggle is the literal
// "enable" or "disable".
type ToggleMFARequest struct {
	Type   string `json:"type"`
	Toggle string `json:"toggle"`
}

// VerifyToggleMFARequest completes an MFA toggle challenge.
type VerifyToggleMFARequest struct {
	Type    string `json:"type"`
	Toggle  string `json:"toggle"`
	OTPTOTP string `json:"otpTotp"`
}

// ActiveDevicesResponse maps device identifiers to their last-seen rendering;
// CurrentDeviceID names the caller's own device.
type ActiveDevicesResponse struct {
	CurrentDeviceID string            `json:"current_device_id"`
	Devices         map[string]string `json:"-"`
}

// RegisterRequest creates a self-service account.
type RegisterRequest struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  string  `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
}

// ChangePasswordRequest initiates the password change challenge.
type ChangePasswordRequest struct {
	OldPassword        string `json:"oldPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// VerifyChangePasswordRequest completes the password change challenge.
type VerifyChangePasswordRequest struct {
	OldPassword        string  `json:"oldPassword"`
	NewPassword        string  `json:"newPassword"`
	ConfirmNewPassword string  `json:"confirmNewPassword"`
	Method             *string `json:"method"`
	OTPTOTP            string  `json:"otpTotp"`
}

// ResetPasswordRequest completes the forgotten-password recovery.
type ResetPasswordRequest struct {
	UsernameOrEmailOrID string `json:"usernameOrEmailOrId"`
	Method              string `json:"method"`
	OTPTOTP             string `json:"otpTotp"`
	NewPassword         string `json:"newPassword"`
	ConfirmNewPassword  string `json:"confirmNewPassword"`
}

// VerifyEmailChangeRequest completes an email change with both OTPs.
type VerifyEmailChangeRequest struct {
	NewEmailOTP string `json:"newEmailOtp"`
	OldEmailOTP string `json:"oldEmailOtp"`
	Password    string `json:"password"`
}

// UpdateDetailsRequest updates mutable profile fields; OldPassword gates it.
type UpdateDetailsRequest struct {
	Username    *string `json:"username"`
	FirstName   *string `json:"firstName"`
	MiddleName  *string `json:"middleName"`
	LastName    *string `json:"lastName"`
	OldPassword string  `json:"oldPassword"`
}
