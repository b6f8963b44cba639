package orgvclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// CompanyUser is the admin projection of an account; it exposes fields the
// self view hides (real email behind a deletion mask, deletion audit trail).
type CompanyUser struct {
	UserSummary
	RealEmail          string  `json:"realEmail"`
	AccountDeleted     bool    `json:"accountDeleted"`
	AccountDeletedAt   *string `json:"accountDeletedAt"`
	AccountDeletedBy   *string `json:"accountDeletedBy"`
	AccountRecoveredAt *string `json:"accountRecoveredAt"`
	AccountRecoveredBy *string `json:"accountRecoveredBy"`
}

// CreateUserRequest provisions an account with admin-only attributes set at
// creation time.
type CreateUserRequest struct {
	RegisterRequest
	Roles                   []string `json:"roles"`
	AllowedConcurrentLogins int      `json:"allowedConcurrentLogins"`
	EmailVerified           bool     `json:"emailVerified"`
	AccountLocked           bool     `json:"accountLocked"`
	AccountEnabled          bool     `json:"accountEnabled"`
	AccountDeleted          bool     `json:"accountDeleted"`
}

// UpdateUserRequest rewrites an account identified by its old username.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	OldUsername             string   `json:"oldUsername"`
	Username                *string  `json:"username"`
	Email                   *string  `json:"email"`
	Password                *string  `json:"password"`
	FirstName               *string  `json:"firstName"`
	MiddleName              *string  `json:"middleName"`
	LastName                *string  `json:"lastName"`
	Roles                   []string `json:"roles"`
	AllowedConcurrentLogins *int     `json:"allowedConcurrentLogins"`
	EmailVerified           *bool    `json:"emailVerified"`
	AccountLocked           *bool    `json:"accountLocked"`
	AccountEnabled          *bool    `json:"accountEnabled"`
	AccountDeleted          *bool    `json:"accountDeleted"`
}

// RoleRequest creates or rewrites a role.
type RoleRequest struct {
	RoleName    string   `json:"roleName"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}

// RoleSummary is the admin projection of a role.
type RoleSummary struct {
	RoleName    string       `json:"roleName"`
	Description *string      `json:"description"`
	CreatedBy   string       `json:"createdBy"`
	UpdatedBy   *string      `json:"updatedBy"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   *string      `json:"updatedAt"`
	SystemRole  bool         `json:"systemRole"`
}

// Bulk admin operations answer per-item: the succeeded entries plus
// keyed reasons for the rest. With leniency enabled the server applies what
// it can and reports the remainder; disabled, one bad entry fails the batch.

// CreateUsersResponse reports a bulk user creation.
type CreateUsersResponse struct {
	Message                string          `json:"message,omitempty"`
	CreatedUsers           []CompanyUser   `json:"created_users,omitempty"`
	ReasonsAllNotCreated   json.RawMessage `json:"reasons_due_to_which_users_has_not_been_created,omitempty"`
	ReasonsSomeNotCreated  json.RawMessage `json:"reasons_due_to_which_some_users_has_not_been_created,omitempty"`
	MissingRoles           []string        `json:"missing_roles,omitempty"`
	NotAllowedToAssign     []string        `json:"not_allowed_to_assign_roles,omitempty"`
}

// ReadUsersResponse reports a bulk user lookup.
type ReadUsersResponse struct {
	Message                string          `json:"message,omitempty"`
	FoundUsers             []CompanyUser   `json:"found_users,omitempty"`
	NotFoundUsernames      []string        `json:"users_not_found_with_usernames,omitempty"`
	NotFoundEmails         []string        `json:"users_not_found_with_emails,omitempty"`
	NotFoundIDs            []string        `json:"users_not_found_with_ids,omitempty"`
	ReasonsAllNotReturned  json.RawMessage `json:"reasons_due_to_which_users_has_not_been_returned,omitempty"`
	ReasonsSomeNotReturned json.RawMessage `json:"reasons_due_to_which_some_users_has_not_been_returned,omitempty"`
}

// UpdateUsersResponse reports a bulk user update.
type UpdateUsersResponse struct {
	Message               string          `json:"message,omitempty"`
	UpdatedUsers          []CompanyUser   `json:"updated_users,omitempty"`
	ReasonsAllNotUpdated  json.RawMessage `json:"reasons_due_to_which_users_has_not_been_updated,omitempty"`
	ReasonsSomeNotUpdated json.RawMessage `json:"reasons_due_to_which_some_users_has_not_been_updated,omitempty"`
	CannotUpdateOwn       string          `json:"cannot_update_own_account_using_this_endpoint,omitempty"`
	NotFoundOldUsernames  []string        `json:"users_not_found_with_old_usernames,omitempty"`
	UsernamesTaken        []string        `json:"usernames_already_taken,omitempty"`
	EmailsTaken           []string        `json:"emails_already_taken,omitempty"`
	MissingRoles          []string        `json:"missing_roles,omitempty"`
	AboveUpdaterRoles     []string        `json:"cannot_update_users_having_roles_higher_or_equal_than_updater_roles,omitempty"`
	AboveUpdaterUsernames []string        `json:"cannot_update_users_having_roles_higher_or_equal_than_updater_usernames,omitempty"`
	NotAllowedToAssign    []string        `json:"not_allowed_to_assign_roles,omitempty"`
}

// DeleteUsersResponse reports a bulk user deletion.
type DeleteUsersResponse struct {
	Message                 string          `json:"message,omitempty"`
	ReasonsAllNotDeleted    json.RawMessage `json:"reasons_due_to_which_users_has_not_been_deleted,omitempty"`
	ReasonsSomeNotDeleted   json.RawMessage `json:"reasons_due_to_which_some_users_has_not_been_deleted,omitempty"`
	CannotDeleteOwn         []string        `json:"you_cannot_delete_your_own_account_using_this_endpoint,omitempty"`
	NotFoundUsernames       []string        `json:"users_not_found_with_usernames,omitempty"`
	NotFoundEmails          []string        `json:"users_not_found_with_emails,omitempty"`
	NotFoundIDs             []string        `json:"users_not_found_with_ids,omitempty"`
	AboveDeleterRoles       []string        `json:"cannot_delete_users_having_roles_higher_or_equal_than_deleter_roles,omitempty"`
	AboveDeleterIdentifiers []string        `json:"cannot_delete_users_having_roles_higher_or_equal_than_deleter_identifiers,omitempty"`
}

// CreateRolesResponse reports a bulk role creation.
type CreateRolesResponse struct {
	Message               string          `json:"message,omitempty"`
	CreatedRoles          []RoleSummary   `json:"created_roles,omitempty"`
	ReasonsAllNotCreated  json.RawMessage `json:"reasons_due_to_which_roles_has_not_been_created,omitempty"`
	ReasonsSomeNotCreated json.RawMessage `json:"reasons_due_to_which_some_roles_has_not_been_created,omitempty"`
	RoleNamesTaken        []string        `json:"role_names_already_taken,omitempty"`
	MissingPermissions    []string        `json:"missing_permissions,omitempty"`
}

// ReadRolesResponse reports a bulk role lookup.
type ReadRolesResponse struct {
	Message                string          `json:"message,omitempty"`
	FoundRoles             []RoleSummary   `json:"found_roles,omitempty"`
	RolesNotFound          []string        `json:"roles_not_found,omitempty"`
	ReasonsAllNotReturned  json.RawMessage `json:"reasons_due_to_which_roles_has_not_been_returned,omitempty"`
	ReasonsSomeNotReturned json.RawMessage `json:"reasons_due_to_which_some_roles_has_not_been_returned,omitempty"`
}

// UpdateRolesResponse reports a bulk role update.
type UpdateRolesResponse struct {
	Message               string          `json:"message,omitempty"`
	UpdatedRoles          []RoleSummary   `json:"updated_roles,omitempty"`
	ReasonsAllNotUpdated  json.RawMessage `json:"reasons_due_to_which_roles_has_not_been_updated,omitempty"`
	ReasonsSomeNotUpdated json.RawMessage `json:"reasons_due_to_which_some_roles_has_not_been_updated,omitempty"`
	RolesNotFound         []string        `json:"roles_not_found,omitempty"`
	SystemRoles           []string        `json:"system_roles_cannot_be_updated,omitempty"`
	MissingPermissions    []string        `json:"missing_permissions,omitempty"`
}

// DeleteRolesResponse reports a bulk role deletion.
type DeleteRolesResponse struct {
	Message               string          `json:"message,omitempty"`
	ReasonsAllNotDeleted  json.RawMessage `json:"reasons_due_to_which_roles_has_not_been_deleted,omitempty"`
	ReasonsSomeNotDeleted json.RawMessage `json:"reasons_due_to_which_some_roles_has_not_been_deleted,omitempty"`
	RolesNotFound         []string        `json:"roles_not_found,omitempty"`
	SystemRoles           []string        `json:"system_roles_cannot_be_deleted,omitempty"`
	RolesAssignedToUsers  []string        `json:"roles_assigned_to_users,omitempty"`
}

// ReadPermissionsResponse reports a bulk permission lookup.
type ReadPermissionsResponse struct {
	Message                string          `json:"message,omitempty"`
	FoundPermissions       []Permission    `json:"found_permissions,omitempty"`
	PermissionsNotFound    []string        `json:"permissions_not_found,omitempty"`
	ReasonsAllNotReturned  json.RawMessage `json:"reasons_due_to_which_permissions_has_not_been_returned,omitempty"`
	ReasonsSomeNotReturned json.RawMessage `json:"reasons_due_to_which_some_permissions_has_not_been_returned,omitempty"`
}

// leniencyQuery encodes the lenient/strict switch the way the admin service
// expects it.
func leniencyQuery(lenient bool) url.Values {
	return url.Values{"leniency": {enableDisable(lenient)}}
}

func enableDisable(on bool) string {
	if on {
		return "enable"
	}
	return "disable"
}

// CreateUsers provisions accounts in bulk.
func (c *Client) CreateUsers(ctx context.Context, users []CreateUserRequest, lenient bool) (CreateUsersResponse, error) {
	var out CreateUsersResponse
	err := c.doJSON(ctx, http.MethodPost, pathCreateUsers, leniencyQuery(lenient), users, &out)
	return out, err
}

// ReadUsers looks accounts up in bulk by username, email or id.
func (c *Client) ReadUsers(ctx context.Context, identifiers []string, lenient bool) (ReadUsersResponse, error) {
	var out ReadUsersResponse
	err := c.doJSON(ctx, http.MethodPost, pathReadUsers, leniencyQuery(lenient), identifiers, &out)
	return out, err
}

// UpdateUsers rewrites accounts in bulk.
func (c *Client) UpdateUsers(ctx context.Context, users []UpdateUserRequest, lenient bool) (UpdateUsersResponse, error) {
	var out UpdateUsersResponse
	err := c.doJSON(ctx, http.MethodPut, pathUpdateUsers, leniencyQuery(lenient), users, &out)
	return out, err
}

// DeleteUsers removes accounts in bulk; hard skips the soft-delete grace
// period.
func (c *Client) DeleteUsers(ctx context.Context, identifiers []string, hard, lenient bool) (DeleteUsersResponse, error) {
	query := leniencyQuery(lenient)
	query.Set("hard", enableDisable(hard))
	var out DeleteUsersResponse
	err := c.doJSON(ctx, http.MethodDelete, pathDeleteUsers, query, identifiers, &out)
	return out, err
}

// CreateRoles creates roles in bulk.
func (c *Client) CreateRoles(ctx context.Context, roles []RoleRequest, lenient bool) (CreateRolesResponse, error) {
	var out CreateRolesResponse
	err := c.doJSON(ctx, http.MethodPost, pathCreateRoles, leniencyQuery(lenient), roles, &out)
	return out, err
}

// ReadRoles looks roles up in bulk by name.
func (c *Client) ReadRoles(ctx context.Context, roleNames []string, lenient bool) (ReadRolesResponse, error) {
	var out ReadRolesResponse
	err := c.doJSON(ctx, http.MethodPost, pathReadRoles, leniencyQuery(lenient), roleNames, &out)
	return out, err
}

// UpdateRoles rewrites roles in bulk.
func (c *Client) UpdateRoles(ctx context.Context, roles []RoleRequest, lenient bool) (UpdateRolesResponse, error) {
	var out UpdateRolesResponse
	err := c.doJSON(ctx, http.MethodPut, pathUpdateRoles, leniencyQuery(lenient), roles, &out)
	return out, err
}

// DeleteRoles removes roles in bulk; force removes them even while assigned
// to users.
func (c *Client) DeleteRoles(ctx context.Context, roleNames []string, force, lenient bool) (DeleteRolesResponse, error) {
	query := leniencyQuery(lenient)
	query.Set("force", enableDisable(force))
	var out DeleteRolesResponse
	err := c.doJSON(ctx, http.MethodDelete, pathDeleteRoles, query, roleNames, &out)
	return out, err
}

// ReadPermissions looks permissions up in bulk by name.
func (c *Client) ReadPermissions(ctx context.Context, permissionNames []string, lenient bool) (ReadPermissionsResponse, error) {
	var out ReadPermissionsResponse
	err := c.doJSON(ctx, http.MethodPost, pathReadPermissions, leniencyQuery(lenient), permissionNames, &out)
	return out, err
}
