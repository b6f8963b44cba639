package orgvclient

// System permissions recognized by the admin service.
const (
	PermCanCreateUser     = "CAN_CREATE_USER"
	PermCanReadUser       = "CAN_READ_USER"
	PermCanUpdateUser     = "CAN_UPDATE_USER"
	PermCanDeleteUser     = "CAN_DELETE_USER"
	PermCanReadPermission = "CAN_READ_PERMISSION"
	PermCanCreateRole     = "CAN_CREATE_ROLE"
	PermCanReadRole       = "CAN_READ_ROLE"
	PermCanUpdateRole     = "CAN_UPDATE_ROLE"
	PermCanDeleteRole     = "CAN_DELETE_ROLE"
)

// System roles. The top roles carry every admin capability implicitly.
const (
	RoleGod               = "ROLE_GOD"
	RoleGlobalAdmin       = "ROLE_GLOBAL_ADMIN"
	RoleSuperAdmin        = "ROLE_SUPER_ADMIN"
	RoleAdmin             = "ROLE_ADMIN"
	RoleManageRoles       = "ROLE_MANAGE_ROLES"
	RoleManageUsers       = "ROLE_MANAGE_USERS"
	RoleManagePermissions = "ROLE_MANAGE_PERMISSIONS"
)

var topRoles = []string{RoleGod, RoleGlobalAdmin, RoleSuperAdmin, RoleAdmin}

// AuthoritySet is the flattened set of role names and permission names held
// by the authenticated account.
type AuthoritySet map[string]struct{}

// Has reports whether authority is present.
func (a AuthoritySet) Has(authority string) bool {
	_, ok := a[authority]
	return ok
}

// HasAny reports whether any of the given authorities is present.
func (a AuthoritySet) HasAny(authorities ...string) bool {
	for _, auth := range authorities {
		if a.Has(auth) {
			return true
		}
	}
	return false
}

func (a AuthoritySet) hasTopRoleOr(perm string) bool {
	if a.HasAny(topRoles...) {
		return true
	}
	return a.Has(perm)
}

// CanCreateUsers reports admin capability for bulk user creation.
func (a AuthoritySet) CanCreateUsers() bool { return a.hasTopRoleOr(PermCanCreateUser) }

// CanReadUsers reports admin capability for bulk user lookup.
func (a AuthoritySet) CanReadUsers() bool { return a.hasTopRoleOr(PermCanReadUser) }

// CanUpdateUsers reports admin capability for bulk user updates.
func (a AuthoritySet) CanUpdateUsers() bool { return a.hasTopRoleOr(PermCanUpdateUser) }

// CanDeleteUsers reports admin capability for bulk user deletion.
func (a AuthoritySet) CanDeleteUsers() bool { return a.hasTopRoleOr(PermCanDeleteUser) }

// CanReadPermissions reports admin capability for permission listing.
func (a AuthoritySet) CanReadPermissions() bool { return a.hasTopRoleOr(PermCanReadPermission) }

// CanCreateRoles reports admin capability for role creation.
func (a AuthoritySet) CanCreateRoles() bool { return a.hasTopRoleOr(PermCanCreateRole) }

// CanReadRoles reports admin capability for role lookup.
func (a AuthoritySet) CanReadRoles() bool { return a.hasTopRoleOr(PermCanReadRole) }

// CanUpdateRoles reports admin capability for role updates.
func (a AuthoritySet) CanUpdateRoles() bool { return a.hasTopRoleOr(PermCanUpdateRole) }

// CanDeleteRoles reports admin capability for role deletion.
func (a AuthoritySet) CanDeleteRoles() bool { return a.hasTopRoleOr(PermCanDeleteRole) }

// authoritiesOf flattens a user's roles and their permissions into one set.
func authoritiesOf(user *UserSummary) AuthoritySet {
	set := AuthoritySet{}
	if user == nil {
		return set
	}
	for _, role := range user.Roles {
		set[role.RoleName] = struct{}{}
		for _, perm := range role.Permissions {
			set[perm.PermissionName] = struct{}{}
		}
	}
	return set
}
