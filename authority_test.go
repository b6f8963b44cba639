package orgvclient

import "testing"

func TestAuthoritiesOfFlattensRolesAndPermissions(t *testing.T) {
	user := &UserSummary{
		Roles: []Role{
			{
				RoleName: "ROLE_MANAGE_USERS",
				Permissions: []Permission{
					{PermissionName: PermCanCreateUser},
					{PermissionName: PermCanReadUser},
				},
			},
			{RoleName: "ROLE_USER"},
		},
	}

	set := authoritiesOf(user)
	for _, want := range []string{"ROLE_MANAGE_USERS", "ROLE_USER", PermCanCreateUser, PermCanReadUser} {
		if !set.Has(want) {
			t.Errorf("expected authority %s", want)
		}
	}
	if set.Has(PermCanDeleteUser) {
		t.Error("unexpected delete authority")
	}
}

func TestAuthoritySetCapabilities(t *testing.T) {
	perms := AuthoritySet{PermCanReadUser: {}, PermCanReadRole: {}}
	if !perms.CanReadUsers() || !perms.CanReadRoles() {
		t.Fatal("expected read capabilities from explicit permissions")
	}
	if perms.CanCreateUsers() || perms.CanDeleteRoles() {
		t.Fatal("unexpected write capabilities")
	}

	// A top role carries every admin capability without explicit permissions.
	admin := AuthoritySet{RoleAdmin: {}}
	if !admin.CanCreateUsers() || !admin.CanDeleteRoles() || !admin.CanReadPermissions() {
		t.Fatal("expected top role to imply all capabilities")
	}

	if authoritiesOf(nil).CanReadUsers() {
		t.Fatal("nil user must have no capabilities")
	}
}
