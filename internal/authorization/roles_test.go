package authorization

import "testing"

func TestRoleHasPermission(t *testing.T) {
	cases := []struct {
		role       UserRole
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermissionManageUsers, true},
		{RoleAdmin, PermissionManageSearchIndex, true},
		{RoleModerator, PermissionModerateListings, true},
		{RoleModerator, PermissionViewStatistics, true},
		{RoleModerator, PermissionManageUsers, false},
		{RoleModerator, PermissionManageAllListings, false},
		{RoleModerator, PermissionReviewApplications, false},
		{RoleUser, PermissionManageOwnListings, true},
		{RoleUser, PermissionModerateListings, false},
		{UserRole("ghost"), PermissionManageOwnListings, false},
	}

	for _, tc := range cases {
		if got := RoleHasPermission(tc.role, tc.permission); got != tc.want {
			t.Errorf("RoleHasPermission(%s, %s) = %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}

func TestParseUserRole(t *testing.T) {
	if role, ok := ParseUserRole("  Moderator "); !ok || role != RoleModerator {
		t.Fatalf("expected moderator, got %q ok=%v", role, ok)
	}
	if _, ok := ParseUserRole("superuser"); ok {
		t.Fatal("expected unknown role to be rejected")
	}
	if _, ok := ParseUserRole(42); ok {
		t.Fatal("expected non-string value to be rejected")
	}
}
