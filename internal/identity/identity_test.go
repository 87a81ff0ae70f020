package identity

import (
	"context"
	"testing"
)

func TestRoleValid(t *testing.T) {
	tests := []struct {
		r    Role
		want bool
	}{
		{RoleOwner, true},
		{RoleTenant, true},
		{"admin", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.r.IsValid(); got != tt.want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal in empty context")
	}

	ctx := WithPrincipal(context.Background(), Principal{ID: 7, Role: RoleTenant})
	p, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected principal in context")
	}
	if p.ID != 7 || !p.IsTenant() || p.IsOwner() {
		t.Errorf("principal = %+v, want tenant 7", p)
	}
}
