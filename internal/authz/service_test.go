package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestSubjectForRole(t *testing.T) {
	cases := map[string]string{
		"owner":     "role:owner",
		" Manager ": "role:manager",
		"cashier":   "",
		"":          "",
	}
	for in, want := range cases {
		got, ok := SubjectForRole(in)
		if got != want || ok != (want != "") {
			t.Fatalf("SubjectForRole(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/owner/ranks", want: "/owner/ranks"},
		{in: "/pos/sales", want: "/pos/sales"},
		{in: "owner/settings", want: "/owner/settings"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBuiltinRoleMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap must be idempotent: %v", err)
	}

	cases := []struct {
		role   string
		obj    string
		act    string
		expect bool
	}{
		{"manager", "/api/v1/pos/sales", "POST", true},
		{"manager", "/api/v1/pos/cards/:card/reward", "GET", true},
		{"manager", "/api/v1/owner/customers/:id", "GET", true},
		{"manager", "/api/v1/owner/settings", "PUT", false},
		{"manager", "/api/v1/owner/customers/:id/adjustments", "POST", false},
		{"owner", "/api/v1/owner/settings", "PUT", true},
		{"owner", "/api/v1/pos/redemptions", "POST", true},
		{"OWNER", "/api/v1/owner/ranks", "PUT", true},
		{"cashier", "/api/v1/pos/sales", "POST", false},
		{"", "/api/v1/pos/sales", "POST", false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.act, tc.obj, err)
		}
		if allow != tc.expect {
			t.Fatalf("enforce %s %s %s: got=%v want=%v", tc.role, tc.act, tc.obj, allow, tc.expect)
		}
	}
}

func TestAllowedRolesAndPolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	roles, err := svc.AllowedRoles("/api/v1/owner/customers", "GET")
	if err != nil {
		t.Fatalf("allowed roles failed: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("customer listing should be open to both roles, got %v", roles)
	}
	roles, err = svc.AllowedRoles("/api/v1/owner/points/expire", "POST")
	if err != nil {
		t.Fatalf("allowed roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "owner" {
		t.Fatalf("expiry should be owner only, got %v", roles)
	}

	policies, err := svc.RolePolicies("owner")
	if err != nil {
		t.Fatalf("role policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/owner/*" || policies[0].Action != "*" {
		t.Fatalf("unexpected owner policies: %+v", policies)
	}
	if _, err := svc.RolePolicies("cashier"); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceRole("owner", "/owner/settings", "GET"); err == nil {
		t.Fatalf("expected unavailable error")
	}
}
