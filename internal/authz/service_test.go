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
	return svc
}

func TestEnforceRoleWithPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("barista", "/partner/cafes/:id", "PUT"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("barista", "/api/v1/partner/cafes/42", "put")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("barista", "/api/v1/partner/cafes/42", "DELETE")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("tester", "/qr/issue", "POST"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	policies, err := svc.GetRolePolicies("tester")
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/qr/issue" || policies[0].Action != "POST" {
		t.Fatalf("unexpected policies: %+v", policies)
	}

	if err := svc.RevokeRolePolicy("tester", "/qr/issue", "post"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err := svc.EnforceRole("tester", "/qr/issue", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected revoked policy to deny")
	}
	if err := svc.RevokeRolePolicy("tester", "/qr/issue", " "); err == nil {
		t.Fatalf("expected empty action to be rejected")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/partner/cafes/:id", want: "/partner/cafes/:id"},
		{in: "/partner/cafes/:id", want: "/partner/cafes/:id"},
		{in: "qr/issue", want: "/qr/issue"},
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

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行保持幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	for _, seed := range BuiltinRoleSeeds() {
		policies, err := svc.GetRolePolicies(seed.Role)
		if err != nil {
			t.Fatalf("get %s policies failed: %v", seed.Role, err)
		}
		if len(policies) != len(seed.Policies) {
			t.Fatalf("builtin role %s want %d policies got %+v", seed.Role, len(seed.Policies), policies)
		}
	}

	cases := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{role: "customer", object: "/api/v1/qr/issue", action: "POST", want: true},
		{role: "customer", object: "/api/v1/subscriptions/3/cancel", action: "POST", want: true},
		{role: "customer", object: "/api/v1/me", action: "GET", want: true},
		{role: "customer", object: "/api/v1/partner/qr/redeem", action: "POST", want: false},
		{role: "partner", object: "/api/v1/partner/qr/redeem", action: "POST", want: true},
		{role: "partner", object: "/api/v1/partner/analytics/daily", action: "GET", want: true},
		{role: "partner", object: "/api/v1/me", action: "GET", want: true},
		{role: "partner", object: "/api/v1/qr/issue", action: "POST", want: false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.object, tc.action)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", tc.role, tc.object, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s %s: want %v got %v", tc.role, tc.action, tc.object, tc.want, allow)
		}
	}
}

func TestBootstrapPrunesStaleBuiltinPolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	// 旧版本遗留的授权：合作方可签发兑换码
	if err := svc.GrantRolePolicy("partner", "/qr/issue", "POST"); err != nil {
		t.Fatalf("grant stale policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("auditor", "/partner/analytics/daily", "GET"); err != nil {
		t.Fatalf("grant custom role failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	allow, err := svc.EnforceRole("partner", "/api/v1/qr/issue", "POST")
	if err != nil {
		t.Fatalf("enforce stale failed: %v", err)
	}
	if allow {
		t.Fatalf("stale builtin policy should be pruned")
	}
	allow, err = svc.EnforceRole("partner", "/api/v1/partner/qr/redeem", "POST")
	if err != nil || !allow {
		t.Fatalf("seeded partner policy should remain, allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforceRole("auditor", "/api/v1/partner/analytics/daily", "GET")
	if err != nil || !allow {
		t.Fatalf("non-builtin roles are left alone, allow=%v err=%v", allow, err)
	}
}
