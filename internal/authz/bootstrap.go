package authz

import (
	"fmt"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "member",
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/me/login-logs", Action: "GET"},
			},
		},
		{
			Role:     constants.RoleCustomer,
			Inherits: []string{"member"},
			Policies: []Policy{
				{Object: "/qr/issue", Action: "POST"},
				{Object: "/qr/tokens", Action: "GET"},
				{Object: "/subscriptions", Action: "*"},
				{Object: "/subscriptions/*", Action: "*"},
			},
		},
		{
			Role:     constants.RolePartner,
			Inherits: []string{"member"},
			Policies: []Policy{
				{Object: "/partner/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
		if err := s.pruneRolePolicies(role, seed.Policies); err != nil {
			return err
		}
	}
	return nil
}

// pruneRolePolicies 移除预置角色在 casbin_rule 中残留、但已不在矩阵内的策略
func (s *Service) pruneRolePolicies(role string, keep []Policy) error {
	wanted := make(map[string]struct{}, len(keep))
	for _, policy := range keep {
		wanted[policyKey(policy.Object, policy.Action)] = struct{}{}
	}
	current, err := s.GetRolePolicies(role)
	if err != nil {
		return err
	}
	for _, policy := range current {
		if _, ok := wanted[policyKey(policy.Object, policy.Action)]; ok {
			continue
		}
		if err := s.RevokeRolePolicy(role, policy.Object, policy.Action); err != nil {
			return fmt.Errorf("prune builtin policy failed: %w", err)
		}
		logger.Infow("authz_builtin_policy_pruned", "role", role, "object", policy.Object, "action", policy.Action)
	}
	return nil
}

func policyKey(object, action string) string {
	return NormalizeObject(object) + " " + NormalizeAction(action)
}
