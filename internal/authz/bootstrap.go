package authz

import (
	"fmt"

	"github.com/cargo-inspection/internal/constants"
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
			Role: constants.RoleInspector,
			Policies: []Policy{
				{Object: "/outbound/:routeNumber", Action: "GET"},
				{Object: "/outbound/save", Action: "POST"},
				{Object: "/outbound/submit", Action: "POST"},
				{Object: "/outbound/:routeNumber/export", Action: "POST"},
				{Object: "/outbounds", Action: "GET"},
				{Object: "/dashboard/stats", Action: "GET"},
				{Object: "/routes/:routeNumber/info", Action: "GET"},
				{Object: "/routes/coverage", Action: "GET"},
				{Object: "/dropdowns/:site", Action: "GET"},
			},
		},
		{
			Role: constants.RoleReviewer,
			Policies: []Policy{
				{Object: "/verification/:yearMonth/:site", Action: "GET"},
				{Object: "/verification", Action: "PATCH"},
				{Object: "/verifications/:year/:site", Action: "GET"},
				{Object: "/validation/:year/:site", Action: "GET"},
				{Object: "/validation", Action: "PATCH"},
				{Object: "/validationDropdown", Action: "GET"},
				{Object: "/profiles", Action: "*"},
				{Object: "/profiles/:id", Action: "*"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{constants.RoleInspector, constants.RoleReviewer},
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
			return fmt.Errorf("create builtin role failed: %w", err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy %s %s: %w", policy.Action, policy.Object, err)
			}
		}
	}
	return nil
}
