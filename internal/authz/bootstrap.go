package authz

import (
	"github.com/revisit-loyalty/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 员工角色矩阵：店长可操作收银台并只读会员，店主拥有全部后台权限
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.StaffRoleManager,
			Policies: []Policy{
				{Object: "/pos/*", Action: "*"},
				{Object: "/owner/customers", Action: "GET"},
				{Object: "/owner/customers/:id", Action: "GET"},
				{Object: "/owner/customers/:id/transactions", Action: "GET"},
			},
		},
		{
			Role:     constants.StaffRoleOwner,
			Inherits: []string{constants.StaffRoleManager},
			Policies: []Policy{
				{Object: "/owner/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		subject := rolePrefix + seed.Role
		for _, parent := range seed.Inherits {
			if err := s.inherit(subject, rolePrefix+parent); err != nil {
				return err
			}
		}
		for _, policy := range seed.Policies {
			if err := s.grant(subject, policy); err != nil {
				return err
			}
		}
	}
	return nil
}
