package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/revisit-loyalty/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
)

const staffRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// ErrUnavailable 授权服务未初始化
var ErrUnavailable = errors.New("authz service unavailable")

// Policy 权限策略
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service 员工角色授权
// 令牌中的 app_role 映射为 role:<app_role> 主体，按路由模板与方法判定
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(staffRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

// StaffRoles 内置员工角色，按权限从低到高排列
func StaffRoles() []string {
	return []string{constants.StaffRoleManager, constants.StaffRoleOwner}
}

// SubjectForRole 将令牌中的 app_role 转为授权主体，非员工角色返回 false
func SubjectForRole(appRole string) (string, bool) {
	role := strings.ToLower(strings.TrimSpace(appRole))
	for _, known := range StaffRoles() {
		if role == known {
			return rolePrefix + role, true
		}
	}
	return "", false
}

// EnforceRole 判定员工角色能否以 act 访问 obj
func (s *Service) EnforceRole(appRole, obj, act string) (bool, error) {
	subject, ok := SubjectForRole(appRole)
	if !ok {
		return false, nil
	}
	if s == nil || s.enforcer == nil {
		return false, ErrUnavailable
	}
	return s.enforcer.Enforce(subject, NormalizeObject(obj), NormalizeAction(act))
}

// AllowedRoles 列出可访问该路由的员工角色
func (s *Service) AllowedRoles(obj, act string) ([]string, error) {
	roles := make([]string, 0, len(StaffRoles()))
	for _, role := range StaffRoles() {
		allowed, err := s.EnforceRole(role, obj, act)
		if err != nil {
			return nil, err
		}
		if allowed {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

// RolePolicies 返回直接授予该角色的策略（不含继承）
func (s *Service) RolePolicies(appRole string) ([]Policy, error) {
	subject, ok := SubjectForRole(appRole)
	if !ok {
		return nil, fmt.Errorf("unknown staff role: %s", appRole)
	}
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{Object: rule[1], Action: rule[2]})
	}
	return policies, nil
}

// grant 为主体授予策略，已存在时跳过
func (s *Service) grant(subject string, policy Policy) error {
	action := NormalizeAction(policy.Action)
	if action == "" {
		return fmt.Errorf("action is required")
	}
	if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(policy.Object), action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// inherit 建立角色继承：subject 拥有 parent 的全部权限
func (s *Service) inherit(subject, parent string) error {
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", subject, parent)
	if err != nil {
		return fmt.Errorf("check role inheritance failed: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, parent); err != nil {
		return fmt.Errorf("link role inheritance failed: %w", err)
	}
	return nil
}

// NormalizeObject 统一授权资源路径，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
