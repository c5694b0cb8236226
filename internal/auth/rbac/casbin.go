package rbac

import (
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
)

// CasbinPolicy backs Policy with a casbin enforcer loaded from model and
// policy files.
type CasbinPolicy struct {
	enforcer *casbin.Enforcer
}

func NewCasbinPolicy(modelPath, policyPath string) (*CasbinPolicy, error) {
	enforcer, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, err
	}
	return &CasbinPolicy{enforcer: enforcer}, nil
}

// Can maps our "obj:act" permission strings onto casbin's (sub, obj, act)
// requests.
func (p *CasbinPolicy) Can(subject, perm string) bool {
	obj, act := splitPerm(perm)
	ok, err := p.enforcer.Enforce(subject, obj, act)
	if err != nil {
		slog.Warn("rbac enforce", "subject", subject, "perm", perm, "error", err)
		return false
	}
	return ok
}

func splitPerm(perm string) (obj, act string) {
	if i := strings.LastIndex(perm, ":"); i >= 0 {
		return perm[:i], perm[i+1:]
	}
	return perm, "*"
}
