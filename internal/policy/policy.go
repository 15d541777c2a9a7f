// Package policy holds the global role checks: pure, table-driven functions
// gating actions by the caller's platform role, independent of any family
// context. Family-scoped checks live on the membership model instead.
package policy

import (
	"errors"
	"fmt"

	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
)

var ErrForbidden = errors.New("forbidden")

// Resource names a protected surface for HasPermission.
type Resource string

const (
	ResourceIncome         Resource = "income"
	ResourceExpense        Resource = "expense"
	ResourceBudget         Resource = "budget"
	ResourceUserManagement Resource = "user-management"
	ResourceAnalytics      Resource = "analytics"
)

// Action names an operation on a resource.
type Action string

const (
	ActionReadOwn   Action = "read_own"
	ActionCreate    Action = "create"
	ActionUpdateOwn Action = "update_own"
	ActionDeleteOwn Action = "delete_own"
	ActionRead      Action = "read"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
)

// roleRank orders the three roles: user < admin < superuser.
var roleRank = map[models.GlobalRole]int{
	models.RoleUser:      1,
	models.RoleAdmin:     2,
	models.RoleSuperuser: 3,
}

var ownDataActions = []Action{ActionReadOwn, ActionCreate, ActionUpdateOwn, ActionDeleteOwn}

// rolePermissions is the permission table. SUPERUSER is handled as a
// wildcard in HasPermission rather than enumerated here.
var rolePermissions = map[models.GlobalRole]map[Resource][]Action{
	models.RoleUser: {
		ResourceIncome:  ownDataActions,
		ResourceExpense: ownDataActions,
		ResourceBudget:  ownDataActions,
	},
	models.RoleAdmin: {
		ResourceIncome:         ownDataActions,
		ResourceExpense:        ownDataActions,
		ResourceBudget:         ownDataActions,
		ResourceUserManagement: {ActionCreate, ActionRead, ActionUpdate},
		ResourceAnalytics:      {ActionRead},
	},
}

// HasPermission reports whether the role may perform the action on the
// resource. ADMIN's user-management and analytics grants are additionally
// restricted by target role; callers pair this with CanManageUser or
// CanAccessUserData when a target is involved.
func HasPermission(role models.GlobalRole, resource Resource, action Action) bool {
	if role == models.RoleSuperuser {
		return true
	}
	actions, ok := rolePermissions[role][resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// RoleAtLeast reports whether role meets the minimum in the strict order
// user < admin < superuser. Unknown roles never qualify.
func RoleAtLeast(role, minimum models.GlobalRole) bool {
	r, ok := roleRank[role]
	m, mok := roleRank[minimum]
	return ok && mok && r >= m
}

// RequireRole checks that the caller is active and holds at least the
// minimum role. On success it returns the identity unchanged so callers can
// thread it through as proof of authorization.
func RequireRole(identity *models.User, minimum models.GlobalRole) (*models.User, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: no identity", ErrForbidden)
	}
	if !identity.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrForbidden)
	}
	if !RoleAtLeast(identity.GlobalRole, minimum) {
		return nil, fmt.Errorf("%w: requires %s role or above", ErrForbidden, minimum)
	}
	return identity, nil
}

// CanCreateUserWithRole reports whether the acting role may create a user
// with the target role. Superuser creation is out of band (bootstrap only).
func CanCreateUserWithRole(acting, target models.GlobalRole) bool {
	switch acting {
	case models.RoleSuperuser:
		return target == models.RoleUser || target == models.RoleAdmin
	case models.RoleAdmin:
		return target == models.RoleUser
	}
	return false
}

// CanManageUser reports whether the acting role may update or deactivate a
// user holding the target role. Superuser accounts are immutable through
// this surface, even to other superusers.
func CanManageUser(acting, target models.GlobalRole) bool {
	if target == models.RoleSuperuser {
		return false
	}
	switch acting {
	case models.RoleSuperuser:
		return target == models.RoleUser || target == models.RoleAdmin
	case models.RoleAdmin:
		return target == models.RoleUser
	}
	return false
}

// CanAccessUserData mirrors CanManageUser for read-type checks (user
// listings, analytics subjects), except that a superuser may read superuser
// data even though nobody may mutate it.
func CanAccessUserData(acting, target models.GlobalRole) bool {
	if acting == models.RoleSuperuser {
		return target.Valid()
	}
	return CanManageUser(acting, target)
}
