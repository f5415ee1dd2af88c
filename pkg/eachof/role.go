package eachof

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/eachof/pkg/core"
)

// Role is the kind of host a capability was built for.
type Role int

// Roles, in the order Classify checks them.
const (
	RoleLeaf Role = iota
	RoleViews
	RoleCollection
	RoleList
	RoleApp
)

var roleNames = map[Role]string{
	RoleLeaf:       "leaf",
	RoleViews:      "views",
	RoleCollection: "collection",
	RoleList:       "list",
	RoleApp:        "app",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole parses a role name as printed by Role.String.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if strings.EqualFold(s, name) {
			return role, nil
		}
	}
	return RoleLeaf, fmt.Errorf("unknown role %q, must be one of: app, views, collection, list, leaf", s)
}

// Classify maps host flags to exactly one role.
// Anything that is not a leaf, view collection, collection or list is
// treated as an application.
func Classify(f core.Flags) Role {
	switch {
	case f.IsLeaf():
		return RoleLeaf
	case f.IsViews:
		return RoleViews
	case f.IsCollection && !f.IsList:
		return RoleCollection
	case f.IsList:
		return RoleList
	default:
		return RoleApp
	}
}
