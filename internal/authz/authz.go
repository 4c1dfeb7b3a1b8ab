package authz

import (
	"regexp"
	"strings"

	"github.com/noah-isme/evalia-api/internal/models"
)

// Principal is the authenticated identity constructed once at the request
// boundary and passed explicitly to handlers. It is the only session state
// the application trusts.
type Principal struct {
	ID    uint
	Role  string
	Email string
	Name  string
}

// IsProfessor reports whether the principal carries the professor role.
func (p Principal) IsProfessor() bool {
	return p.Role == models.RoleProfessor
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Action is the outcome kind of an authorization decision.
type Action int

// Possible decision outcomes.
const (
	ActionAllow Action = iota
	ActionDeny
	ActionRedirect
)

// Decision is the result of evaluating a request against the route table.
type Decision struct {
	Action   Action
	Status   int
	Message  string
	Location string
}

// RoutePermission binds a path pattern to the roles and methods allowed to
// use it. An empty Methods slice allows every method. Patterns are evaluated
// in declaration order and the first match wins.
type RoutePermission struct {
	Pattern *regexp.Regexp
	Roles   []string
	Methods []string
}

func (p RoutePermission) allowsMethod(method string) bool {
	if len(p.Methods) == 0 {
		return true
	}
	// CORS preflights are exempt from the method check; the role check
	// still applies.
	if method == "OPTIONS" {
		return true
	}
	for _, m := range p.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func (p RoutePermission) allowsRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize evaluates (role, path, method) against the given ordered table
// and returns the resulting decision. It is a pure function: identical
// inputs always yield identical decisions.
//
// Unknown roles are denied outright. The first rule whose pattern matches
// the path decides: the request method must be in the rule's method set
// (an empty set means every method) AND the role must be listed, otherwise
// the request is denied. When no pattern matches the path the request is
// allowed; unlisted routes are intentionally open and must rely on
// handler-level checks.
func Authorize(table []RoutePermission, role, path, method string) Decision {
	if !models.KnownRole(role) {
		return deny(path, "invalid user role")
	}

	for _, permission := range table {
		if !permission.Pattern.MatchString(path) {
			continue
		}

		if !permission.allowsMethod(method) || !permission.allowsRole(role) {
			return deny(path, "access denied")
		}

		return Decision{Action: ActionAllow}
	}

	return Decision{Action: ActionAllow}
}

func deny(path, message string) Decision {
	if strings.HasPrefix(path, "/api") {
		return Decision{Action: ActionDeny, Status: 403, Message: message}
	}

	return Decision{Action: ActionRedirect, Status: 303, Location: AccessDeniedLocation}
}
