package authz

import (
	"regexp"

	"github.com/noah-isme/evalia-api/internal/models"
)

// Browser-facing locations used when a denied request did not originate
// from the API surface.
const (
	LoginLocation        = "/auth/login"
	AccessDeniedLocation = "/access-denied"
)

// DefaultTable is the static ordered route-permission table gating the API.
// The first rule whose pattern matches a path decides the whole request, so
// every listed pattern carries its complete policy. Exercises and
// submissions mix open reads with role-gated writes, which a single
// pattern cannot express; those surfaces stay unlisted (fail-open) and
// their services enforce the write roles.
func DefaultTable() []RoutePermission {
	return []RoutePermission{
		{
			Pattern: regexp.MustCompile(`^/api/v1/admin(/|$)`),
			Roles:   []string{models.RoleAdmin},
		},
		{
			Pattern: regexp.MustCompile(`^/api/v1/professor(/|$)`),
			Roles:   []string{models.RoleProfessor},
		},
		// The student surface is read-only for students.
		{
			Pattern: regexp.MustCompile(`^/api/v1/student(/|$)`),
			Roles:   []string{models.RoleStudent},
			Methods: []string{"GET"},
		},
		// Correction review belongs to the owning professor alone; admins
		// manage accounts, not grades.
		{
			Pattern: regexp.MustCompile(`^/api/v1/corrections(/|$)`),
			Roles:   []string{models.RoleProfessor},
			Methods: []string{"POST", "PUT"},
		},
		{
			Pattern: regexp.MustCompile(`^/api/v1/uploads(/|$)`),
			Roles:   []string{models.RoleProfessor, models.RoleAdmin},
			Methods: []string{"POST"},
		},
	}
}
