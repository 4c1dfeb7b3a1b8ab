package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/utils"
)

// Authorize returns a middleware that gates the request against the static
// route-permission table. It must run after Authenticate so the principal is
// available.
func Authorize(table []authz.RoutePermission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		decision := authz.Authorize(table, principal.Role, c.Path(), c.Method())
		switch decision.Action {
		case authz.ActionDeny:
			return utils.SendError(c, decision.Status, decision.Message)
		case authz.ActionRedirect:
			return c.Redirect(decision.Location, decision.Status)
		default:
			return c.Next()
		}
	}
}
