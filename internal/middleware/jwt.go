package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/utils"
)

const principalKey = "principal"

// Authenticate returns a middleware that validates the bearer token and
// constructs the request Principal once at the boundary. Handlers read the
// principal from locals instead of re-parsing claims.
//
// Missing or invalid tokens produce a 401 JSON body on API paths and a
// redirect to the login page elsewhere.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" {
			return unauthenticated(c)
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return unauthenticated(c)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthenticated(c)
		}

		principal := principalFromClaims(claims)
		if principal.ID == 0 {
			return unauthenticated(c)
		}

		c.Locals(principalKey, principal)

		return c.Next()
	}
}

// PrincipalFromCtx returns the authenticated principal bound to the request,
// or false when the request is anonymous.
func PrincipalFromCtx(c *fiber.Ctx) (authz.Principal, bool) {
	value := c.Locals(principalKey)
	if value == nil {
		return authz.Principal{}, false
	}

	principal, ok := value.(authz.Principal)
	return principal, ok
}

func bearerToken(header string) string {
	const bearer = "Bearer "
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

func unauthenticated(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api") {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return c.Redirect(authz.LoginLocation, fiber.StatusSeeOther)
}

func principalFromClaims(claims jwt.MapClaims) authz.Principal {
	principal := authz.Principal{}

	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key]; ok {
			if id, err := normalizeUserID(value); err == nil {
				principal.ID = id
				break
			}
		}
	}

	if role, ok := claims["role"].(string); ok {
		principal.Role = strings.ToLower(strings.TrimSpace(role))
	}
	if email, ok := claims["email"].(string); ok {
		principal.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		principal.Name = name
	}

	return principal
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}
