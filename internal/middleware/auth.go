package middleware

import (
	"errors"
	"fmt"
	"strings"

	"beeja-hrm-backend/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// The auth service issues tokens; this side only verifies them and lifts
// the (user id, role) claim into the request context.

// ParseIdentityToken validates an access token and returns the identity
// claim it carries.
func ParseIdentityToken(jwtSecret, tokenString string) (model.Identity, error) {
	secret := []byte(jwtSecret)
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return model.Identity{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Identity{}, errors.New("invalid token claims")
	}

	userID, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	if userID == "" {
		return model.Identity{}, errors.New("token missing subject")
	}
	role := model.Role(roleStr)
	if !role.Valid() {
		return model.Identity{}, errors.New("token missing or unknown role")
	}

	return model.Identity{UserID: userID, Role: role}, nil
}

func Auth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		identity, err := ParseIdentityToken(jwtSecret, tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals("user_id", identity.UserID)
		c.Locals("role", identity.Role)
		return c.Next()
	}
}

// Identity reads the authenticated caller stored by Auth.
func Identity(c *fiber.Ctx) model.Identity {
	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(model.Role)
	return model.Identity{UserID: userID, Role: role}
}
