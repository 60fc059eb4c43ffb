package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/pkg/jwt"
)

// Locals keys para UserID y RoleID en Fiber.
const (
	LocalUserID = "user_id"
	LocalRoleID = "role_id"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID y RoleID a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, roleID, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRoleID, roleID)
		return c.Next()
	}
}

// RequireAdmin corta con 403 si el rol del token no es el de administrador.
// Debe montarse después de AuthMiddleware.
func RequireAdmin(adminRoleID int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
		}
		if GetRoleID(c) != adminRoleID {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "se requiere rol de administrador"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRoleID devuelve el RoleID del contexto; 0 si no hay token.
func GetRoleID(c *fiber.Ctx) int {
	v := c.Locals(LocalRoleID)
	if v == nil {
		return 0
	}
	n, _ := v.(int)
	return n
}

// GetActor arma el actor de la petición con la IP de origen para el log de actividad.
func GetActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{
		UserID:  GetUserID(c),
		RoleID:  GetRoleID(c),
		Address: c.IP(),
	}
}
