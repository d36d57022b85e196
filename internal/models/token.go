package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates console roles carried in bearer tokens.
type UserRole string

// Roles recognised by the RBAC middleware.
const (
	RoleAdmin    UserRole = "ADMIN"
	RoleOperator UserRole = "OPERATOR"
	RoleViewer   UserRole = "VIEWER"
)

// JWTClaims are the claims of tokens issued by the external identity
// service; this API only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
