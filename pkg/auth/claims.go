package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	UnitID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. UnitID is the
// user's home unit and is what operation-level checks compare against.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	UnitID uuid.UUID      `json:"unit_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
