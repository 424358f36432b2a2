package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionTokenExpiry is the duration for which session tokens are valid.
const SessionTokenExpiry = 24 * time.Hour

// Claims represents the signed session claim set handed to clients.
type Claims struct {
	UserID           uint   `json:"user_id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	MembershipStatus string `json:"membership_status"`
	MembershipNumber string `json:"membership_number,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// GenerateSessionToken emits a signed session token for the user. The token
// ID is returned separately so the session store can index it for revocation.
func (s *JWTService) GenerateSessionToken(userID uint, email, role, membershipStatus, membershipNumber string) (tokenID string, token string, err error) {
	tokenID = uuid.New().String()
	claims := &Claims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		MembershipStatus: membershipStatus,
		MembershipNumber: membershipNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tokenObj.SignedString(s.secret)
	return tokenID, token, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
