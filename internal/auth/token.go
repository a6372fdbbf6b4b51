package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// LocationClaim is the caller's seat as asserted by the identity provider.
type LocationClaim struct {
	BuildingID  string `json:"building_id"`
	FloorNumber int    `json:"floor_number"`
	Lab         string `json:"lab,omitempty"`
}

// Claims describes JWT payload.
type Claims struct {
	ID             string         `json:"id"`
	Role           domain.Role    `json:"role"`
	DepartmentID   string         `json:"department_id,omitempty"`
	DepartmentName string         `json:"department_name,omitempty"`
	Location       *LocationClaim `json:"location,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the domain caller.
func (c *Claims) Principal() *domain.Principal {
	principal := &domain.Principal{
		ID:             c.ID,
		Role:           c.Role,
		DepartmentID:   c.DepartmentID,
		DepartmentName: c.DepartmentName,
	}
	if c.Location != nil {
		principal.Location = &domain.Location{
			BuildingID:  c.Location.BuildingID,
			FloorNumber: c.Location.FloorNumber,
			Lab:         c.Location.Lab,
		}
	}
	return principal
}

// GenerateToken builds and signs a JWT for the principal.
func (tm *TokenManager) GenerateToken(principal *domain.Principal) (string, time.Time, error) {
	if principal == nil || principal.ID == "" || !principal.Role.Valid() {
		return "", time.Time{}, errors.New("principal id and role are required")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		ID:             principal.ID,
		Role:           principal.Role,
		DepartmentID:   principal.DepartmentID,
		DepartmentName: principal.DepartmentName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	if loc := principal.Location; loc != nil {
		claims.Location = &LocationClaim{BuildingID: loc.BuildingID, FloorNumber: loc.FloorNumber, Lab: loc.Lab}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return nil, errors.New("token lacks principal id or role")
	}
	return claims, nil
}
