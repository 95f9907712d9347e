package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTConfig carries the HMAC key shared with the token issuer.
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// OwnerClaims identify a dashboard user and the sites they may manage
type OwnerClaims struct {
	Email  string   `json:"email"`
	UserID uint     `json:"user_id"`
	Sites  []string `json:"sites,omitempty"`
	Role   string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CanManage reports whether the claims grant access to the site slug
func (c *OwnerClaims) CanManage(slug string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, s := range c.Sites {
		if s == slug {
			return true
		}
	}
	return false
}

// RoleAdmin may manage every site
const RoleAdmin = "admin"

// JWTUtil signs and verifies owner tokens.
type JWTUtil struct {
	config *JWTConfig
	now    func() time.Time
}

func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{config: config, now: time.Now}
}

// GenerateToken creates a signed token for an owner of the given sites
func (j *JWTUtil) GenerateToken(email string, userID uint, sites []string, role string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := j.now()
	claims := OwnerClaims{
		Email:  email,
		UserID: userID,
		Sites:  sites,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken parses an HS256 token into owner claims. Other algorithms are
// rejected.
func (j *JWTUtil) ValidateToken(tokenString string) (*OwnerClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&OwnerClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OwnerClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
