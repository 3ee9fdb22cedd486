package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in token claims
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims identifies a portal user or staff member
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	AdminID  string `json:"admin_id,omitempty"`
	jwt.StandardClaims
}

// IsAdmin reports whether the token belongs to staff
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// TokenIssuer signs and verifies HS256 tokens
type TokenIssuer struct {
	secret      []byte
	userExpiry  time.Duration
	adminExpiry time.Duration
}

func NewTokenIssuer(secret string, userExpiry, adminExpiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:      []byte(secret),
		userExpiry:  userExpiry,
		adminExpiry: adminExpiry,
	}
}

// IssueUser generates a token for a portal user
func (t *TokenIssuer) IssueUser(username string) (string, error) {
	return t.sign(Claims{Username: username, Role: RoleUser}, t.userExpiry)
}

// IssueAdmin generates a token for a staff member
func (t *TokenIssuer) IssueAdmin(adminID, username string) (string, error) {
	return t.sign(Claims{Username: username, Role: RoleAdmin, AdminID: adminID}, t.adminExpiry)
}

func (t *TokenIssuer) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.StandardClaims = jwt.StandardClaims{
		Issuer:    "betportal",
		Subject:   claims.Username,
		ExpiresAt: now.Add(ttl).Unix(),
		NotBefore: now.Unix(),
		IssuedAt:  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token and returns its claims
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
