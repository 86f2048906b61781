package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextUserID is the gin context key carrying the authenticated user's ID.
	ContextUserID = "user_id"
	// ContextUserRole is the gin context key carrying the authenticated user's role.
	ContextUserRole = "user_role"
)

// Claims is the JWT payload issued by the identity provider.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and exposes the caller's identity
// to downstream handlers.
type AuthMiddleware struct {
	secret   []byte
	issuer   string
	audience string
}

func NewAuthMiddleware(secret, issuer, audience string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), issuer: issuer, audience: audience}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			m.unauthorized(c, "Missing authorization token")
			return
		}

		userID, role, err := m.parseToken(token)
		if err != nil {
			m.unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(raw string) (int64, string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", jwt.ErrTokenUnverifiable
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", errors.New("token subject is not a user id")
	}
	return userID, claims.Role, nil
}

func (m *AuthMiddleware) unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="chronos"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Browser clients carry the token in a cookie instead.
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

// CurrentUserID returns the authenticated user's ID from the gin context.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
