package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
)

// Authenticator validates bearer tokens against the issuer and the revocation list.
type Authenticator struct {
	issuer    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
}

func NewAuthenticator(issuer *utils.TokenIssuer, blacklist *utils.TokenBlacklist) *Authenticator {
	return &Authenticator{issuer: issuer, blacklist: blacklist}
}

// Required rejects the request unless it carries a valid JWT.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}
		if code, msg := a.authenticate(ctx, authHeader); code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// Optional identifies the caller when a valid token is present and lets
// anonymous or badly authenticated requests through as anonymous.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
			a.authenticate(ctx, authHeader)
		}
		ctx.Next()
	}
}

// authenticate stores the claims in ctx; a non-zero code describes the failure.
func (a *Authenticator) authenticate(ctx *gin.Context, authHeader string) (int, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return 40103, "empty bearer token"
	}

	if a.blacklist != nil && a.blacklist.Contains(ctx.Request.Context(), tokenString) {
		return 40104, "token revoked"
	}

	claims, err := a.issuer.Parse(tokenString)
	if err != nil {
		return 40105, "invalid token"
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextTokenKey, tokenString)
	return 0, ""
}

// UserID returns the authenticated user id, if any.
func UserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id > 0
}
