package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user id in the Gin context.
	ContextUserIDKey = "user_id"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "claims"
)

// AuthRequired ensures the request carries a valid, unrevoked bearer token.
func AuthRequired(blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, "no access")
			ctx.Abort()
			return
		}

		if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, "no access")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// UserID returns the authenticated caller, set by AuthRequired.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}

// bearerToken accepts "Bearer <token>" as well as a bare token.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		header = strings.TrimSpace(parts[1])
	}
	return header, header != ""
}
