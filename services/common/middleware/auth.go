package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/auth"
	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "subject"

// JWTAuth requires a valid bearer token of type "access". A nil validator
// disables the check.
func JWTAuth(v *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := v.ParseAndValidateToken(strings.TrimSpace(token), "access")
		if err != nil {
			apperrors.Respond(c, apperrors.ErrInvalidToken.Wrap(err))
			return
		}
		if sub, ok := claims["sub"].(string); ok {
			c.Set(SubjectKey, sub)
		}
		c.Next()
	}
}
