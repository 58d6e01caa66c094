package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/repository"
)

const userContextKey = "authenticated-user"

// AutomationTokenHeader carries the shared-secret credential the batch
// triggers use instead of an end-user JWT.
const AutomationTokenHeader = "X-Automation-Token"

type Manager struct {
	conf   *configs.Config
	repo   *repository.Repository
	logger *zap.Logger
}

func NewAuthManager(conf *configs.Config, repo *repository.Repository, logger *zap.Logger) *Manager {
	return &Manager{conf: conf, repo: repo, logger: logger}
}

// WithUser stores the resolved user on the request context.
func WithUser(c *gin.Context, user *model.User) {
	c.Set(userContextKey, user)
}

// UserFromContext returns the user the JWT middleware resolved.
func UserFromContext(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}

	user, ok := value.(*model.User)

	return user, ok
}

// Middleware validates the bearer token and loads the matching user into the
// request context. Requests without a valid identity stop here with a 401.
func (a *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		keyFunc := func(token *jwt.Token) (interface{}, error) {
			_, ok := token.Method.(*jwt.SigningMethodHMAC)
			if !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}

			return []byte(a.conf.Auth.SecretKey), nil
		}

		accessToken, found := a.extractTokenFromHeader(c.Request.Header)
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		token, err := jwt.ParseWithClaims(accessToken, jwt.MapClaims{}, keyFunc)
		if err != nil {
			a.logger.Error("error parsing token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		claims, found := token.Claims.(jwt.MapClaims)
		if !found || !token.Valid {
			a.logger.Error("invalid token", zap.Any("claims", claims))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		email, found := claims["email"].(string)
		if !found {
			a.logger.Error("unable to get user id from token", zap.Any("claims", claims))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		user, err := a.repo.GetUserFromEmail(c.Request.Context(), email)
		if err != nil {
			a.logger.Error("error authenticating user", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		WithUser(c, user)
		c.Next()
	}
}

// AutomationMiddleware guards operator endpoints with the shared automation
// token. It never falls back to user JWTs.
func (a *Manager) AutomationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := a.conf.Auth.AutomationToken
		presented := c.GetHeader(AutomationTokenHeader)

		if len(configured) == 0 || subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) != 1 {
			a.logger.Warn("rejected automation request", zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		c.Next()
	}
}

func (a *Manager) extractTokenFromHeader(header http.Header) (string, bool) {
	authorization := header.Get("Authorization")
	if len(authorization) == 0 {
		a.logger.Error("No authorization header found")

		return "", false
	}

	prefix := "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		prefix = "bearer "
	}

	token, found := strings.CutPrefix(authorization, prefix)
	if !found {
		return "", false
	}

	return token, true
}
