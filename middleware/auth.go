package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	log "github.com/sirupsen/logrus"
)

const sessionContextKey = "session"

// CustomClaims contains the application claims carried by a session token.
type CustomClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Validate rejects tokens naming a role we do not know.
func (c CustomClaims) Validate(ctx context.Context) error {
	if _, ok := models.ParseRole(c.Role); !ok {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// Session is the authenticated caller attached to each request
type Session struct {
	UserID uint
	Role   models.Role
	Name   string
}

// Actor converts the session into the service-layer caller
func (s Session) Actor() services.Actor {
	return services.Actor{ID: s.UserID, Name: s.Name, Role: s.Role}
}

// RequireSession validates the session token from the session cookie or the
// Authorization header and stores the resulting Session in the gin context.
func RequireSession(cfg *config.Config) gin.HandlerFunc {
	secret := []byte(cfg.SessionSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.SessionIssuer,
		[]string{cfg.SessionAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up the session validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithField("path", r.URL.Path).Debug("Rejected session token")

		writeSessionError(w, http.StatusUnauthorized, "UNAUTHORIZED", "A valid session is required")
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.CookieTokenExtractor(services.SessionCookieName),
		)),
	)

	return func(c *gin.Context) {
		authenticated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			session, err := sessionFromClaims(claims)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			// role and status come from the account, not the token
			user, err := services.NewUserService(config.GetDB()).GetUser(r.Context(), session.UserID)
			switch {
			case errors.Is(err, services.ErrNotFound):
				errorHandler(w, r, fmt.Errorf("session user %d no longer exists", session.UserID))
				return
			case err != nil:
				log.WithError(err).WithField("user_id", session.UserID).Error("Failed to load session user")
				writeSessionError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load session")
				return
			case !user.IsActive():
				errorHandler(w, r, fmt.Errorf("session user %d is inactive", session.UserID))
				return
			}
			session.Role = user.Role
			session.Name = user.FullName()

			authenticated = true
			c.Request = r
			SetSession(c, session)
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !authenticated {
			c.Abort()
		}
	}
}

func writeSessionError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q}}`, code, message)
	if _, err := w.Write([]byte(body)); err != nil {
		log.WithError(err).Warn("Failed to write error response")
	}
}

func sessionFromClaims(claims *validator.ValidatedClaims) (Session, error) {
	userID, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Session{}, fmt.Errorf("invalid subject %q", claims.RegisteredClaims.Subject)
	}

	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return Session{}, fmt.Errorf("missing custom claims")
	}
	role, _ := models.ParseRole(custom.Role)

	return Session{UserID: uint(userID), Role: role, Name: custom.Name}, nil
}

// SetSession attaches a session to the request context
func SetSession(c *gin.Context, session Session) {
	c.Set(sessionContextKey, session)
}

// GetSession extracts the session from the Gin context
func GetSession(c *gin.Context) (Session, error) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return Session{}, &AuthError{Code: "UNAUTHORIZED", Message: "Session not found in context"}
	}

	session, ok := value.(Session)
	if !ok {
		return Session{}, &AuthError{Code: "INVALID_SESSION", Message: "Session is not in the expected format"}
	}

	return session, nil
}

// RequireRoles is a middleware that only lets the listed roles through
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "A valid session is required",
				},
			})
			return
		}

		for _, role := range roles {
			if session.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Insufficient permissions to access this resource",
			},
		})
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
