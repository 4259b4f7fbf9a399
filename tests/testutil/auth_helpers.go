package testutil

import (
	"net/http"
	"testing"

	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateActiveUser stores a verified, active account with the given password
func CreateActiveUser(t *testing.T, db *gorm.DB, phone, firstName string, role models.Role, password string) models.User {
	t.Helper()

	hash, err := services.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Phone:        phone,
		FirstName:    firstName,
		LastName:     "Tester",
		Role:         role,
		PasswordHash: hash,
		Status:       models.UserActive,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// IssueToken signs a real session token for user with the test configuration
func IssueToken(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()

	token, _, err := services.NewSessionService(cfg).Issue(user)
	require.NoError(t, err)
	return token
}

// Authorize adds a bearer session token to req
func Authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// SessionCookie wraps a session token in the cookie browsers send back
func SessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: services.SessionCookieName, Value: token}
}

// Actor is the service-layer caller for user
func Actor(user models.User) services.Actor {
	return services.Actor{ID: user.ID, Name: user.FullName(), Role: user.Role}
}
