package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/services"
)

// RegisterRequest represents the request body for self-registration
type RegisterRequest struct {
	Phone     string `json:"phone" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// ValidateAdminRequest represents the body an admin sends to verify a pending user
type ValidateAdminRequest struct {
	UserID        uint   `json:"userId" binding:"required"`
	AdminPassword string `json:"adminPassword" binding:"required"`
}

// SetPasswordRequest represents the body used to activate a verified account
type SetPasswordRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login body
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents the body of PUT /api/users
type UpdateUserRequest struct {
	ID         uint    `json:"id"`
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Role       *string `json:"role"`
	Status     *string `json:"status"`
	IsVerified *bool   `json:"isVerified"`
}

// Register handles POST /api/register - creates an inactive, unverified account
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).Register(c.Request.Context(), services.RegisterInput{
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, user)
}

// ValidateAdmin handles POST /api/validate-admin - an admin verifies a pending user
func ValidateAdmin(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req ValidateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "userId and adminPassword are required", err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).VerifyUser(c.Request.Context(), actor.ID, req.AdminPassword, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, user)
}

// SetPassword handles POST /api/set-password - activates a verified account
func SetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "phone and password are required", err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).SetPassword(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, user)
}

// Login handles POST /api/login - checks credentials and sets the session cookie
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "phone and password are required", err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	cfg := config.GetConfig()
	sessions := services.NewSessionService(cfg)
	token, expires, err := sessions.Issue(*user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookieName, token, int(sessions.TTL().Seconds()), "/", "", cfg.IsProduction(), true)

	respondData(c, http.StatusOK, gin.H{
		"user":      user,
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /api/logout - clears the session cookie
func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookieName, "", -1, "/", "", config.GetConfig().IsProduction(), true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out",
	})
}

// GetMe handles GET /api/me - the logged-in user's account
func GetMe(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(config.GetDB()).GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, user)
}

// ListUsers handles GET /api/users - every user, one user with ?id=, or one role with ?role=
func ListUsers(c *gin.Context) {
	userService := services.NewUserService(config.GetDB())

	if raw := c.Query("id"); raw != "" {
		id, ok := parseID(c, raw, "id")
		if !ok {
			return
		}
		user, err := userService.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, user)
		return
	}

	users, err := userService.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, users)
}

// UpdateUser handles PUT /api/users - admin edits of role, status, verification and names
func UpdateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	if req.ID == 0 {
		respondValidation(c, "id is required", nil)
		return
	}

	user, err := services.NewUserService(config.GetDB()).UpdateUser(c.Request.Context(), actor, req.ID, services.UserPatch{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Status:     req.Status,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users?id=
func DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	if err := services.NewUserService(config.GetDB()).DeleteUser(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"id": id})
}
