package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/controllers"
	"github.com/kendall-kelly/delivery-tracker-api/middleware"
	"github.com/kendall-kelly/delivery-tracker-api/models"
)

// AuthRoutes registers account lifecycle endpoints
func AuthRoutes(api *gin.RouterGroup, requireSession gin.HandlerFunc) {
	api.POST("/register", controllers.Register)
	api.POST("/set-password", controllers.SetPassword)
	api.POST("/login", controllers.Login)
	api.POST("/logout", controllers.Logout)

	api.GET("/me", requireSession, controllers.GetMe)
	api.POST("/validate-admin", requireSession, middleware.RequireRoles(models.RoleAdmin), controllers.ValidateAdmin)
}

// UserRoutes registers admin-only user management
func UserRoutes(api *gin.RouterGroup, requireSession gin.HandlerFunc) {
	users := api.Group("/users", requireSession, middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", controllers.ListUsers)
		users.PUT("", controllers.UpdateUser)
		users.DELETE("", controllers.DeleteUser)
	}
}
