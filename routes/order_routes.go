package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/controllers"
	"github.com/kendall-kelly/delivery-tracker-api/middleware"
	"github.com/kendall-kelly/delivery-tracker-api/models"
)

// OrderRoutes registers the order lifecycle and dashboard endpoints
func OrderRoutes(api *gin.RouterGroup, requireSession gin.HandlerFunc) {
	backOffice := middleware.RequireRoles(models.RoleSecretary, models.RoleAdmin)
	creators := middleware.RequireRoles(models.RoleSalesman, models.RoleSecretary, models.RoleAdmin)
	fieldStaff := middleware.RequireRoles(models.RoleDriver, models.RoleSecretary, models.RoleAdmin)

	api.GET("/track/:code", controllers.TrackOrder)

	authed := api.Group("", requireSession)
	{
		authed.POST("/orders", creators, controllers.CreateOrder)
		authed.GET("/orders", controllers.ListOrders)
		authed.PUT("/orders", controllers.UpdateOrder)
		authed.DELETE("/orders", backOffice, controllers.DeleteOrder)

		authed.POST("/orders/:id/assign", backOffice, controllers.AssignDriver)
		authed.POST("/orders/:id/restore", backOffice, controllers.RestoreOrder)
		authed.GET("/orders/:id/events", controllers.ListOrderEvents)
		authed.POST("/orders/:id/proof", fieldStaff, controllers.UploadProof)

		authed.GET("/fetchOrderDriver", fieldStaff, controllers.FetchOrderDriver)
		authed.GET("/fetchSecretaryHistory", backOffice, controllers.FetchSecretaryHistory)
		authed.POST("/updateOrderStatus", fieldStaff, controllers.UpdateOrderStatus)
		authed.PATCH("/updateOrderDriverNotes", fieldStaff, controllers.UpdateOrderDriverNotes)

		authed.GET("/drivers/load", backOffice, controllers.DriverLoads)
		authed.GET("/uploads/:filename", controllers.GetUploadedImage)
	}
}
