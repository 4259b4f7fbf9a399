package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	SalesmanID    uint            `json:"salesmanId"` // ignored for salesmen, who always create their own orders
	CustomerName  string          `json:"customerName" binding:"required"`
	ContactNumber string          `json:"contactNumber" binding:"required"`
	PaymentAmt    decimal.Decimal `json:"paymentAmt"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	DateMade      *flexibleTime   `json:"dateMade"`
	Notes         string          `json:"salesmanNotes"`
}

// UpdateOrderRequest represents the body of PUT /api/orders; only present fields change
type UpdateOrderRequest struct {
	ID                 uint             `json:"id"`
	CustomerName       *string          `json:"customerName"`
	ContactNumber      *string          `json:"contactNumber"`
	PaymentAmt         *decimal.Decimal `json:"paymentAmt"`
	PaymentMethod      *string          `json:"paymentMethod"`
	Invoice            *string          `json:"invoice"`
	DateMade           *flexibleTime    `json:"dateMade"`
	SalesmanNotes      *string          `json:"salesmanNotes"`
	DriverNotes        *string          `json:"driverNotes"`
	SecretaryNotes     *string          `json:"secretaryNotes"`
	OrderStatus        *string          `json:"orderStatus"`
	DriverAssignedID   json.RawMessage  `json:"driverAssignedId"` // null unassigns
	DateDelivered      *flexibleTime    `json:"dateDelivered"`
	DeliveryReceivedBy string           `json:"deliveryReceivedBy"`
	PaymentReceived    *decimal.Decimal `json:"paymentReceived"`
	PaymentReceivedBy  string           `json:"paymentReceivedBy"`
}

// UpdateOrderStatusRequest represents the body of POST /api/updateOrderStatus
type UpdateOrderStatusRequest struct {
	OrderID            uint             `json:"orderId" binding:"required"`
	OrderStatus        string           `json:"orderStatus" binding:"required"`
	DateDelivered      *flexibleTime    `json:"dateDelivered"`
	DeliveryReceivedBy string           `json:"deliveryReceivedBy"`
	PaymentReceived    *decimal.Decimal `json:"paymentReceived"`
	PaymentReceivedBy  string           `json:"paymentReceivedBy"`
}

// UpdateDriverNotesRequest represents the body of PATCH /api/updateOrderDriverNotes
type UpdateDriverNotesRequest struct {
	OrderID     uint    `json:"orderId" binding:"required"`
	DriverNotes *string `json:"driverNotes" binding:"required"`
}

// AssignDriverRequest represents the body of POST /api/orders/:id/assign
type AssignDriverRequest struct {
	DriverID *uint `json:"driverId"` // null or 0 unassigns
}

// CreateOrder handles POST /api/orders
func CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}

	salesmanID := req.SalesmanID
	if actor.Role == models.RoleSalesman {
		salesmanID = actor.ID
	}

	order, err := services.NewOrderService(config.GetDB()).CreateOrder(c.Request.Context(), services.CreateOrderInput{
		SalesmanID:    salesmanID,
		CustomerName:  req.CustomerName,
		ContactNumber: req.ContactNumber,
		PaymentAmt:    req.PaymentAmt,
		PaymentMethod: req.PaymentMethod,
		DateMade:      req.DateMade.ptr(),
		Notes:         req.Notes,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/orders. With orderId (or id) or orderNumber it
// returns one order, otherwise the caller's scoped, filtered and sorted list.
func ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	queries := services.NewQueryService(config.GetDB())

	if raw := firstNonEmpty(c.Query("orderId"), c.Query("id")); raw != "" {
		id, ok := parseID(c, raw, "orderId")
		if !ok {
			return
		}
		order, err := queries.GetOrder(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
		return
	}

	if raw := c.Query("orderNumber"); raw != "" {
		number, ok := parseID(c, raw, "orderNumber")
		if !ok {
			return
		}
		order, err := queries.GetOrderByNumber(c.Request.Context(), actor, number)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
		return
	}

	view := services.View(c.DefaultQuery("view", string(services.ViewAll)))
	switch view {
	case services.ViewAll, services.ViewActive, services.ViewHistory:
	default:
		respondValidation(c, "view must be one of all, active, history", nil)
		return
	}

	orders, err := queries.ListOrders(c.Request.Context(), actor, services.ListOptions{
		Filter: services.OrderFilter{
			PaymentStatus: c.Query("paymentStatus"),
			OrderStatus:   c.Query("orderStatus"),
			Search:        c.Query("search"),
			Month:         c.Query("month"),
			SalesmanName:  c.Query("salesman"),
			DriverName:    c.Query("driver"),
			View:          view,
		},
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("sortDir") == "desc",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURLs(c.Request.Context(), orders))
}

// UpdateOrder handles PUT /api/orders - role-gated partial update
func UpdateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	if req.ID == 0 {
		respondValidation(c, "id is required", nil)
		return
	}

	patch := services.OrderPatch{
		CustomerName:   req.CustomerName,
		ContactNumber:  req.ContactNumber,
		PaymentAmt:     req.PaymentAmt,
		PaymentMethod:  req.PaymentMethod,
		Invoice:        req.Invoice,
		DateMade:       req.DateMade.ptr(),
		SalesmanNotes:  req.SalesmanNotes,
		DriverNotes:    req.DriverNotes,
		SecretaryNotes: req.SecretaryNotes,
		OrderStatus:    req.OrderStatus,
	}
	if req.DateMade != nil && patch.DateMade == nil {
		respondValidation(c, "dateMade cannot be empty", nil)
		return
	}
	if len(req.DriverAssignedID) > 0 {
		var driverID *uint
		if err := json.Unmarshal(req.DriverAssignedID, &driverID); err != nil {
			respondValidation(c, "driverAssignedId must be a user id or null", err)
			return
		}
		if driverID == nil {
			driverID = new(uint)
		}
		patch.DriverAssignedID = driverID
	}
	if req.OrderStatus != nil && *req.OrderStatus == string(models.StatusDelivered) {
		patch.Delivery = &services.DeliveryInput{
			DeliveryDate:      req.DateDelivered.ptr(),
			ReceivedBy:        req.DeliveryReceivedBy,
			PaymentReceived:   req.PaymentReceived,
			PaymentReceivedBy: req.PaymentReceivedBy,
		}
	}

	order, err := services.NewOrderService(config.GetDB()).UpdateOrder(c.Request.Context(), req.ID, patch, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// DeleteOrder handles DELETE /api/orders?orderId= - permanent removal
func DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, c.Query("orderId"), "orderId")
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).DeleteOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if order.ProofImageKey != nil {
		if storage := services.GetProofStorage(); storage != nil {
			if err := storage.Delete(c.Request.Context(), *order.ProofImageKey); err != nil {
				log.WithError(err).WithField("order_id", order.ID).Warn("Failed to delete proof of delivery image")
			}
		}
	}

	respondData(c, http.StatusOK, gin.H{"id": order.ID, "orderNumber": order.OrderNumber})
}

// FetchOrderDriver handles GET /api/fetchOrderDriver?driverID= - a driver's open orders
func FetchOrderDriver(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	driverID, ok := parseID(c, c.Query("driverID"), "driverID")
	if !ok {
		return
	}
	if actor.Role == models.RoleDriver && actor.ID != driverID {
		respondError(c, &services.Error{Kind: services.KindAuthorization, Code: "FORBIDDEN", Message: "Drivers can only view their own orders"})
		return
	}

	orders, err := services.NewQueryService(config.GetDB()).DriverOrders(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURLs(c.Request.Context(), orders))
}

// FetchSecretaryHistory handles GET /api/fetchSecretaryHistory - completed and cancelled orders.
// Failures still return an empty list so the dashboard can render.
func FetchSecretaryHistory(c *gin.Context) {
	orders, err := services.NewQueryService(config.GetDB()).History(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to fetch order history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"data":    []models.Order{},
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch order history",
			},
		})
		return
	}

	respondData(c, http.StatusOK, withProofURLs(c.Request.Context(), orders))
}

// UpdateOrderStatus handles POST /api/updateOrderStatus. Delivered requires the
// receiver and optionally the payment collected.
func UpdateOrderStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "orderId and orderStatus are required", err)
		return
	}

	orderService := services.NewOrderService(config.GetDB())
	var (
		order *models.Order
		err   error
	)
	if req.OrderStatus == string(models.StatusDelivered) {
		order, err = orderService.CompleteDelivery(c.Request.Context(), req.OrderID, services.DeliveryInput{
			DeliveryDate:      req.DateDelivered.ptr(),
			ReceivedBy:        req.DeliveryReceivedBy,
			PaymentReceived:   req.PaymentReceived,
			PaymentReceivedBy: req.PaymentReceivedBy,
		}, actor)
	} else {
		order, err = orderService.TransitionStatus(c.Request.Context(), req.OrderID, req.OrderStatus, actor)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// UpdateOrderDriverNotes handles PATCH /api/updateOrderDriverNotes
func UpdateOrderDriverNotes(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateDriverNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "orderId and driverNotes are required", err)
		return
	}

	order, err := services.NewOrderService(config.GetDB()).SetDriverNotes(c.Request.Context(), req.OrderID, *req.DriverNotes, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// AssignDriver handles POST /api/orders/:id/assign
func AssignDriver(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}

	orderService := services.NewOrderService(config.GetDB())
	var (
		order *models.Order
		err   error
	)
	if req.DriverID == nil || *req.DriverID == 0 {
		order, err = orderService.UnassignDriver(c.Request.Context(), orderID, actor)
	} else {
		order, err = orderService.AssignDriver(c.Request.Context(), orderID, *req.DriverID, actor)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// RestoreOrder handles POST /api/orders/:id/restore - back to current orders
func RestoreOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).RestoreOrder(c.Request.Context(), orderID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// ListOrderEvents handles GET /api/orders/:id/events
func ListOrderEvents(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if _, err := services.NewQueryService(db).GetOrder(c.Request.Context(), actor, orderID); err != nil {
		respondError(c, err)
		return
	}

	events, err := services.NewOrderService(db).Events(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, events)
}

// DriverLoads handles GET /api/drivers/load - drivers by open order count, lightest first
func DriverLoads(c *gin.Context) {
	loads, err := services.NewQueryService(config.GetDB()).DriverLoads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, loads)
}

// TrackOrder handles GET /api/track/:code - public order status lookup for customers
func TrackOrder(c *gin.Context) {
	view, err := services.NewQueryService(config.GetDB()).FindByTrackingCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, view)
}

// withProofURL fills the computed proof image URL
func withProofURL(ctx context.Context, order *models.Order) *models.Order {
	if order == nil || order.ProofImageKey == nil {
		return order
	}
	storage := services.GetProofStorage()
	if storage == nil {
		return order
	}

	url, err := storage.URL(ctx, *order.ProofImageKey)
	if err != nil {
		log.WithError(err).WithField("order_id", order.ID).Warn("Failed to generate proof image URL")
		return order
	}
	order.ProofImageURL = &url
	return order
}

func withProofURLs(ctx context.Context, orders []models.Order) []models.Order {
	for i := range orders {
		withProofURL(ctx, &orders[i])
	}
	return orders
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// orderIDParam is shared by routes that take the order id in the path
func orderIDParam(c *gin.Context) (uint, bool) {
	return parseID(c, c.Param("id"), "id")
}
