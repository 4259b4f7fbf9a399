package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/kendall-kelly/delivery-tracker-api/models"
	"gorm.io/gorm"
)

// QueryService serves the read side: role-scoped lists, history and driver load
type QueryService struct {
	db *gorm.DB
}

// NewQueryService creates a query service backed by db
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// ListOptions combines filters with a single sort column
type ListOptions struct {
	Filter   OrderFilter
	SortBy   string
	SortDesc bool
}

// DriverLoad is a driver with their count of open orders
type DriverLoad struct {
	Driver     models.User `json:"driver"`
	OpenOrders int         `json:"openOrders"`
}

// TrackingView is the public projection of an order shown to customers
type TrackingView struct {
	OrderNumber      uint                    `json:"orderNumber"`
	CustomerName     string                  `json:"customerName"`
	OrderStatus      models.OrderStatus      `json:"orderStatus"`
	AssignmentStatus models.AssignmentStatus `json:"assignmentStatus"`
	PaymentStatus    PaymentState            `json:"paymentStatus"`
	DateMade         time.Time               `json:"dateMade"`
	DateDelivered    *time.Time              `json:"dateDelivered"`
	StatusTimestamps models.StatusTimestamps `json:"statusTimestamps"`
}

// ListOrders returns the orders visible to actor after filtering and sorting
func (s *QueryService) ListOrders(ctx context.Context, actor Actor, opts ListOptions) ([]models.Order, error) {
	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := ScopeFor(actor).Apply(db.Model(&models.Order{})).Order("order_number ASC").Find(&orders).Error; err != nil {
		return nil, storeError("Failed to fetch orders", err)
	}

	dir, err := s.directory(db)
	if err != nil {
		return nil, err
	}

	orders = FilterOrders(orders, opts.Filter, dir)
	if err := SortOrders(orders, opts.SortBy, opts.SortDesc, dir); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder loads one order by primary key; orders outside the actor's scope are not found
func (s *QueryService) GetOrder(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	order, err := findOrder(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := ensureInScope(*order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByProofKey finds the order owning a stored proof image. Images of
// orders outside the caller's scope look missing.
func (s *QueryService) GetOrderByProofKey(ctx context.Context, actor Actor, key string) (*models.Order, error) {
	var order models.Order
	err := ScopeFor(actor).Apply(s.db.WithContext(ctx)).Where("proof_image_key = ?", key).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("FILE_NOT_FOUND", "Image not found")
		}
		return nil, storeError("Failed to load order", err)
	}
	return &order, nil
}

// GetOrderByNumber loads one order by its sequential order number
func (s *QueryService) GetOrderByNumber(ctx context.Context, actor Actor, number uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("order_number = ?", number).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, storeError("Failed to load order", err)
	}
	if err := ensureInScope(order, actor); err != nil {
		return nil, err
	}
	return &order, nil
}

// History returns complete orders, newest order number first
func (s *QueryService) History(ctx context.Context) ([]models.Order, error) {
	var candidates []models.Order
	err := s.db.WithContext(ctx).
		Where("order_status IN ?", []models.OrderStatus{models.StatusDelivered, models.StatusCancelled}).
		Order("order_number DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, storeError("Failed to fetch order history", err)
	}
	return FilterOrders(candidates, OrderFilter{View: ViewHistory}, nil), nil
}

// DriverOrders returns the open orders assigned to a driver
func (s *QueryService) DriverOrders(ctx context.Context, driverID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("driver_assigned_id = ?", driverID).
		Order("order_number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, storeError("Failed to fetch driver orders", err)
	}
	return FilterOrders(orders, OrderFilter{View: ViewActive}, nil), nil
}

// DriverLoads counts open orders per active driver, lightest load first.
// The ordering is advisory; assignment itself is never restricted by load.
func (s *QueryService) DriverLoads(ctx context.Context) ([]DriverLoad, error) {
	db := s.db.WithContext(ctx)

	var drivers []models.User
	if err := db.Where("role = ? AND status = ?", models.RoleDriver, models.UserActive).Find(&drivers).Error; err != nil {
		return nil, storeError("Failed to fetch drivers", err)
	}

	var assigned []models.Order
	if err := db.Where("driver_assigned_id IS NOT NULL").Find(&assigned).Error; err != nil {
		return nil, storeError("Failed to fetch assigned orders", err)
	}

	counts := make(map[uint]int, len(drivers))
	for _, o := range FilterOrders(assigned, OrderFilter{View: ViewActive}, nil) {
		counts[*o.DriverAssignedID]++
	}

	loads := make([]DriverLoad, 0, len(drivers))
	for _, d := range drivers {
		loads = append(loads, DriverLoad{Driver: d, OpenOrders: counts[d.ID]})
	}
	sort.SliceStable(loads, func(i, j int) bool {
		if loads[i].OpenOrders != loads[j].OpenOrders {
			return loads[i].OpenOrders < loads[j].OpenOrders
		}
		return strings.ToLower(loads[i].Driver.FullName()) < strings.ToLower(loads[j].Driver.FullName())
	})
	return loads, nil
}

// FindByTrackingCode returns the customer-facing view of an order
func (s *QueryService) FindByTrackingCode(ctx context.Context, code string) (*TrackingView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("tracking code is required")
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Where("tracking_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "No order matches this tracking code")
		}
		return nil, storeError("Failed to load order", err)
	}

	return &TrackingView{
		OrderNumber:      order.OrderNumber,
		CustomerName:     order.CustomerName,
		OrderStatus:      order.OrderStatus,
		AssignmentStatus: order.AssignmentStatus,
		PaymentStatus:    PaymentStatus(order),
		DateMade:         order.DateMade,
		DateDelivered:    order.DateDelivered,
		StatusTimestamps: order.Timestamps(),
	}, nil
}

func (s *QueryService) directory(db *gorm.DB) (Directory, error) {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, storeError("Failed to fetch users", err)
	}
	return NewDirectory(users), nil
}
