package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/delivery-tracker-api/metrics"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderService applies lifecycle changes to orders. Every operation runs in a
// single transaction so a failure leaves the stored order untouched.
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOrderService creates an order service backed by db
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// WithClock overrides the time source (primarily for testing)
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// CreateOrderInput carries the salesman-entered order fields
type CreateOrderInput struct {
	SalesmanID    uint
	CustomerName  string
	ContactNumber string
	PaymentAmt    decimal.Decimal
	PaymentMethod string
	DateMade      *time.Time
	Notes         string
}

// DeliveryInput carries the fields recorded when an order is handed over
type DeliveryInput struct {
	DeliveryDate      *time.Time
	ReceivedBy        string
	PaymentReceived   *decimal.Decimal
	PaymentReceivedBy string
}

// OrderPatch is a partial update. Nil fields are left alone.
// DriverAssignedID pointing at 0 unassigns the driver.
type OrderPatch struct {
	CustomerName     *string
	ContactNumber    *string
	PaymentAmt       *decimal.Decimal
	PaymentMethod    *string
	Invoice          *string
	DateMade         *time.Time
	SalesmanNotes    *string
	DriverNotes      *string
	SecretaryNotes   *string
	OrderStatus      *string
	Delivery         *DeliveryInput
	DriverAssignedID *uint
}

// orderNumberAttempts bounds how often CreateOrder re-reads MAX(order_number)
// after losing the unique index to a concurrent create
const orderNumberAttempts = 3

var errOrderNumberTaken = errors.New("order number already taken")

// CreateOrder validates the input and stores a new unassigned order in Being Prepared
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, actor Actor) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)

	if in.SalesmanID == 0 {
		return nil, validationError("salesmanId is required")
	}
	if in.CustomerName == "" {
		return nil, validationError("customerName is required")
	}
	if in.ContactNumber == "" {
		return nil, validationError("contactNumber is required")
	}
	if !in.PaymentAmt.IsPositive() {
		return nil, validationError("paymentAmt must be a positive number")
	}
	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, validationError("paymentMethod must be one of %s, %s", models.PaymentCash, models.PaymentCheque)
	}

	now := s.now()
	dateMade := now
	if in.DateMade != nil && !in.DateMade.IsZero() {
		dateMade = *in.DateMade
	}

	order := models.Order{
		TrackingCode:     uuid.NewString(),
		SalesmanID:       in.SalesmanID,
		CustomerName:     in.CustomerName,
		ContactNumber:    in.ContactNumber,
		PaymentAmt:       in.PaymentAmt,
		PaymentMethod:    method,
		AssignmentStatus: models.NoDriverAssigned,
		DateMade:         dateMade,
		LastModified:     actor.label(),
		SalesmanNotes:    in.Notes,
	}
	order.StampStatus(models.StatusBeingPrepared, now)

	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.ID = 0
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var salesman models.User
			if err := tx.First(&salesman, in.SalesmanID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationError("salesman %d does not exist", in.SalesmanID)
				}
				return storeError("Failed to load salesman", err)
			}
			if salesman.Role != models.RoleSalesman {
				return validationError("user %d is not a salesman", in.SalesmanID)
			}

			var last uint
			if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(order_number), 0)").Scan(&last).Error; err != nil {
				return storeError("Failed to allocate order number", err)
			}
			order.OrderNumber = last + 1

			if err := tx.Create(&order).Error; err != nil {
				if isUniqueViolation(err) {
					return errOrderNumberTaken
				}
				return storeError("Failed to create order", err)
			}
			return recordEvent(tx, order.ID, actor, models.EventCreated, fmt.Sprintf("order #%d created", order.OrderNumber))
		})
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		log.WithFields(log.Fields{"order_number": order.OrderNumber, "attempt": attempt}).Warn("Order number taken by a concurrent create, retrying")
	}
	if errors.Is(err, errOrderNumberTaken) {
		return nil, conflict("ORDER_NUMBER_CONFLICT", "Too many orders were created at once, please retry")
	}
	if err != nil {
		return nil, err
	}

	metrics.OrderCreated()
	log.WithFields(log.Fields{"order_id": order.ID, "order_number": order.OrderNumber, "salesman_id": order.SalesmanID}).Info("Order created")
	return &order, nil
}

// AssignDriver sets the responsible driver. Re-assigning the same driver is a no-op.
func (s *OrderService) AssignDriver(ctx context.Context, orderID, driverID uint, actor Actor) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		return s.applyAssignment(tx, order, driverID, actor)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UnassignDriver clears the driver assignment
func (s *OrderService) UnassignDriver(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	return s.AssignDriver(ctx, orderID, 0, actor)
}

// TransitionStatus moves the order to any recognized status other than Delivered,
// which needs delivery details and goes through CompleteDelivery.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uint, status string, actor Actor) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if err := ensureInScope(*order, actor); err != nil {
			return err
		}
		return s.applyStatus(tx, order, status, actor)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteDelivery marks the order Delivered together with the receiver and payment fields
func (s *OrderService) CompleteDelivery(ctx context.Context, orderID uint, in DeliveryInput, actor Actor) (*models.Order, error) {
	if err := validateDelivery(in); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if err := ensureInScope(*order, actor); err != nil {
			return err
		}
		return s.applyDelivery(tx, order, in, actor)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RestoreOrder puts a complete order back into Being Prepared.
// Delivery and payment fields from the earlier run are kept as they were.
func (s *OrderService) RestoreOrder(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if !IsComplete(*order) {
			return invalidTransition("only fully paid delivered or cancelled orders can be restored")
		}

		order.StampStatus(models.StatusBeingPrepared, s.now())
		order.LastModified = actor.label()
		if err := tx.Model(order).Select("order_status", "status_timestamps", "last_modified").Updates(order).Error; err != nil {
			return storeError("Failed to restore order", err)
		}
		return recordEvent(tx, order.ID, actor, models.EventRestored, string(models.StatusBeingPrepared))
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusTransition(string(models.StatusBeingPrepared))
	return order, nil
}

// DeleteOrder permanently removes the order and its event log.
// The deleted record is returned so callers can clean up attached files.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderEvent{}).Error; err != nil {
			return storeError("Failed to delete order history", err)
		}
		if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
			return storeError("Failed to delete order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"order_id": order.ID, "order_number": order.OrderNumber}).Info("Order deleted")
	return order, nil
}

// UpdateOrder applies a role-gated partial update. Salesmen may only touch their
// own notes, drivers their notes and status, back office everything.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uint, patch OrderPatch, actor Actor) (*models.Order, error) {
	if err := authorizePatch(patch, actor.Role); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if err := ensureInScope(*order, actor); err != nil {
			return err
		}

		columns, err := applyFields(order, patch)
		if err != nil {
			return err
		}
		if len(columns) > 0 {
			order.LastModified = actor.label()
			columns = append(columns, "last_modified")
			if err := tx.Model(order).Select(columns).Updates(order).Error; err != nil {
				return storeError("Failed to update order", err)
			}
			if err := recordEvent(tx, order.ID, actor, models.EventUpdated, strings.Join(columns[:len(columns)-1], ", ")); err != nil {
				return err
			}
		}

		if patch.DriverAssignedID != nil {
			if err := s.applyAssignment(tx, order, *patch.DriverAssignedID, actor); err != nil {
				return err
			}
		}

		if patch.OrderStatus != nil {
			if *patch.OrderStatus == string(models.StatusDelivered) {
				if patch.Delivery == nil {
					return validationError("delivery details are required to mark an order Delivered")
				}
				if err := validateDelivery(*patch.Delivery); err != nil {
					return err
				}
				return s.applyDelivery(tx, order, *patch.Delivery, actor)
			}
			return s.applyStatus(tx, order, *patch.OrderStatus, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SetDriverNotes replaces the driver's note on an order
func (s *OrderService) SetDriverNotes(ctx context.Context, orderID uint, notes string, actor Actor) (*models.Order, error) {
	return s.UpdateOrder(ctx, orderID, OrderPatch{DriverNotes: &notes}, actor)
}

// AttachProof records the storage key of a proof-of-delivery image and
// returns the key it replaced, if any.
func (s *OrderService) AttachProof(ctx context.Context, orderID uint, key string, actor Actor) (*models.Order, string, error) {
	var (
		order    *models.Order
		previous string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = findOrder(tx, orderID); err != nil {
			return err
		}
		if err := ensureInScope(*order, actor); err != nil {
			return err
		}
		if order.ProofImageKey != nil {
			previous = *order.ProofImageKey
		}

		order.ProofImageKey = &key
		order.LastModified = actor.label()
		if err := tx.Model(order).Select("proof_image_key", "last_modified").Updates(order).Error; err != nil {
			return storeError("Failed to attach proof of delivery", err)
		}
		return recordEvent(tx, order.ID, actor, models.EventProof, key)
	})
	if err != nil {
		return nil, "", err
	}
	return order, previous, nil
}

// Events returns the audit trail of an order, oldest first
func (s *OrderService) Events(ctx context.Context, orderID uint) ([]models.OrderEvent, error) {
	db := s.db.WithContext(ctx)
	if _, err := findOrder(db, orderID); err != nil {
		return nil, err
	}

	var events []models.OrderEvent
	if err := db.Where("order_id = ?", orderID).Order("id ASC").Find(&events).Error; err != nil {
		return nil, storeError("Failed to load order history", err)
	}
	return events, nil
}

func (s *OrderService) applyAssignment(tx *gorm.DB, order *models.Order, driverID uint, actor Actor) error {
	if driverID == 0 {
		if !order.HasDriver() {
			return nil
		}
		order.DriverAssignedID = nil
		order.AssignmentStatus = models.NoDriverAssigned
		order.LastModified = actor.label()
		if err := tx.Model(order).Select("driver_assigned_id", "assignment_status", "last_modified").Updates(order).Error; err != nil {
			return storeError("Failed to unassign driver", err)
		}
		return recordEvent(tx, order.ID, actor, models.EventUnassigned, "")
	}

	if order.HasDriver() && *order.DriverAssignedID == driverID {
		return nil
	}

	var driver models.User
	if err := tx.First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError("driver %d does not exist", driverID)
		}
		return storeError("Failed to load driver", err)
	}
	if driver.Role != models.RoleDriver || !driver.IsActive() {
		return validationError("user %d is not an active driver", driverID)
	}

	order.DriverAssignedID = &driverID
	order.AssignmentStatus = models.DriverAssigned
	order.LastModified = actor.label()
	if err := tx.Model(order).Select("driver_assigned_id", "assignment_status", "last_modified").Updates(order).Error; err != nil {
		return storeError("Failed to assign driver", err)
	}
	return recordEvent(tx, order.ID, actor, models.EventAssigned, driver.FullName())
}

func (s *OrderService) applyStatus(tx *gorm.DB, order *models.Order, raw string, actor Actor) error {
	status, ok := models.ParseOrderStatus(raw)
	if !ok {
		return invalidTransition("%q is not a recognized order status", raw)
	}
	if status == models.StatusDelivered {
		return validationError("delivery details are required to mark an order Delivered")
	}
	if status == models.StatusCancelled && !actor.Role.IsBackOffice() {
		return authorizationError("Only a secretary or admin can cancel an order")
	}

	order.StampStatus(status, s.now())
	order.LastModified = actor.label()
	if err := tx.Model(order).Select("order_status", "status_timestamps", "last_modified").Updates(order).Error; err != nil {
		return storeError("Failed to update order status", err)
	}
	if err := recordEvent(tx, order.ID, actor, models.EventStatus, string(status)); err != nil {
		return err
	}

	metrics.StatusTransition(string(status))
	return nil
}

func (s *OrderService) applyDelivery(tx *gorm.DB, order *models.Order, in DeliveryInput, actor Actor) error {
	now := s.now()
	delivered := now
	if in.DeliveryDate != nil && !in.DeliveryDate.IsZero() {
		delivered = *in.DeliveryDate
	}
	receivedBy := strings.TrimSpace(in.ReceivedBy)

	order.DateDelivered = &delivered
	order.DeliveryReceivedBy = &receivedBy
	order.PaymentReceived = decimal.NullDecimal{}
	order.PaymentReceivedBy = nil
	if in.PaymentReceived != nil {
		collector := strings.TrimSpace(in.PaymentReceivedBy)
		if collector == "" {
			collector = actor.label()
		}
		order.PaymentReceived = decimal.NewNullDecimal(*in.PaymentReceived)
		order.PaymentReceivedBy = &collector
	}
	order.StampStatus(models.StatusDelivered, now)
	order.LastModified = actor.label()

	err := tx.Model(order).Select(
		"order_status", "status_timestamps", "last_modified",
		"date_delivered", "delivery_received_by", "payment_received", "payment_received_by",
	).Updates(order).Error
	if err != nil {
		return storeError("Failed to complete delivery", err)
	}
	if err := recordEvent(tx, order.ID, actor, models.EventDelivered, "received by "+receivedBy); err != nil {
		return err
	}

	paid := IsComplete(*order)
	metrics.StatusTransition(string(models.StatusDelivered))
	metrics.DeliveryCompleted(paid)
	log.WithFields(log.Fields{"order_id": order.ID, "paid": paid}).Info("Delivery completed")
	return nil
}

func validateDelivery(in DeliveryInput) error {
	if strings.TrimSpace(in.ReceivedBy) == "" {
		return validationError("deliveryReceivedBy is required")
	}
	if in.PaymentReceived != nil && !in.PaymentReceived.IsPositive() {
		return validationError("paymentReceived must be a positive number")
	}
	return nil
}

// authorizePatch rejects patches that touch fields the role may not write
func authorizePatch(patch OrderPatch, role models.Role) error {
	switch role {
	case models.RoleAdmin, models.RoleSecretary:
		return nil
	case models.RoleSalesman:
		if patch.CustomerName != nil || patch.ContactNumber != nil || patch.PaymentAmt != nil ||
			patch.PaymentMethod != nil || patch.Invoice != nil || patch.DateMade != nil ||
			patch.DriverNotes != nil || patch.SecretaryNotes != nil || patch.OrderStatus != nil ||
			patch.Delivery != nil || patch.DriverAssignedID != nil {
			return authorizationError("Salesmen can only edit salesman notes")
		}
		return nil
	case models.RoleDriver:
		if patch.CustomerName != nil || patch.ContactNumber != nil || patch.PaymentAmt != nil ||
			patch.PaymentMethod != nil || patch.Invoice != nil || patch.DateMade != nil ||
			patch.SalesmanNotes != nil || patch.SecretaryNotes != nil || patch.DriverAssignedID != nil {
			return authorizationError("Drivers can only edit driver notes and delivery status")
		}
		return nil
	default:
		return authorizationError("Unknown role")
	}
}

// ensureInScope hides orders that belong to another salesman or driver
func ensureInScope(order models.Order, actor Actor) error {
	if ScopeFor(actor).Allows(order) {
		return nil
	}
	return notFound("ORDER_NOT_FOUND", "Order not found")
}

// applyFields copies plain field changes onto order and returns the touched columns
func applyFields(order *models.Order, patch OrderPatch) ([]string, error) {
	var columns []string

	if patch.CustomerName != nil {
		name := strings.TrimSpace(*patch.CustomerName)
		if name == "" {
			return nil, validationError("customerName cannot be blank")
		}
		order.CustomerName = name
		columns = append(columns, "customer_name")
	}
	if patch.ContactNumber != nil {
		number := strings.TrimSpace(*patch.ContactNumber)
		if number == "" {
			return nil, validationError("contactNumber cannot be blank")
		}
		order.ContactNumber = number
		columns = append(columns, "contact_number")
	}
	if patch.PaymentAmt != nil {
		if !patch.PaymentAmt.IsPositive() {
			return nil, validationError("paymentAmt must be a positive number")
		}
		order.PaymentAmt = *patch.PaymentAmt
		columns = append(columns, "payment_amt")
	}
	if patch.PaymentMethod != nil {
		method, ok := models.ParsePaymentMethod(*patch.PaymentMethod)
		if !ok {
			return nil, validationError("paymentMethod must be one of %s, %s", models.PaymentCash, models.PaymentCheque)
		}
		order.PaymentMethod = method
		columns = append(columns, "payment_method")
	}
	if patch.Invoice != nil {
		invoice := strings.TrimSpace(*patch.Invoice)
		if invoice == "" {
			order.Invoice = nil
		} else {
			order.Invoice = &invoice
		}
		columns = append(columns, "invoice")
	}
	if patch.DateMade != nil {
		if patch.DateMade.IsZero() {
			return nil, validationError("dateMade cannot be empty")
		}
		order.DateMade = *patch.DateMade
		columns = append(columns, "date_made")
	}
	if patch.SalesmanNotes != nil {
		order.SalesmanNotes = *patch.SalesmanNotes
		columns = append(columns, "salesman_notes")
	}
	if patch.DriverNotes != nil {
		order.DriverNotes = *patch.DriverNotes
		columns = append(columns, "driver_notes")
	}
	if patch.SecretaryNotes != nil {
		order.SecretaryNotes = *patch.SecretaryNotes
		columns = append(columns, "secretary_notes")
	}

	return columns, nil
}

func findOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, storeError("Failed to load order", err)
	}
	return &order, nil
}

func recordEvent(tx *gorm.DB, orderID uint, actor Actor, action models.EventAction, detail string) error {
	event := models.OrderEvent{
		OrderID: orderID,
		ActorID: actor.ref(),
		Actor:   actor.label(),
		Action:  action,
		Detail:  detail,
	}
	if err := tx.Create(&event).Error; err != nil {
		return storeError("Failed to record order history", err)
	}
	return nil
}
