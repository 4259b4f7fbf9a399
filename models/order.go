package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the fulfillment stage of an order. Values are persisted verbatim.
type OrderStatus string

const (
	StatusBeingPrepared OrderStatus = "Being Prepared"
	StatusPickedUp      OrderStatus = "Picked Up"
	StatusInTransit     OrderStatus = "In Transit"
	StatusDelivered     OrderStatus = "Delivered"
	StatusDeferred      OrderStatus = "Deferred"
	StatusCancelled     OrderStatus = "Cancelled"
)

// OrderStatuses lists every recognized status in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusBeingPrepared,
	StatusPickedUp,
	StatusInTransit,
	StatusDelivered,
	StatusDeferred,
	StatusCancelled,
}

// ParseOrderStatus matches the exact, case-sensitive status string
func ParseOrderStatus(value string) (OrderStatus, bool) {
	for _, status := range OrderStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// AssignmentStatus mirrors whether DriverAssignedID is set
type AssignmentStatus string

const (
	NoDriverAssigned AssignmentStatus = "No Driver Assigned"
	DriverAssigned   AssignmentStatus = "Driver Assigned"
)

// PaymentMethod is how the customer pays on delivery
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentCheque PaymentMethod = "Cheque"
)

// ParsePaymentMethod matches the exact payment method string
func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	switch PaymentMethod(value) {
	case PaymentCash, PaymentCheque:
		return PaymentMethod(value), true
	default:
		return "", false
	}
}

// StatusTimestamps records when the order last entered each status
type StatusTimestamps map[OrderStatus]time.Time

// Order represents one customer purchase tracked from preparation to payment
type Order struct {
	ID                 uint                                 `gorm:"primaryKey" json:"id"`
	OrderNumber        uint                                 `gorm:"uniqueIndex;not null" json:"orderNumber"`
	TrackingCode       string                               `gorm:"uniqueIndex;not null" json:"trackingCode"`
	SalesmanID         uint                                 `gorm:"not null;index" json:"salesmanId"`         // immutable after creation
	DriverAssignedID   *uint                                `gorm:"index" json:"driverAssignedId"`            // nullable, set by secretary
	CustomerName       string                               `gorm:"not null" json:"customerName"`
	ContactNumber      string                               `gorm:"not null" json:"contactNumber"`
	PaymentAmt         decimal.Decimal                      `gorm:"type:decimal(12,2);not null" json:"paymentAmt"`
	PaymentMethod      PaymentMethod                        `gorm:"type:varchar(10);not null" json:"paymentMethod"`
	Invoice            *string                              `json:"invoice"`
	OrderStatus        OrderStatus                          `gorm:"type:varchar(20);not null;index" json:"orderStatus"`
	AssignmentStatus   AssignmentStatus                     `gorm:"type:varchar(20);not null" json:"assignmentStatus"`
	DateMade           time.Time                            `gorm:"not null" json:"dateMade"`
	DateDelivered      *time.Time                           `json:"dateDelivered"`
	DeliveryReceivedBy *string                              `json:"deliveryReceivedBy"`
	PaymentReceived    decimal.NullDecimal                  `gorm:"type:decimal(12,2)" json:"paymentReceived"`
	PaymentReceivedBy  *string                              `json:"paymentReceivedBy"`
	StatusTimestamps   datatypes.JSONType[StatusTimestamps] `json:"statusTimestamps"`
	LastModified       string                               `json:"lastModified"` // display name of the last actor
	SalesmanNotes      string                               `gorm:"type:text" json:"salesmanNotes"`
	DriverNotes        string                               `gorm:"type:text" json:"driverNotes"`
	SecretaryNotes     string                               `gorm:"type:text" json:"secretaryNotes"`
	ProofImageKey      *string                              `json:"proofImageKey,omitempty"`
	ProofImageURL      *string                              `gorm:"-" json:"proofImageUrl,omitempty"` // computed
	CreatedAt          time.Time                            `json:"createdAt"`
	UpdatedAt          time.Time                            `json:"updatedAt"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// HasDriver reports whether a driver is assigned
func (o Order) HasDriver() bool {
	return o.DriverAssignedID != nil
}

// Timestamps returns a copy of the status timestamp map, never nil
func (o Order) Timestamps() StatusTimestamps {
	out := StatusTimestamps{}
	for status, at := range o.StatusTimestamps.Data() {
		out[status] = at
	}
	return out
}

// StampStatus sets the status and records when it was entered
func (o *Order) StampStatus(status OrderStatus, at time.Time) {
	stamps := o.Timestamps()
	stamps[status] = at
	o.OrderStatus = status
	o.StatusTimestamps = datatypes.NewJSONType(stamps)
}
