package models

import "time"

// EventAction names what happened to an order
type EventAction string

const (
	EventCreated    EventAction = "created"
	EventStatus     EventAction = "status"
	EventAssigned   EventAction = "assigned"
	EventUnassigned EventAction = "unassigned"
	EventDelivered  EventAction = "delivered"
	EventRestored   EventAction = "restored"
	EventUpdated    EventAction = "updated"
	EventProof      EventAction = "proof"
)

// OrderEvent is one entry in an order's audit trail
type OrderEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"orderId"`
	ActorID   *uint       `gorm:"index" json:"actorId"` // nil for system actions
	Actor     string      `gorm:"not null" json:"actor"`
	Action    EventAction `gorm:"type:varchar(20);not null" json:"action"`
	Detail    string      `gorm:"type:text" json:"detail"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TableName specifies the table name for the OrderEvent model
func (OrderEvent) TableName() string {
	return "order_events"
}

// All returns every model that must be migrated
func All() []interface{} {
	return []interface{}{&User{}, &Order{}, &OrderEvent{}}
}
