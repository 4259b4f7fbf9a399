package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTableNames(t *testing.T) {
	assert.Equal(t, "orders", Order{}.TableName())
	assert.Equal(t, "order_events", OrderEvent{}.TableName())
	assert.Len(t, All(), 3)
}

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses {
		got, ok := ParseOrderStatus(string(status))
		assert.True(t, ok, status)
		assert.Equal(t, status, got)
	}

	for _, bad := range []string{"", "delivered", "Being prepared", "Lost"} {
		_, ok := ParseOrderStatus(bad)
		assert.False(t, ok, bad)
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, ok := ParsePaymentMethod("Cash")
	assert.True(t, ok)
	assert.Equal(t, PaymentCash, method)

	method, ok = ParsePaymentMethod("Cheque")
	assert.True(t, ok)
	assert.Equal(t, PaymentCheque, method)

	_, ok = ParsePaymentMethod("cash")
	assert.False(t, ok)
	_, ok = ParsePaymentMethod("Card")
	assert.False(t, ok)
}

func TestOrderStampStatus(t *testing.T) {
	first := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	later := first.Add(3 * time.Hour)

	var order Order
	assert.Empty(t, order.Timestamps())

	order.StampStatus(StatusBeingPrepared, first)
	order.StampStatus(StatusPickedUp, later)
	order.StampStatus(StatusBeingPrepared, later)

	assert.Equal(t, StatusBeingPrepared, order.OrderStatus)
	stamps := order.Timestamps()
	assert.Len(t, stamps, 2)
	assert.Equal(t, later, stamps[StatusBeingPrepared])
	assert.Equal(t, later, stamps[StatusPickedUp])

	// callers get a copy
	stamps[StatusCancelled] = first
	assert.NotContains(t, order.Timestamps(), StatusCancelled)
}

func TestOrderHasDriver(t *testing.T) {
	order := Order{}
	assert.False(t, order.HasDriver())

	driverID := uint(4)
	order.DriverAssignedID = &driverID
	assert.True(t, order.HasDriver())
}

func TestOrderJSON(t *testing.T) {
	order := Order{
		ID:               1,
		OrderNumber:      12,
		CustomerName:     "Maria Cruz",
		PaymentAmt:       decimal.RequireFromString("500.50"),
		PaymentMethod:    PaymentCash,
		AssignmentStatus: NoDriverAssigned,
	}
	order.StampStatus(StatusBeingPrepared, time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC))

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "500.5", fields["paymentAmt"])
	assert.Nil(t, fields["paymentReceived"])
	assert.Nil(t, fields["driverAssignedId"])
	assert.Equal(t, "Being Prepared", fields["orderStatus"])
	assert.Equal(t, "No Driver Assigned", fields["assignmentStatus"])
	assert.NotContains(t, fields, "proofImageKey")

	stamps, ok := fields["statusTimestamps"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-05-01T08:00:00Z", stamps["Being Prepared"])
}
