package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// OrderServiceTestSuite exercises the order lifecycle against sqlite
type OrderServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	svc       *OrderService
	ctx       context.Context
	salesman  models.User
	other     models.User
	driver    models.User
	driver2   models.User
	inactive  models.User
	secretary models.User
}

func (suite *OrderServiceTestSuite) SetupTest() {
	t := suite.T()
	suite.db = newTestDB(t)
	suite.ctx = context.Background()
	suite.svc = NewOrderService(suite.db).WithClock(func() time.Time { return fixedNow })

	suite.salesman = seedUser(t, suite.db, "100", "Sam", "Seller", models.RoleSalesman, models.UserActive)
	suite.other = seedUser(t, suite.db, "101", "Olive", "Other", models.RoleSalesman, models.UserActive)
	suite.driver = seedUser(t, suite.db, "200", "Dana", "Driver", models.RoleDriver, models.UserActive)
	suite.driver2 = seedUser(t, suite.db, "201", "Dev", "Wheels", models.RoleDriver, models.UserActive)
	suite.inactive = seedUser(t, suite.db, "202", "Ivy", "Idle", models.RoleDriver, models.UserInactive)
	suite.secretary = seedUser(t, suite.db, "300", "Sue", "Desk", models.RoleSecretary, models.UserActive)
}

func (suite *OrderServiceTestSuite) createOrder(amount int64) *models.Order {
	order, err := suite.svc.CreateOrder(suite.ctx, CreateOrderInput{
		SalesmanID:    suite.salesman.ID,
		CustomerName:  "Maria Cruz",
		ContactNumber: "555-0199",
		PaymentAmt:    money(amount),
		PaymentMethod: "Cash",
	}, actorFor(suite.salesman))
	suite.Require().NoError(err)
	return order
}

func (suite *OrderServiceTestSuite) reload(id uint) models.Order {
	var order models.Order
	suite.Require().NoError(suite.db.First(&order, id).Error)
	return order
}

func (suite *OrderServiceTestSuite) TestCreateOrder_InitialState() {
	order := suite.createOrder(250)

	suite.Equal(models.StatusBeingPrepared, order.OrderStatus)
	suite.Equal(models.NoDriverAssigned, order.AssignmentStatus)
	suite.Nil(order.DriverAssignedID)
	suite.Equal(uint(1), order.OrderNumber)
	suite.NotEmpty(order.TrackingCode)
	suite.Equal(fixedNow, order.DateMade)
	suite.Equal("Sam Seller", order.LastModified)

	stored := suite.reload(order.ID)
	suite.Equal(fixedNow, stored.Timestamps()[models.StatusBeingPrepared].UTC())
	suite.True(stored.PaymentAmt.Equal(money(250)))
}

func (suite *OrderServiceTestSuite) TestCreateOrder_SequentialNumbers() {
	first := suite.createOrder(10)
	second := suite.createOrder(20)
	third := suite.createOrder(30)

	suite.Equal(first.OrderNumber+1, second.OrderNumber)
	suite.Equal(second.OrderNumber+1, third.OrderNumber)
	suite.NotEqual(first.TrackingCode, second.TrackingCode)
}

// raceOrderNumbers stores a rival order with the same number right before each
// of the next n order inserts, the way a concurrent request would
func (suite *OrderServiceTestSuite) raceOrderNumbers(n int) *int {
	collisions := 0
	racing := false
	err := suite.db.Callback().Create().Before("gorm:create").Register("test:rival_order", func(tx *gorm.DB) {
		order, ok := tx.Statement.Dest.(*models.Order)
		if !ok || racing || collisions >= n {
			return
		}
		racing = true
		defer func() { racing = false }()

		rival := *order
		rival.ID = 0
		rival.TrackingCode = uuid.NewString()
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			_ = tx.AddError(err)
			return
		}
		collisions++
	})
	suite.Require().NoError(err)
	return &collisions
}

func (suite *OrderServiceTestSuite) TestCreateOrder_RetriesTakenOrderNumber() {
	collisions := suite.raceOrderNumbers(1)

	order := suite.createOrder(75)

	suite.Equal(1, *collisions)
	suite.Equal(uint(1), order.OrderNumber)

	var orders, events int64
	suite.Require().NoError(suite.db.Model(&models.Order{}).Count(&orders).Error)
	suite.Require().NoError(suite.db.Model(&models.OrderEvent{}).Where("order_id = ?", order.ID).Count(&events).Error)
	suite.Equal(int64(1), orders, "the losing attempt was rolled back")
	suite.Equal(int64(1), events)
}

func (suite *OrderServiceTestSuite) TestCreateOrder_GivesUpAfterRepeatedCollisions() {
	collisions := suite.raceOrderNumbers(orderNumberAttempts)

	_, err := suite.svc.CreateOrder(suite.ctx, CreateOrderInput{
		SalesmanID:    suite.salesman.ID,
		CustomerName:  "Maria Cruz",
		ContactNumber: "555-0199",
		PaymentAmt:    money(75),
		PaymentMethod: "Cash",
	}, actorFor(suite.salesman))

	suite.ErrorIs(err, ErrConflict)
	suite.Equal("ORDER_NUMBER_CONFLICT", AsError(err).Code)
	suite.Equal(orderNumberAttempts, *collisions)

	var orders int64
	suite.Require().NoError(suite.db.Model(&models.Order{}).Count(&orders).Error)
	suite.Zero(orders)
}

func (suite *OrderServiceTestSuite) TestCreateOrder_Validation() {
	valid := CreateOrderInput{
		SalesmanID:    suite.salesman.ID,
		CustomerName:  "Maria Cruz",
		ContactNumber: "555-0199",
		PaymentAmt:    money(100),
		PaymentMethod: "Cheque",
	}

	tests := []struct {
		name   string
		mutate func(in *CreateOrderInput)
	}{
		{"zero amount", func(in *CreateOrderInput) { in.PaymentAmt = money(0) }},
		{"negative amount", func(in *CreateOrderInput) { in.PaymentAmt = money(-5) }},
		{"unknown payment method", func(in *CreateOrderInput) { in.PaymentMethod = "Card" }},
		{"payment method is case-sensitive", func(in *CreateOrderInput) { in.PaymentMethod = "cash" }},
		{"blank customer", func(in *CreateOrderInput) { in.CustomerName = "   " }},
		{"blank contact", func(in *CreateOrderInput) { in.ContactNumber = "" }},
		{"missing salesman", func(in *CreateOrderInput) { in.SalesmanID = 0 }},
		{"salesman does not exist", func(in *CreateOrderInput) { in.SalesmanID = 9999 }},
		{"creator is not a salesman", func(in *CreateOrderInput) { in.SalesmanID = suite.driver.ID }},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			in := valid
			tt.mutate(&in)
			_, err := suite.svc.CreateOrder(suite.ctx, in, actorFor(suite.salesman))
			suite.ErrorIs(err, ErrValidation)
		})
	}

	var count int64
	suite.db.Model(&models.Order{}).Count(&count)
	suite.Zero(count, "failed creations must not store anything")
}

func (suite *OrderServiceTestSuite) TestAssignAndUnassign_KeepsAssignmentInvariant() {
	order := suite.createOrder(100)
	back := actorFor(suite.secretary)

	assigned, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, back)
	suite.Require().NoError(err)
	suite.Equal(models.DriverAssigned, assigned.AssignmentStatus)
	suite.Equal(suite.driver.ID, *assigned.DriverAssignedID)

	stored := suite.reload(order.ID)
	suite.Equal(models.DriverAssigned, stored.AssignmentStatus)
	suite.NotNil(stored.DriverAssignedID)

	unassigned, err := suite.svc.UnassignDriver(suite.ctx, order.ID, back)
	suite.Require().NoError(err)
	suite.Equal(models.NoDriverAssigned, unassigned.AssignmentStatus)
	suite.Nil(unassigned.DriverAssignedID)

	stored = suite.reload(order.ID)
	suite.Equal(models.NoDriverAssigned, stored.AssignmentStatus)
	suite.Nil(stored.DriverAssignedID)
}

func (suite *OrderServiceTestSuite) TestAssignDriver_IdempotentForSameDriver() {
	order := suite.createOrder(100)
	back := actorFor(suite.secretary)

	_, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, back)
	suite.Require().NoError(err)
	again, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, back)
	suite.Require().NoError(err)
	suite.Equal(suite.driver.ID, *again.DriverAssignedID)

	events, err := suite.svc.Events(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Len(events, 2, "second identical assignment writes nothing")

	reassigned, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver2.ID, back)
	suite.Require().NoError(err)
	suite.Equal(suite.driver2.ID, *reassigned.DriverAssignedID)
}

func (suite *OrderServiceTestSuite) TestAssignDriver_Errors() {
	order := suite.createOrder(100)
	back := actorFor(suite.secretary)

	_, err := suite.svc.AssignDriver(suite.ctx, 9999, suite.driver.ID, back)
	suite.ErrorIs(err, ErrNotFound)

	_, err = suite.svc.AssignDriver(suite.ctx, order.ID, 9999, back)
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.svc.AssignDriver(suite.ctx, order.ID, suite.inactive.ID, back)
	suite.ErrorIs(err, ErrValidation, "inactive drivers cannot take orders")

	_, err = suite.svc.AssignDriver(suite.ctx, order.ID, suite.salesman.ID, back)
	suite.ErrorIs(err, ErrValidation, "only drivers can be assigned")
}

func (suite *OrderServiceTestSuite) TestTransitionStatus_Permissive() {
	order := suite.createOrder(100)
	back := actorFor(suite.secretary)

	// any recognized status may follow any other
	for _, status := range []models.OrderStatus{models.StatusInTransit, models.StatusPickedUp, models.StatusDeferred, models.StatusBeingPrepared, models.StatusCancelled} {
		updated, err := suite.svc.TransitionStatus(suite.ctx, order.ID, string(status), back)
		suite.Require().NoError(err, status)
		suite.Equal(status, updated.OrderStatus)
		suite.Equal("Sue Desk", updated.LastModified)
	}

	stored := suite.reload(order.ID)
	stamps := stored.Timestamps()
	suite.Len(stamps, 5)
	suite.Equal(fixedNow, stamps[models.StatusCancelled].UTC())
}

func (suite *OrderServiceTestSuite) TestTransitionStatus_Errors() {
	order := suite.createOrder(100)
	back := actorFor(suite.secretary)

	_, err := suite.svc.TransitionStatus(suite.ctx, 9999, "Picked Up", back)
	suite.ErrorIs(err, ErrNotFound)

	_, err = suite.svc.TransitionStatus(suite.ctx, order.ID, "Lost", back)
	suite.ErrorIs(err, ErrInvalidTransition)

	_, err = suite.svc.TransitionStatus(suite.ctx, order.ID, "picked up", back)
	suite.ErrorIs(err, ErrInvalidTransition, "statuses are case-sensitive")

	_, err = suite.svc.TransitionStatus(suite.ctx, order.ID, "Delivered", back)
	suite.ErrorIs(err, ErrValidation, "Delivered needs delivery details")

	suite.Equal(models.StatusBeingPrepared, suite.reload(order.ID).OrderStatus)
}

func (suite *OrderServiceTestSuite) TestTransitionStatus_DriverRules() {
	order := suite.createOrder(100)
	driver := actorFor(suite.driver)

	_, err := suite.svc.TransitionStatus(suite.ctx, order.ID, "Picked Up", driver)
	suite.ErrorIs(err, ErrNotFound, "unassigned orders are invisible to drivers")

	_, err = suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, actorFor(suite.secretary))
	suite.Require().NoError(err)

	_, err = suite.svc.TransitionStatus(suite.ctx, order.ID, "Picked Up", driver)
	suite.NoError(err)

	_, err = suite.svc.TransitionStatus(suite.ctx, order.ID, "Cancelled", driver)
	suite.ErrorIs(err, ErrAuthorization, "drivers cannot cancel")
	suite.Equal(models.StatusPickedUp, suite.reload(order.ID).OrderStatus)
}

func (suite *OrderServiceTestSuite) TestCompleteDelivery_FullyPaid() {
	order := suite.createOrder(500)
	_, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, actorFor(suite.secretary))
	suite.Require().NoError(err)

	delivered, err := suite.svc.CompleteDelivery(suite.ctx, order.ID, DeliveryInput{
		ReceivedBy:      "Jane Doe",
		PaymentReceived: moneyPtr(500),
	}, actorFor(suite.driver))
	suite.Require().NoError(err)

	suite.Equal(models.StatusDelivered, delivered.OrderStatus)
	suite.Equal("Jane Doe", *delivered.DeliveryReceivedBy)
	suite.Equal("Dana Driver", *delivered.PaymentReceivedBy)
	suite.Equal(fixedNow, *delivered.DateDelivered)
	suite.Equal(PaymentPaid, PaymentStatus(*delivered))

	stored := suite.reload(order.ID)
	suite.True(IsComplete(stored), "fully paid delivery leaves the active worklists")
	suite.Equal(PaymentPaid, PaymentStatus(stored))
}

func (suite *OrderServiceTestSuite) TestCompleteDelivery_Unpaid() {
	order := suite.createOrder(500)
	day := time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

	delivered, err := suite.svc.CompleteDelivery(suite.ctx, order.ID, DeliveryInput{
		DeliveryDate: &day,
		ReceivedBy:   "Front desk",
	}, actorFor(suite.secretary))
	suite.Require().NoError(err)

	suite.Equal(day, *delivered.DateDelivered)
	suite.False(delivered.PaymentReceived.Valid)
	suite.Nil(delivered.PaymentReceivedBy)

	stored := suite.reload(order.ID)
	suite.Equal(PaymentPending, PaymentStatus(stored))
	suite.False(IsComplete(stored), "unpaid deliveries stay on the worklist")
}

func (suite *OrderServiceTestSuite) TestCompleteDelivery_PartialPaymentIsNotComplete() {
	order := suite.createOrder(500)

	_, err := suite.svc.CompleteDelivery(suite.ctx, order.ID, DeliveryInput{
		ReceivedBy:      "Jane Doe",
		PaymentReceived: moneyPtr(499),
	}, actorFor(suite.secretary))
	suite.Require().NoError(err)

	stored := suite.reload(order.ID)
	suite.Equal(PaymentPaid, PaymentStatus(stored))
	suite.False(IsComplete(stored))
}

func (suite *OrderServiceTestSuite) TestCompleteDelivery_ValidationLeavesOrderUnchanged() {
	order := suite.createOrder(500)
	before := suite.reload(order.ID)

	_, err := suite.svc.CompleteDelivery(suite.ctx, order.ID, DeliveryInput{ReceivedBy: "  "}, actorFor(suite.secretary))
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.svc.CompleteDelivery(suite.ctx, order.ID, DeliveryInput{ReceivedBy: "Jane Doe", PaymentReceived: moneyPtr(0)}, actorFor(suite.secretary))
	suite.ErrorIs(err, ErrValidation)

	after := suite.reload(order.ID)
	suite.Equal(before.OrderStatus, after.OrderStatus)
	suite.Nil(after.DateDelivered)
	suite.Nil(after.DeliveryReceivedBy)
	suite.False(after.PaymentReceived.Valid)
	suite.Nil(after.PaymentReceivedBy)
}

func (suite *OrderServiceTestSuite) TestCompleteDelivery_NotFound() {
	_, err := suite.svc.CompleteDelivery(suite.ctx, 9999, DeliveryInput{ReceivedBy: "Jane Doe"}, actorFor(suite.secretary))
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *OrderServiceTestSuite) TestRestoreOrder() {
	back := actorFor(suite.secretary)

	unpaid := suite.createOrder(100)
	_, err := suite.svc.RestoreOrder(suite.ctx, unpaid.ID, back)
	suite.ErrorIs(err, ErrInvalidTransition, "active orders cannot be restored")

	paid := suite.createOrder(300)
	_, err = suite.svc.CompleteDelivery(suite.ctx, paid.ID, DeliveryInput{ReceivedBy: "Jane Doe", PaymentReceived: moneyPtr(300)}, back)
	suite.Require().NoError(err)

	restored, err := suite.svc.RestoreOrder(suite.ctx, paid.ID, back)
	suite.Require().NoError(err)
	suite.Equal(models.StatusBeingPrepared, restored.OrderStatus)

	// earlier delivery data is kept as-is
	stored := suite.reload(paid.ID)
	suite.Equal(models.StatusBeingPrepared, stored.OrderStatus)
	suite.Equal("Jane Doe", *stored.DeliveryReceivedBy)
	suite.True(stored.PaymentReceived.Valid)
	suite.NotNil(stored.DateDelivered)

	cancelled := suite.createOrder(50)
	_, err = suite.svc.TransitionStatus(suite.ctx, cancelled.ID, "Cancelled", back)
	suite.Require().NoError(err)
	restored, err = suite.svc.RestoreOrder(suite.ctx, cancelled.ID, back)
	suite.Require().NoError(err)
	suite.Equal(models.StatusBeingPrepared, restored.OrderStatus)

	_, err = suite.svc.RestoreOrder(suite.ctx, 9999, back)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *OrderServiceTestSuite) TestDeleteOrder() {
	order := suite.createOrder(100)
	keep := suite.createOrder(200)

	deleted, err := suite.svc.DeleteOrder(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal(order.ID, deleted.ID)

	var count int64
	suite.db.Model(&models.Order{}).Count(&count)
	suite.Equal(int64(1), count)
	suite.db.Model(&models.OrderEvent{}).Where("order_id = ?", order.ID).Count(&count)
	suite.Zero(count)

	_, err = suite.svc.DeleteOrder(suite.ctx, order.ID)
	suite.ErrorIs(err, ErrNotFound)
	suite.db.Model(&models.Order{}).Count(&count)
	suite.Equal(int64(1), count, "failed delete leaves the store unchanged")
	suite.Equal(keep.ID, suite.reload(keep.ID).ID)
}

func (suite *OrderServiceTestSuite) TestUpdateOrder_RoleGating() {
	order := suite.createOrder(100)
	_, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, actorFor(suite.secretary))
	suite.Require().NoError(err)

	tests := []struct {
		name    string
		actor   Actor
		patch   OrderPatch
		wantErr error
	}{
		{"salesman edits own notes", actorFor(suite.salesman), OrderPatch{SalesmanNotes: strPtr("call first")}, nil},
		{"salesman cannot edit amount", actorFor(suite.salesman), OrderPatch{PaymentAmt: moneyPtr(1)}, ErrAuthorization},
		{"other salesman cannot see order", actorFor(suite.other), OrderPatch{SalesmanNotes: strPtr("x")}, ErrNotFound},
		{"driver edits notes", actorFor(suite.driver), OrderPatch{DriverNotes: strPtr("gate code 1234")}, nil},
		{"driver moves status", actorFor(suite.driver), OrderPatch{OrderStatus: strPtr("In Transit")}, nil},
		{"driver cannot set invoice", actorFor(suite.driver), OrderPatch{Invoice: strPtr("INV-1")}, ErrAuthorization},
		{"unassigned driver cannot see order", actorFor(suite.driver2), OrderPatch{DriverNotes: strPtr("x")}, ErrNotFound},
		{"secretary edits everything", actorFor(suite.secretary), OrderPatch{
			CustomerName:   strPtr("Maria Dela Cruz"),
			Invoice:        strPtr("INV-42"),
			SecretaryNotes: strPtr("priority"),
			PaymentMethod:  strPtr("Cheque"),
			PaymentAmt:     moneyPtr(150),
		}, nil},
		{"secretary cannot blank customer", actorFor(suite.secretary), OrderPatch{CustomerName: strPtr(" ")}, ErrValidation},
		{"secretary cannot set bad method", actorFor(suite.secretary), OrderPatch{PaymentMethod: strPtr("Card")}, ErrValidation},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.svc.UpdateOrder(suite.ctx, order.ID, tt.patch, tt.actor)
			if tt.wantErr == nil {
				suite.NoError(err)
			} else {
				suite.ErrorIs(err, tt.wantErr)
			}
		})
	}

	stored := suite.reload(order.ID)
	suite.Equal("call first", stored.SalesmanNotes)
	suite.Equal("gate code 1234", stored.DriverNotes)
	suite.Equal("priority", stored.SecretaryNotes)
	suite.Equal("Maria Dela Cruz", stored.CustomerName)
	suite.Equal("INV-42", *stored.Invoice)
	suite.Equal(models.PaymentCheque, stored.PaymentMethod)
	suite.True(stored.PaymentAmt.Equal(money(150)))
	suite.Equal(models.StatusInTransit, stored.OrderStatus)
}

func (suite *OrderServiceTestSuite) TestUpdateOrder_AssignmentAndDelivery() {
	order := suite.createOrder(80)
	back := actorFor(suite.secretary)

	updated, err := suite.svc.UpdateOrder(suite.ctx, order.ID, OrderPatch{DriverAssignedID: &suite.driver.ID}, back)
	suite.Require().NoError(err)
	suite.Equal(models.DriverAssigned, updated.AssignmentStatus)

	_, err = suite.svc.UpdateOrder(suite.ctx, order.ID, OrderPatch{OrderStatus: strPtr("Delivered")}, back)
	suite.ErrorIs(err, ErrValidation)

	updated, err = suite.svc.UpdateOrder(suite.ctx, order.ID, OrderPatch{
		OrderStatus: strPtr("Delivered"),
		Delivery:    &DeliveryInput{ReceivedBy: "Jane Doe", PaymentReceived: moneyPtr(80), PaymentReceivedBy: "Dana Driver"},
	}, back)
	suite.Require().NoError(err)
	suite.True(IsComplete(*updated))

	zero := uint(0)
	updated, err = suite.svc.UpdateOrder(suite.ctx, order.ID, OrderPatch{DriverAssignedID: &zero}, back)
	suite.Require().NoError(err)
	suite.Nil(updated.DriverAssignedID)
	suite.Equal(models.NoDriverAssigned, updated.AssignmentStatus)
}

func (suite *OrderServiceTestSuite) TestUpdateOrder_FailureRollsBack() {
	order := suite.createOrder(80)

	_, err := suite.svc.UpdateOrder(suite.ctx, order.ID, OrderPatch{
		SecretaryNotes: strPtr("should not stick"),
		OrderStatus:    strPtr("Misplaced"),
	}, actorFor(suite.secretary))
	suite.ErrorIs(err, ErrInvalidTransition)
	suite.Empty(suite.reload(order.ID).SecretaryNotes)
}

func (suite *OrderServiceTestSuite) TestSetDriverNotes() {
	order := suite.createOrder(80)
	_, err := suite.svc.AssignDriver(suite.ctx, order.ID, suite.driver.ID, actorFor(suite.secretary))
	suite.Require().NoError(err)

	updated, err := suite.svc.SetDriverNotes(suite.ctx, order.ID, "dog in yard", actorFor(suite.driver))
	suite.Require().NoError(err)
	suite.Equal("dog in yard", updated.DriverNotes)
	suite.Equal("Dana Driver", updated.LastModified)

	_, err = suite.svc.SetDriverNotes(suite.ctx, order.ID, "nope", actorFor(suite.salesman))
	suite.ErrorIs(err, ErrAuthorization)
}

func (suite *OrderServiceTestSuite) TestAttachProofAndEvents() {
	order := suite.createOrder(80)
	back := actorFor(suite.secretary)

	_, previous, err := suite.svc.AttachProof(suite.ctx, order.ID, "proofs/a.png", back)
	suite.Require().NoError(err)
	suite.Empty(previous)

	updated, previous, err := suite.svc.AttachProof(suite.ctx, order.ID, "proofs/b.png", back)
	suite.Require().NoError(err)
	suite.Equal("proofs/a.png", previous)
	suite.Equal("proofs/b.png", *updated.ProofImageKey)

	events, err := suite.svc.Events(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 3)
	suite.Equal(models.EventCreated, events[0].Action)
	suite.Equal(models.EventProof, events[2].Action)
	suite.Equal("Sue Desk", events[2].Actor)
	suite.Equal(suite.secretary.ID, *events[2].ActorID)

	_, err = suite.svc.Events(suite.ctx, 9999)
	suite.ErrorIs(err, ErrNotFound)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
