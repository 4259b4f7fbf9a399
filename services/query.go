package services

import (
	"sort"
	"strings"
	"time"

	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentState is the derived payment label shown on dashboards
type PaymentState string

const (
	PaymentPaid    PaymentState = "Paid"
	PaymentPending PaymentState = "Pending"
)

// PaymentStatus is Paid whenever any payment has been recorded
func PaymentStatus(o models.Order) PaymentState {
	if o.PaymentReceived.Valid {
		return PaymentPaid
	}
	return PaymentPending
}

// IsComplete reports whether the order has left the active worklists:
// cancelled, or delivered with the received amount exactly equal to the amount due.
func IsComplete(o models.Order) bool {
	switch o.OrderStatus {
	case models.StatusCancelled:
		return true
	case models.StatusDelivered:
		return o.PaymentReceived.Valid && o.PaymentReceived.Decimal.Equal(o.PaymentAmt)
	default:
		return false
	}
}

// View selects active, history or all orders
type View string

const (
	ViewAll     View = "all"
	ViewActive  View = "active"
	ViewHistory View = "history"
)

// OrderFilter holds optional, conjunctive list predicates
type OrderFilter struct {
	PaymentStatus string
	OrderStatus   string
	Search        string
	Month         string // YYYY-MM of dateMade
	SalesmanName  string
	DriverName    string
	View          View
}

// Directory resolves user ids referenced by orders
type Directory map[uint]models.User

// NewDirectory indexes users by id
func NewDirectory(users []models.User) Directory {
	dir := make(Directory, len(users))
	for _, u := range users {
		dir[u.ID] = u
	}
	return dir
}

// Name returns the full name of the user with id, or "" when unknown
func (d Directory) Name(id *uint) string {
	if id == nil || d == nil {
		return ""
	}
	if u, ok := d[*id]; ok {
		return u.FullName()
	}
	return ""
}

// FilterOrders returns the orders matching every set predicate, keeping input order
func FilterOrders(orders []models.Order, f OrderFilter, dir Directory) []models.Order {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	salesman := strings.ToLower(strings.TrimSpace(f.SalesmanName))
	driver := strings.ToLower(strings.TrimSpace(f.DriverName))

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		switch f.View {
		case ViewActive:
			if IsComplete(o) {
				continue
			}
		case ViewHistory:
			if !IsComplete(o) {
				continue
			}
		}
		if f.PaymentStatus != "" && !strings.EqualFold(f.PaymentStatus, string(PaymentStatus(o))) {
			continue
		}
		if f.OrderStatus != "" && string(o.OrderStatus) != f.OrderStatus {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.CustomerName), search) {
			continue
		}
		if f.Month != "" && o.DateMade.Format("2006-01") != f.Month {
			continue
		}
		if salesman != "" && !strings.EqualFold(dir.Name(&o.SalesmanID), salesman) {
			continue
		}
		if driver != "" && !strings.EqualFold(dir.Name(o.DriverAssignedID), driver) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// SortKeys lists the column names accepted by SortOrders
var SortKeys = []string{
	"orderNumber", "customerName", "contactNumber", "paymentAmt", "paymentMethod",
	"paymentReceived", "paymentStatus", "orderStatus", "assignmentStatus", "invoice",
	"dateMade", "dateDelivered", "salesman", "driver",
}

// SortOrders sorts in place on a single column. Currency columns compare by
// value, date columns by instant and text columns case-insensitively.
func SortOrders(orders []models.Order, key string, desc bool, dir Directory) error {
	cmp, err := comparator(key, dir)
	if err != nil {
		return err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return cmp(orders[j], orders[i]) < 0
		}
		return cmp(orders[i], orders[j]) < 0
	})
	return nil
}

func comparator(key string, dir Directory) (func(a, b models.Order) int, error) {
	switch key {
	case "orderNumber", "":
		return func(a, b models.Order) int { return compareUint(a.OrderNumber, b.OrderNumber) }, nil
	case "customerName":
		return byText(func(o models.Order) string { return o.CustomerName }), nil
	case "contactNumber":
		return byText(func(o models.Order) string { return o.ContactNumber }), nil
	case "paymentMethod":
		return byText(func(o models.Order) string { return string(o.PaymentMethod) }), nil
	case "paymentStatus":
		return byText(func(o models.Order) string { return string(PaymentStatus(o)) }), nil
	case "orderStatus":
		return byText(func(o models.Order) string { return string(o.OrderStatus) }), nil
	case "assignmentStatus":
		return byText(func(o models.Order) string { return string(o.AssignmentStatus) }), nil
	case "invoice":
		return byText(func(o models.Order) string { return deref(o.Invoice) }), nil
	case "salesman":
		return byText(func(o models.Order) string { return dir.Name(&o.SalesmanID) }), nil
	case "driver":
		return byText(func(o models.Order) string { return dir.Name(o.DriverAssignedID) }), nil
	case "paymentAmt":
		return func(a, b models.Order) int { return a.PaymentAmt.Cmp(b.PaymentAmt) }, nil
	case "paymentReceived":
		return func(a, b models.Order) int { return compareNullDecimal(a.PaymentReceived, b.PaymentReceived) }, nil
	case "dateMade":
		return func(a, b models.Order) int { return a.DateMade.Compare(b.DateMade) }, nil
	case "dateDelivered":
		return func(a, b models.Order) int { return compareTime(a.DateDelivered, b.DateDelivered) }, nil
	default:
		return nil, validationError("cannot sort by %q", key)
	}
}

func byText(field func(models.Order) string) func(a, b models.Order) int {
	return func(a, b models.Order) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// missing values sort before present ones
func compareNullDecimal(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return a.Decimal.Cmp(b.Decimal)
	}
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Scope restricts which orders a caller may see
type Scope struct {
	SalesmanID *uint
	DriverID   *uint
	None       bool
}

// ScopeFor derives the order scope of an actor
func ScopeFor(actor Actor) Scope {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSecretary:
		return Scope{}
	case models.RoleSalesman:
		id := actor.ID
		return Scope{SalesmanID: &id}
	case models.RoleDriver:
		id := actor.ID
		return Scope{DriverID: &id}
	default:
		return Scope{None: true}
	}
}

// Apply adds the scope restriction to a query
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.None {
		return db.Where("1 = 0")
	}
	if s.SalesmanID != nil {
		db = db.Where("salesman_id = ?", *s.SalesmanID)
	}
	if s.DriverID != nil {
		db = db.Where("driver_assigned_id = ?", *s.DriverID)
	}
	return db
}

// Allows reports whether a loaded order falls inside the scope
func (s Scope) Allows(o models.Order) bool {
	if s.None {
		return false
	}
	if s.SalesmanID != nil && o.SalesmanID != *s.SalesmanID {
		return false
	}
	if s.DriverID != nil && (o.DriverAssignedID == nil || *o.DriverAssignedID != *s.DriverID) {
		return false
	}
	return true
}
