package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/middleware"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// every pooled connection to :memory: would otherwise be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:           "test",
		SessionSecret:   "controller-test-secret",
		SessionIssuer:   "delivery-tracker",
		SessionAudience: "delivery-tracker-api",
		SessionTTL:      time.Hour,
	})
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockSessionMiddleware attaches a session the way RequireSession does after
// validating a token
func mockSessionMiddleware(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetSession(c, middleware.Session{
			UserID: user.ID,
			Role:   user.Role,
			Name:   user.FullName(),
		})
		c.Next()
	}
}

func createUser(t *testing.T, db *gorm.DB, phone, first, last string, role models.Role) models.User {
	t.Helper()
	user := models.User{
		Phone:      phone,
		FirstName:  first,
		LastName:   last,
		Role:       role,
		Status:     models.UserActive,
		IsVerified: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// createOrder stores an order through the service so numbering and defaults apply
func createOrder(t *testing.T, db *gorm.DB, salesman models.User, customer string, amount int64) *models.Order {
	t.Helper()
	order, err := services.NewOrderService(db).CreateOrder(t.Context(), services.CreateOrderInput{
		SalesmanID:    salesman.ID,
		CustomerName:  customer,
		ContactNumber: "555-0100",
		PaymentAmt:    decimal.NewFromInt(amount),
		PaymentMethod: "Cash",
	}, services.Actor{ID: salesman.ID, Name: salesman.FullName(), Role: salesman.Role})
	require.NoError(t, err)
	return order
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	errBody, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	return errBody["code"].(string)
}
