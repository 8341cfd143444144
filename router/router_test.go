package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservation/database"
	"github.com/yeremiapane/restaurant-reservation/hub"
	"github.com/yeremiapane/restaurant-reservation/router"
	"github.com/yeremiapane/restaurant-reservation/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAPIKey = "test-secret"

// setupTestRouter -> SQLite in-memory + the full middleware chain
func setupTestRouter(t *testing.T) (*gin.Engine, *hub.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	h := hub.NewHub()
	customers := services.NewCustomerService(db)
	r := router.SetupRouter(router.Dependencies{
		APIKey:       testAPIKey,
		Reservations: services.NewReservationService(db, customers, h),
		Hub:          h,
		AllowOrigins: []string{"*"},
	})
	return r, h
}

func request(t *testing.T, r http.Handler, method, path, apiKey string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestPingIsPublic(t *testing.T) {
	r, _ := setupTestRouter(t)

	code, resp := request(t, r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", resp["message"])
}

func TestReservationRoutesRequireAPIKey(t *testing.T) {
	r, _ := setupTestRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/reservation"},
		{http.MethodGet, "/reservation/ByPhone?phone=%2B15551234567&workflow=wf"},
		{http.MethodPatch, "/reservation"},
		{http.MethodPost, "/reservation/confirm"},
		{http.MethodPost, "/reservation/cancel"},
	}
	for _, rt := range routes {
		code, resp := request(t, r, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, rt.path)
		assert.Equal(t, "UNAUTHENTICATED", resp["code"], rt.path)
		assert.Equal(t, "Missing required x-api-key header", resp["message"], rt.path)

		code, resp = request(t, r, rt.method, rt.path, "wrong", nil)
		assert.Equal(t, http.StatusUnauthorized, code, rt.path)
		assert.Equal(t, "INVALID_API_KEY", resp["code"], rt.path)
		assert.Equal(t, "Invalid API key provided", resp["message"], rt.path)
	}
}

// TestReservationLifecycle follows the main flow:
// 1. Create (PENDING)
// 2. Find by phone and workflow
// 3. Cancel with a reason
// 4. Confirm again, the reason is cleared
func TestReservationLifecycle(t *testing.T) {
	r, _ := setupTestRouter(t)

	code, resp := request(t, r, http.MethodPost, "/reservation", testAPIKey, map[string]interface{}{
		"name":      "Alice",
		"phone":     "+15551234567",
		"date":      "2025-06-01",
		"time":      "19:30",
		"seatCount": 2,
		"workflow":  "wf-1",
	})
	require.Equal(t, http.StatusCreated, code, resp)
	data := resp["data"].(map[string]interface{})
	id := data["id"].(float64)
	assert.Equal(t, "PENDING", data["status"])

	code, resp = request(t, r, http.MethodGet, "/reservation/ByPhone?phone=%2B15551234567&workflow=wf-1", testAPIKey, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["data"], 1)

	code, resp = request(t, r, http.MethodPost, "/reservation/cancel", testAPIKey, map[string]interface{}{
		"id": id, "phone": "+15551234567", "workflow": "wf-1", "cancellationReason": "sick",
	})
	require.Equal(t, http.StatusOK, code, resp)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", data["status"])
	assert.Equal(t, "sick", data["cancellationReason"])

	code, resp = request(t, r, http.MethodPost, "/reservation/confirm", testAPIKey, map[string]interface{}{
		"id": id, "phone": "+15551234567", "workflow": "wf-1",
	})
	require.Equal(t, http.StatusOK, code, resp)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, "CONFIRMED", data["status"])
	assert.Nil(t, data["cancellationReason"])
}

func TestEventFeedRequiresAPIKey(t *testing.T) {
	r, _ := setupTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/reservations"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestEventFeedStreamsLifecycleEvents(t *testing.T) {
	r, h := setupTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/reservations?api_key=" + testAPIKey
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	code, _ := request(t, r, http.MethodPost, "/reservation", testAPIKey, map[string]interface{}{
		"name":      "Bob",
		"phone":     "+15557654321",
		"date":      "2025-06-02",
		"time":      "12:00",
		"seatCount": 4,
		"workflow":  "wf-9",
	})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg hub.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.EventReservationCreated, msg.Event)
	assert.Equal(t, "Bob", msg.Data.(map[string]interface{})["name"])
}
