package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lprior-repo/orderflow/internal/engine"
	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/notification"
	"github.com/lprior-repo/orderflow/internal/payment"
	"github.com/lprior-repo/orderflow/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedChecker struct {
	result inventory.Result
}

func (f fixedChecker) Check(context.Context, inventory.Request) (inventory.Result, error) {
	return f.result, nil
}

type fixedProcessor struct {
	result payment.Result
}

func (f fixedProcessor) Authorize(context.Context, payment.Request) (payment.Result, error) {
	return f.result, nil
}

type fixedNotifier struct{}

func (fixedNotifier) Send(_ context.Context, req notification.Request) (notification.Result, error) {
	return notification.Result{
		Status:         notification.StatusSent,
		Type:           req.Type,
		NotificationID: "ntf_fixed",
		Message:        notification.MessageFor(req.Type, req.OrderID),
	}, nil
}

func fastPolicy() engine.Policy {
	return engine.Policy{
		MaxAttempts: 2,
		Delay:       time.Millisecond,
		Backoff:     engine.BackoffExponential,
		Timeout:     time.Second,
	}
}

func newTestRouter(t *testing.T, inv inventory.Result, pay payment.Result, authToken string) (*gin.Engine, *store.MemoryExecutionStore) {
	t.Helper()

	execStore := store.NewMemoryExecutionStore()
	eng := engine.New(
		fixedChecker{result: inv},
		fixedProcessor{result: pay},
		fixedNotifier{},
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithStore(execStore),
		engine.WithPolicies(fastPolicy(), fastPolicy(), fastPolicy(), fastPolicy()),
	)

	g := gin.New()
	NewHandler(eng, execStore, store.NewMemoryProductStore(), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(g, authToken)
	return g, execStore
}

func okBranches() (inventory.Result, payment.Result) {
	return inventory.Result{Status: inventory.StatusAvailable, ReservationID: "rsv_1"},
		payment.Result{Status: payment.StatusApproved, TransactionID: "txn_1"}
}

const validOrderBody = `{
	"orderId": "ord-1",
	"customerId": "cust-1",
	"items": [{"productId": "p1", "quantity": 1, "price": 10}],
	"totalAmount": 10,
	"paymentMethod": "CREDIT_CARD"
}`

func doJSON(g *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestStartOrder_Success(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPost, "/orders", validOrderBody, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExecutionID string `json:"executionId"`
		Result      struct {
			OrderID     string `json:"orderId"`
			FinalStatus string `json:"finalStatus"`
			Payment     *struct {
				TransactionID string `json:"transactionId"`
			} `json:"payment"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ExecutionID)
	assert.Equal(t, "ord-1", resp.Result.OrderID)
	assert.Equal(t, "SUCCESS", resp.Result.FinalStatus)
	require.NotNil(t, resp.Result.Payment)
	assert.Equal(t, "txn_1", resp.Result.Payment.TransactionID)
}

func TestStartOrder_NegativeOutcomeIsStill200(t *testing.T) {
	inv := inventory.Result{Status: inventory.StatusOutOfStock, Reason: "gone"}
	_, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPost, "/orders", validOrderBody, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"finalStatus":"INVENTORY_UNAVAILABLE"`)
}

func TestStartOrder_MalformedBody(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPost, "/orders", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(g, http.MethodPost, "/orders", `{"orderId": "o1", "items": "nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExecution(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPost, "/orders", validOrderBody, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExecutionID string `json:"executionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(g, http.MethodGet, "/orders/"+resp.ExecutionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"SUCCESS"`)

	w = doJSON(g, http.MethodGet, "/orders/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedrive_NotFoundAndNotCandidate(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPost, "/orders/nope/redrive", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(g, http.MethodPost, "/orders", validOrderBody, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ExecutionID string `json:"executionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// A successfully completed execution cannot be redriven.
	w = doJSON(g, http.MethodPost, "/orders/"+resp.ExecutionID+"/redrive", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBearerAuth(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "sekrit")

	w := doJSON(g, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(g, http.MethodGet, "/products", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(g, http.MethodGet, "/products", "", map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductCRUD(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	w := doJSON(g, http.MethodPut, "/products/p1", `{"name": "widget", "price": 9.99}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(g, http.MethodGet, "/products/p1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"widget"`)

	w = doJSON(g, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doJSON(g, http.MethodDelete, "/products/p1", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(g, http.MethodGet, "/products/p1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutProduct_RejectsBadBody(t *testing.T) {
	inv, pay := okBranches()
	g, _ := newTestRouter(t, inv, pay, "")

	// Missing required name.
	w := doJSON(g, http.MethodPut, "/products/p1", `{"price": 1}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(g, http.MethodPut, "/products/p1", `{"name": "x", "price": -1}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
