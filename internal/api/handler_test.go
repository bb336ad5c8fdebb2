package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"storefront-service/config"
	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

type providerStub struct {
	calls int

	catalog   *square.ListCatalogResponse
	order     *square.CreateOrderResponse
	orderErr  error
	link      *square.CreatePaymentLinkResponse
	payment   *square.CreatePaymentResponse
	orderReqs []*square.CreateOrderRequest
	linkReqs  []*square.CreatePaymentLinkRequest
}

func (p *providerStub) ListCatalog(context.Context, string, []string) (*square.ListCatalogResponse, error) {
	p.calls++
	if p.catalog == nil {
		return &square.ListCatalogResponse{}, nil
	}
	return p.catalog, nil
}

func (p *providerStub) CreateOrder(_ context.Context, req *square.CreateOrderRequest) (*square.CreateOrderResponse, error) {
	p.calls++
	p.orderReqs = append(p.orderReqs, req)
	if p.orderErr != nil {
		return nil, p.orderErr
	}
	return p.order, nil
}

func (p *providerStub) CreatePaymentLink(_ context.Context, req *square.CreatePaymentLinkRequest) (*square.CreatePaymentLinkResponse, error) {
	p.calls++
	p.linkReqs = append(p.linkReqs, req)
	return p.link, nil
}

func (p *providerStub) CreatePayment(context.Context, *square.CreatePaymentRequest) (*square.CreatePaymentResponse, error) {
	p.calls++
	return p.payment, nil
}

func newStub() *providerStub {
	available := true
	return &providerStub{
		catalog: &square.ListCatalogResponse{Objects: []square.CatalogObject{
			{Type: square.ObjectTypeCategory, ID: "C1", CategoryData: &square.CategoryData{Name: "Gift Cards"}},
			{Type: square.ObjectTypeItem, ID: "I1", ItemData: &square.ItemData{
				Name: "Gift Card", CategoryID: "C1", AvailableOnline: &available,
				Variations: []square.CatalogObject{{Type: square.ObjectTypeItemVariation, ID: "V1",
					ItemVariationData: &square.ItemVariationData{PriceMoney: &square.Money{Amount: 5000, Currency: "USD"}}}},
			}},
			{Type: square.ObjectTypeItem, ID: "I2", IsDeleted: true, ItemData: &square.ItemData{Name: "Retired"}},
		}},
		order: &square.CreateOrderResponse{Order: &square.Order{
			ID: "O1", TotalMoney: &square.Money{Amount: 1000, Currency: "USD"},
		}},
		link: &square.CreatePaymentLinkResponse{PaymentLink: &square.PaymentLink{
			ID: "PL1", OrderID: "O1", URL: "https://square.link/u/abc",
		}},
		payment: &square.CreatePaymentResponse{Payment: &square.Payment{
			ID: "P1", Status: "COMPLETED", AmountMoney: &square.Money{Amount: 2500, Currency: "USD"},
			ReceiptURL: "https://squareup.com/receipt/preview/P1",
		}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		Square: config.SquareConfig{
			AccessToken: "tok",
			LocationID:  "L1",
			Environment: config.EnvironmentSandbox,
			Currency:    "USD",
			Timeout:     5 * time.Second,
		},
		Checkout: config.CheckoutConfig{
			StoreName:       "A Slice of G",
			RedirectBaseURL: "https://shop.example.com",
			AllowedOrigins:  []string{"https://asliceofg.com"},
		},
	}
}

func newTestRouter(provider service.Provider, cfg *config.Config) *gin.Engine {
	pub := broker.NopPublisher{}
	h := NewHandler(
		service.NewCatalogService(provider, nil, cfg),
		service.NewCheckoutService(provider, pub, cfg),
		service.NewPaymentService(provider, pub, cfg),
		cfg,
	)
	router := gin.New()
	h.SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetCatalog(t *testing.T) {
	router := newTestRouter(newStub(), testConfig())

	w := doRequest(router, http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var resp catalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalItems)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, models.CategoryAccessories, resp.Products[0].Category)
	assert.Equal(t, int64(5000), resp.Products[0].Price)
	assert.Nil(t, resp.Debug)
}

func TestGetCatalogDebug(t *testing.T) {
	router := newTestRouter(newStub(), testConfig())

	w := doRequest(router, http.MethodGet, "/api/square-catalog?debug=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp catalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Debug)
	assert.Equal(t, "sandbox", resp.Debug.Environment)
	assert.False(t, resp.Debug.IsProduction)
	assert.Equal(t, 3, resp.Debug.TotalObjects)
	assert.Equal(t, 2, resp.Debug.RawItemsCount)
	require.Len(t, resp.Debug.FilteredOut, 1)
	assert.Equal(t, "Retired", resp.Debug.FilteredOut[0].Name)
}

type memCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.entries, key)
	return nil
}

func TestGetCatalogRefresh(t *testing.T) {
	stub := newStub()
	cfg := testConfig()
	cache := &memCache{entries: make(map[string][]byte)}
	pub := broker.NopPublisher{}
	h := NewHandler(
		service.NewCatalogService(stub, cache, cfg),
		service.NewCheckoutService(stub, pub, cfg),
		service.NewPaymentService(stub, pub, cfg),
		cfg,
	)
	router := gin.New()
	h.SetupRoutes(router)

	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/catalog", nil, nil).Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/catalog", nil, nil).Code)
	assert.Equal(t, 1, stub.calls)

	w := doRequest(router, http.MethodGet, "/api/catalog?refresh=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, stub.calls)
	assert.Len(t, cache.deleted, 1)
}

func TestCreateCheckout(t *testing.T) {
	stub := newStub()
	router := newTestRouter(stub, testConfig())

	body := map[string]interface{}{
		"items":           []map[string]interface{}{{"id": "V1", "quantity": 2, "price": 500, "name": "Rum Cake"}},
		"fulfillmentType": "PICKUP",
	}
	w := doRequest(router, http.MethodPost, "/api/checkout", body, map[string]string{"Origin": "https://asliceofg.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "https://square.link/u/abc", resp["checkoutUrl"])
	assert.Equal(t, "O1", resp["orderId"])
	total := resp["total"].(map[string]interface{})
	assert.Equal(t, float64(1000), total["amount"])
	assert.Equal(t, "USD", total["currency"])

	require.Len(t, stub.orderReqs, 1)
	line := stub.orderReqs[0].Order.LineItems[0]
	assert.Equal(t, "2", line.Quantity)
	assert.Equal(t, "V1", line.CatalogObjectID)
	ful := stub.orderReqs[0].Order.Fulfillments[0]
	assert.Equal(t, "PROPOSED", ful.State)
	assert.Equal(t, "ASAP", ful.PickupDetails.ScheduleType)

	require.Len(t, stub.linkReqs, 1)
	require.NotNil(t, stub.linkReqs[0].Order)
	assert.Equal(t, "O1", stub.linkReqs[0].Order.ReferenceID)
	assert.Nil(t, stub.linkReqs[0].QuickPay)
	assert.Equal(t, "https://asliceofg.com/order-complete", stub.linkReqs[0].CheckoutOptions.RedirectURL)
	assert.NotEqual(t, stub.orderReqs[0].IdempotencyKey, stub.linkReqs[0].IdempotencyKey)
}

func TestCreateCheckoutRejectsEmptyCart(t *testing.T) {
	bodies := []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"items": []interface{}{}},
		map[string]interface{}{"items": "not-a-list"},
		"",
	}

	for _, body := range bodies {
		stub := newStub()
		router := newTestRouter(stub, testConfig())

		w := doRequest(router, http.MethodPost, "/api/create-checkout", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
		assert.Equal(t, false, decode(t, w)["success"])
		assert.Equal(t, 0, stub.calls)
	}
}

func TestCreateCheckoutProviderError(t *testing.T) {
	stub := newStub()
	stub.orderErr = &square.APIError{StatusCode: 400, Operation: "create_order",
		Errors: []square.Error{{Category: "INVALID_REQUEST_ERROR", Code: "NOT_FOUND", Detail: "INVALID_CATALOG_OBJECT"}}}
	router := newTestRouter(stub, testConfig())

	body := map[string]interface{}{"items": []map[string]interface{}{{"id": "V1", "quantity": 1}}}
	w := doRequest(router, http.MethodPost, "/api/checkout", body, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "INVALID_CATALOG_OBJECT", resp["error"])
	assert.Equal(t, "NOT_FOUND", resp["code"])
	details := resp["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "INVALID_REQUEST_ERROR", details[0].(map[string]interface{})["category"])
}

func TestCreateCheckoutTimeoutIsRetryable(t *testing.T) {
	stub := newStub()
	stub.orderErr = context.DeadlineExceeded
	router := newTestRouter(stub, testConfig())

	body := map[string]interface{}{"items": []map[string]interface{}{{"id": "V1", "quantity": 1}}}
	w := doRequest(router, http.MethodPost, "/api/checkout", body, nil)
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, true, decode(t, w)["retryable"])
}

func TestMissingConfigurationFailsFast(t *testing.T) {
	cfg := testConfig()
	cfg.Square.AccessToken = ""

	requests := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/api/catalog", nil},
		{http.MethodPost, "/api/checkout", map[string]interface{}{
			"items": []map[string]interface{}{{"id": "V1", "quantity": 1}}}},
		{http.MethodPost, "/api/payments", map[string]interface{}{
			"sourceId": "tok", "amount": 100, "itemName": "Rum Cake"}},
	}

	for _, r := range requests {
		stub := newStub()
		router := newTestRouter(stub, cfg)

		w := doRequest(router, r.method, r.path, r.body, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, r.path)
		assert.Contains(t, decode(t, w)["error"], "not configured", r.path)
		assert.Equal(t, 0, stub.calls, r.path)
	}
}

func TestProcessPayment(t *testing.T) {
	router := newTestRouter(newStub(), testConfig())

	body := map[string]interface{}{"sourceId": "cnon:ok", "amount": "2500", "itemName": "Rum Cake"}
	w := doRequest(router, http.MethodPost, "/api/process-payment", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, paymentPayload{
		ID:         "P1",
		Status:     "COMPLETED",
		Amount:     2500,
		Currency:   "USD",
		ReceiptURL: "https://squareup.com/receipt/preview/P1",
	}, resp.Payment)
}

func TestProcessPaymentMissingFields(t *testing.T) {
	stub := newStub()
	router := newTestRouter(stub, testConfig())

	w := doRequest(router, http.MethodPost, "/api/payments", map[string]interface{}{"sourceId": "tok"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required payment information", decode(t, w)["error"])
	assert.Equal(t, 0, stub.calls)
}

func TestPreflightAndMethodNotAllowed(t *testing.T) {
	router := newTestRouter(newStub(), testConfig())

	for _, path := range []string{"/api/catalog", "/api/checkout", "/api/payments"} {
		w := doRequest(router, http.MethodOptions, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Body.String(), path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"), path)
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"), path)
	}

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/catalog"},
		{http.MethodGet, "/api/checkout"},
		{http.MethodDelete, "/api/payments"},
	} {
		w := doRequest(router, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, tc.path)
		assert.Equal(t, "Method not allowed", decode(t, w)["error"])
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestReadiness(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(newStub(), cfg)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/ready", nil, nil).Code)

	cfg.Square.LocationID = ""
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(router, http.MethodGet, "/ready", nil, nil).Code)
}

func TestMinorAmountUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`2500`, 2500, false},
		{`"2500"`, 2500, false},
		{`" 42 "`, 42, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`12.5`, 0, true},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		var a minorAmount
		err := json.Unmarshal([]byte(tt.in), &a)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, int64(a), tt.in)
	}
}
