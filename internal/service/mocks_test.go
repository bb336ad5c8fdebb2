package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Square: config.SquareConfig{
			AccessToken: "tok",
			LocationID:  "L1",
			Environment: config.EnvironmentSandbox,
			Currency:    "USD",
			Timeout:     5 * time.Second,
		},
		Checkout: config.CheckoutConfig{
			StoreName:       "A Slice of G",
			SupportEmail:    "support@example.com",
			RedirectBaseURL: "https://shop.example.com",
			AllowedOrigins:  []string{"https://preview.example.com"},
			AllowTipping:    true,
		},
		Redis: config.RedisConfig{CacheTTL: time.Minute},
	}
}

// fakeProvider records every call and replays canned responses.
type fakeProvider struct {
	mu sync.Mutex

	catalogPages []*square.ListCatalogResponse
	catalogErr   error
	orderResp    *square.CreateOrderResponse
	orderErr     error
	linkResp     *square.CreatePaymentLinkResponse
	linkErr      error
	paymentResp  *square.CreatePaymentResponse
	paymentErr   error

	catalogCalls []string
	orderReqs    []*square.CreateOrderRequest
	linkReqs     []*square.CreatePaymentLinkRequest
	paymentReqs  []*square.CreatePaymentRequest
	typesSeen    [][]string
}

func (f *fakeProvider) ListCatalog(_ context.Context, cursor string, types []string) (*square.ListCatalogResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogCalls = append(f.catalogCalls, cursor)
	f.typesSeen = append(f.typesSeen, types)
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	idx := len(f.catalogCalls) - 1
	if idx >= len(f.catalogPages) {
		return &square.ListCatalogResponse{}, nil
	}
	return f.catalogPages[idx], nil
}

func (f *fakeProvider) CreateOrder(_ context.Context, req *square.CreateOrderRequest) (*square.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderReqs = append(f.orderReqs, req)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.orderResp, nil
}

func (f *fakeProvider) CreatePaymentLink(_ context.Context, req *square.CreatePaymentLinkRequest) (*square.CreatePaymentLinkResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkReqs = append(f.linkReqs, req)
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return f.linkResp, nil
}

func (f *fakeProvider) CreatePayment(_ context.Context, req *square.CreatePaymentRequest) (*square.CreatePaymentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paymentReqs = append(f.paymentReqs, req)
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.paymentResp, nil
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.catalogCalls) + len(f.orderReqs) + len(f.linkReqs) + len(f.paymentReqs)
}

type fakePublisher struct {
	checkouts []*models.CheckoutCreatedEvent
	payments  []*models.PaymentCompletedEvent
	err       error
}

func (p *fakePublisher) PublishCheckoutCreated(_ context.Context, e *models.CheckoutCreatedEvent) error {
	p.checkouts = append(p.checkouts, e)
	return p.err
}

func (p *fakePublisher) PublishPaymentCompleted(_ context.Context, e *models.PaymentCompletedEvent) error {
	p.payments = append(p.payments, e)
	return p.err
}

type fakeCache struct {
	entries map[string]interface{}
	getErr  error
	sets    int
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]interface{})}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*CatalogResult)) = *(v.(*CatalogResult))
	return true, nil
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	delete(c.entries, key)
	return nil
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
