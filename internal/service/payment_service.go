package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService charges a tokenized payment source directly.
type PaymentService struct {
	provider  Provider
	publisher EventPublisher
	cfg       *config.Config
	newKey    func() string
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(provider Provider, publisher EventPublisher, cfg *config.Config) *PaymentService {
	return &PaymentService{
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		newKey:    uuid.NewString,
		logger:    util.GetLogger(),
	}
}

type PaymentRequest struct {
	SourceID string
	Amount   int64
	ItemName string
	Currency string
}

type PaymentResult struct {
	ID         string
	Status     string
	Amount     int64
	Currency   string
	ReceiptURL string
}

// ProcessPayment creates an autocompleted payment; there is no separate
// capture step.
func (ps *PaymentService) ProcessPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	if req == nil || req.SourceID == "" || req.Amount <= 0 || strings.TrimSpace(req.ItemName) == "" {
		util.PaymentsTotal.WithLabelValues("invalid_input").Inc()
		return nil, invalidInput("Missing required payment information")
	}

	if err := ps.cfg.Square.Validate(); err != nil {
		util.PaymentsTotal.WithLabelValues("not_configured").Inc()
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = ps.cfg.Square.Currency
	}

	ctx, cancel := context.WithTimeout(ctx, ps.cfg.Square.Timeout)
	defer cancel()

	ps.logger.Info("Processing payment",
		zap.Int64("amount", req.Amount),
		zap.String("currency", currency),
		zap.String("item", req.ItemName))

	resp, err := ps.provider.CreatePayment(ctx, &square.CreatePaymentRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: ps.newKey(),
		AmountMoney:    square.Money{Amount: req.Amount, Currency: currency},
		LocationID:     ps.cfg.Square.LocationID,
		Note:           fmt.Sprintf("%s - %s", ps.cfg.Checkout.StoreName, req.ItemName),
		Autocomplete:   true,
	})
	if err != nil {
		util.PaymentsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("create payment: %w", err)
	}

	p := resp.Payment
	result := &PaymentResult{
		ID:         p.ID,
		Status:     p.Status,
		Amount:     req.Amount,
		Currency:   currency,
		ReceiptURL: p.ReceiptURL,
	}
	if p.AmountMoney != nil {
		result.Amount = p.AmountMoney.Amount
		result.Currency = p.AmountMoney.Currency
	}

	util.PaymentsTotal.WithLabelValues("success").Inc()
	ps.logger.Info("Payment succeeded",
		zap.String("payment_id", result.ID),
		zap.String("status", result.Status))

	event := &models.PaymentCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypePaymentCompleted,
			Timestamp: time.Now(),
		},
		PaymentID: result.ID,
		Status:    result.Status,
		Amount:    result.Amount,
		Currency:  result.Currency,
	}
	if err := ps.publisher.PublishPaymentCompleted(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentCompleted event", zap.Error(err))
	}

	return result, nil
}
