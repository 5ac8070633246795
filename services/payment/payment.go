package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jepet/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every validation failure of a payment form.
var ErrInvalidRequest = errors.New("invalid payment request")

// Processor settles a checkout payment.
type Processor interface {
	Process(ctx context.Context, req models.PaymentRequest, amount float64) (*models.Receipt, error)
}

// Simulator is the storefront's stand-in for a payment gateway: it checks
// that the form is filled in, waits a fixed delay and approves.
type Simulator struct {
	logger *zap.Logger
	delay  time.Duration
}

func NewSimulator(logger *zap.Logger, delay time.Duration) *Simulator {
	return &Simulator{logger: logger, delay: delay}
}

func (s *Simulator) Process(ctx context.Context, req models.PaymentRequest, amount float64) (*models.Receipt, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	receipt := &models.Receipt{
		Method:    req.Method,
		Amount:    amount,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	switch req.Method {
	case models.PaymentCard:
		receipt.PaymentID = "card_" + uuid.NewString()
		receipt.Status = "paid"
	case models.PaymentPix:
		receipt.PaymentID = "pix_" + uuid.NewString()
		receipt.Status = "paid"
	case models.PaymentBoleto:
		// Boleto settles days later; the order waits for it.
		receipt.PaymentID = "boleto_" + uuid.NewString()
	}

	s.logger.Info("Payment simulated",
		zap.String("method", req.Method),
		zap.String("payment_id", receipt.PaymentID),
		zap.Float64("amount", amount))
	return receipt, nil
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Validate checks that the fields required by the chosen method are present.
func Validate(req models.PaymentRequest) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required for %s", ErrInvalidRequest, field, req.Method)
	}
	switch req.Method {
	case models.PaymentCard:
		switch {
		case blank(req.CardNumber):
			return missing("cardNumber")
		case blank(req.CardHolder):
			return missing("cardHolder")
		case blank(req.CardExpiry):
			return missing("cardExpiry")
		case blank(req.CardCVV):
			return missing("cardCvv")
		}
	case models.PaymentPix, models.PaymentBoleto:
		if blank(req.TaxID) {
			return missing("taxId")
		}
	default:
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidRequest, req.Method)
	}
	return nil
}

// OrderStatus is the status a new order starts in for the given method.
func OrderStatus(method string) string {
	if method == models.PaymentBoleto {
		return models.OrderPending
	}
	return models.OrderProcessing
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
