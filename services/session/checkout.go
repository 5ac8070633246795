package session

import (
	"context"
	"errors"
	"fmt"

	"jepet/models"
	"jepet/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkout pays for the cart and places the order. The order shows up in
// the list and the checked-out lines leave the cart as soon as the local
// effect commits; the remote write finishes in the background.
func (s *Store) Checkout(ctx context.Context, req models.PaymentRequest) (*models.Order, *Task, error) {
	s.mu.Lock()
	if s.user == nil || s.state.Session == nil {
		s.mu.Unlock()
		return nil, nil, ErrAuthRequired
	}
	if len(s.state.Cart) == 0 {
		s.mu.Unlock()
		return nil, nil, ErrEmptyCart
	}
	uid := s.user.UID
	lines := append([]models.CartItem{}, s.state.Cart...)
	s.mu.Unlock()

	if err := payment.Validate(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}

	total := cartTotal(lines)
	receipt, err := s.deps.Payments.Process(ctx, req, total)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidRequest) {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
		}
		return nil, nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("Checkout: failed to generate order id: %w", err)
	}
	order := models.Order{
		ID:            id.String(),
		UserID:        uid,
		Items:         orderItems(lines),
		Total:         total,
		Date:          s.now().UTC(),
		Status:        payment.OrderStatus(req.Method),
		PaymentMethod: req.Method,
	}

	task, err := s.submit("order.create", order.ID,
		func() error {
			if s.user == nil || s.user.UID != uid {
				return ErrAuthRequired
			}
			s.state.Orders = append([]models.Order{order}, s.state.Orders...)
			sortOrders(s.state.Orders)
			s.pendingOrders[order.ID] = struct{}{}
			s.state.Cart = withoutLines(s.state.Cart, lines)
			return nil
		},
		func(ctx context.Context) error {
			err := s.deps.Orders.Put(ctx, &order)
			if err != nil {
				s.forgetPendingOrder(order.ID)
			}
			return err
		})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("session.Checkout: order placed",
		zap.String("order_id", order.ID),
		zap.String("payment_id", receipt.PaymentID),
		zap.Float64("total", order.Total))
	return &order, task, nil
}

func orderItems(lines []models.CartItem) []models.OrderItem {
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.OrderItem{
			ID:          l.ID,
			Name:        l.Name,
			Price:       l.Price,
			ImageURL:    l.ImageURL,
			AssignedPet: l.AssignedPet,
		}
	}
	return items
}

// withoutLines drops the checked-out lines; anything added to the cart
// while payment was running stays.
func withoutLines(cart, paid []models.CartItem) []models.CartItem {
	gone := make(map[string]struct{}, len(paid))
	for _, l := range paid {
		gone[l.LineID] = struct{}{}
	}
	kept := make([]models.CartItem, 0, len(cart))
	for _, l := range cart {
		if _, ok := gone[l.LineID]; !ok {
			kept = append(kept, l)
		}
	}
	return kept
}

func (s *Store) forgetPendingOrder(id string) {
	s.mu.Lock()
	delete(s.pendingOrders, id)
	s.mu.Unlock()
}
