package session

import (
	"context"
	"testing"
	"time"

	"jepet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pix = models.PaymentRequest{Method: models.PaymentPix, TaxID: "123.456.789-00"}

func TestCheckoutRequiresSignIn(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "anon")
	st.AddToCart(models.Product{ID: "p1", Price: 10}, "")

	_, _, err := st.Checkout(context.Background(), pix)
	assert.ErrorIs(t, err, ErrAuthRequired)

	items, _ := st.Cart()
	assert.Len(t, items, 1, "cart is kept for after sign-in")
	assert.Zero(t, h.orders.writes())
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "empty")
	signUp(t, st, "empty@example.com")

	_, _, err := st.Checkout(context.Background(), pix)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, h.orders.writes())
}

func TestCheckoutRejectsIncompletePayment(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "badpay")
	signUp(t, st, "badpay@example.com")
	st.AddToCart(models.Product{ID: "p1", Price: 10}, "")

	_, _, err := st.Checkout(context.Background(), models.PaymentRequest{Method: models.PaymentCard, CardNumber: "4111"})
	assert.ErrorIs(t, err, ErrInvalidPayment)

	items, _ := st.Cart()
	assert.Len(t, items, 1)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "buyer")
	u := signUp(t, st, "buyer@example.com")

	st.AddToCart(models.Product{ID: "p1", Name: "Ração", Price: 89.9}, "Rex")
	st.AddToCart(models.Product{ID: "p3", Name: "Mordedor", Price: 35}, "")

	order, task, err := st.Checkout(context.Background(), pix)
	require.NoError(t, err)

	snap := st.Snapshot()
	assert.Empty(t, snap.Cart, "cart clears as soon as the order is placed locally")
	require.NotEmpty(t, snap.Orders)
	assert.Equal(t, order.ID, snap.Orders[0].ID)
	assert.Equal(t, models.OrderProcessing, order.Status)
	assert.Equal(t, 124.9, order.Total)
	assert.Equal(t, u.UID, order.UserID)
	assert.Equal(t, "Rex", order.Items[0].AssignedPet)

	require.NoError(t, task.Wait(context.Background()))
	assert.Equal(t, TaskSucceeded, task.Info().Status)
	assert.Equal(t, 1, h.orders.writes())

	eventually(t, func(s State) bool {
		return len(s.Orders) == 1 && s.Orders[0].ID == order.ID
	}, st)
}

func TestBoletoOrderStartsPending(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "boleto")
	signUp(t, st, "boleto@example.com")
	st.AddToCart(models.Product{ID: "p4", Price: 29.9}, "")

	order, task, err := st.Checkout(context.Background(), models.PaymentRequest{Method: models.PaymentBoleto, TaxID: "1"})
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))
	assert.Equal(t, models.OrderPending, order.Status)
}

func TestCheckoutRemoteFailureKeepsLocalOrder(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "offline")
	signUp(t, st, "offline@example.com")

	events, unsubscribe := st.Subscribe(32)
	defer unsubscribe()

	h.orders.fail = true
	st.AddToCart(models.Product{ID: "p1", Price: 10}, "")
	order, task, err := st.Checkout(context.Background(), pix)
	require.NoError(t, err, "the caller never sees the remote outcome")

	assert.ErrorIs(t, task.Wait(context.Background()), errRemoteDown)
	assert.Equal(t, TaskFailed, task.Info().Status)

	snap := st.Snapshot()
	assert.Empty(t, snap.Cart)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, order.ID, snap.Orders[0].ID, "no rollback on failure")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventTaskFailed {
				assert.Equal(t, task.ID(), ev.Task.ID)
				assert.Equal(t, "order.create", ev.Task.Kind)
				return
			}
		case <-deadline:
			t.Fatal("no task.failed event")
		}
	}
}
