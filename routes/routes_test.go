package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jepet/handlers"
	"jepet/middleware"
	"jepet/models"
	"jepet/services/session"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	goleak.VerifyTestMain(m)
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newClient(t *testing.T) *client {
	t.Helper()
	registry := session.NewRegistry(session.MemoryDeps(zap.NewNop(), 0), time.Minute)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, registry.CloseAll(ctx))
	})

	logger := zap.NewNop()
	hb := handlers.NewHandlerBundle(
		middleware.DeviceSessionMiddleware(registry),
		nil,
		handlers.NewSessionHandler(time.Hour, logger),
		handlers.NewAuthHandler(logger),
		handlers.NewStorefrontHandler(logger),
		nil,
	)
	router := gin.New()
	router.Use(utils.ErrorHandler())
	RegisterRoutes(router, hb)

	c := &client{t: t, router: router}
	var created struct {
		Token string `json:"token"`
	}
	c.do(http.MethodPost, "/api/session", nil, http.StatusCreated, &created)
	require.NotEmpty(t, created.Token)
	c.token = created.Token
	return c
}

func (c *client) do(method, path string, body interface{}, wantStatus int, out interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	require.Equal(c.t, wantStatus, w.Code, w.Body.String())
	if out != nil {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func (c *client) state() session.State {
	var st session.State
	c.do(http.MethodGet, "/api/session/state", nil, http.StatusOK, &st)
	return st
}

func (c *client) signUp(email string) {
	c.t.Helper()
	c.do(http.MethodPost, "/api/auth/signup", map[string]string{"name": "Ana", "email": email, "password": "segredo1"}, http.StatusCreated, nil)
	require.Eventually(c.t, func() bool {
		st := c.state()
		return st.Session != nil && !st.OrdersLoading && !st.AppointmentsLoading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHealthAndCatalogArePublic(t *testing.T) {
	c := newClient(t)
	c.token = ""

	c.do(http.MethodGet, "/health", nil, http.StatusOK, nil)

	var products []models.Product
	c.do(http.MethodGet, "/api/catalog/products?category=racao", nil, http.StatusOK, &products)
	for _, p := range products {
		assert.Equal(t, models.CategoryFood, p.Category)
	}
	c.do(http.MethodGet, "/api/catalog/products?category=brinquedos-caros", nil, http.StatusBadRequest, nil)
	c.do(http.MethodGet, "/api/catalog/products/p1", nil, http.StatusOK, nil)
	c.do(http.MethodGet, "/api/catalog/products/nope", nil, http.StatusNotFound, nil)

	var highlights []models.Product
	c.do(http.MethodGet, "/api/catalog/highlights?n=2", nil, http.StatusOK, &highlights)
	assert.Len(t, highlights, 2)

	c.do(http.MethodGet, "/api/cart", nil, http.StatusUnauthorized, nil)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	c := newClient(t)

	c.do(http.MethodPost, "/api/cart", map[string]string{"productId": "p1"}, http.StatusCreated, nil)
	var added struct {
		Line models.CartItem `json:"line"`
	}
	c.do(http.MethodPost, "/api/cart", map[string]string{"productId": "p2", "assignedPet": "Rex"}, http.StatusCreated, &added)
	c.do(http.MethodPost, "/api/cart", map[string]string{"productId": "p404"}, http.StatusNotFound, nil)

	var errBody utils.ErrorResponse
	c.do(http.MethodPost, "/api/checkout", models.PaymentRequest{Method: models.PaymentPix, TaxID: "123"}, http.StatusUnauthorized, &errBody)
	assert.Equal(t, "signin", errBody.Next)

	c.signUp("cart@example.com")
	assert.Len(t, c.state().Cart, 2, "the cart survives signing in")

	var removed struct {
		Removed int `json:"removed"`
	}
	c.do(http.MethodDelete, "/api/cart/"+added.Line.LineID, nil, http.StatusOK, &removed)
	assert.Equal(t, 1, removed.Removed)

	c.do(http.MethodPost, "/api/checkout", models.PaymentRequest{Method: models.PaymentCard}, http.StatusBadRequest, nil)

	var placed struct {
		Order models.Order     `json:"order"`
		Task  session.TaskInfo `json:"task"`
	}
	c.do(http.MethodPost, "/api/checkout", models.PaymentRequest{Method: models.PaymentBoleto, TaxID: "123.456.789-00"}, http.StatusAccepted, &placed)
	assert.Equal(t, models.OrderPending, placed.Order.Status)
	assert.Len(t, placed.Order.Items, 1)
	assert.Empty(t, c.state().Cart)

	require.Eventually(t, func() bool {
		var info session.TaskInfo
		c.do(http.MethodGet, "/api/tasks/"+placed.Task.ID, nil, http.StatusOK, &info)
		return info.Status == session.TaskSucceeded
	}, 2*time.Second, 5*time.Millisecond)

	var orders struct {
		Orders []models.Order `json:"orders"`
	}
	c.do(http.MethodGet, "/api/orders", nil, http.StatusOK, &orders)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, placed.Order.ID, orders.Orders[0].ID)

	c.do(http.MethodPost, "/api/checkout", models.PaymentRequest{Method: models.PaymentPix, TaxID: "1"}, http.StatusBadRequest, nil)
	c.do(http.MethodGet, "/api/tasks/unknown", nil, http.StatusNotFound, nil)
}

func TestAppointmentFlow(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodGet, "/api/appointments", nil, http.StatusUnauthorized, nil)
	c.signUp("appt@example.com")

	book := func(in time.Duration) models.Appointment {
		at := time.Now().Add(in).UTC()
		var resp struct {
			Appointment models.Appointment `json:"appointment"`
		}
		c.do(http.MethodPost, "/api/appointments", session.BookingRequest{
			PetName: "Mia", PetType: "gato", Date: at.Format(models.DateLayout), Time: at.Format(models.TimeLayout), Type: "vacinacao",
		}, http.StatusAccepted, &resp)
		return resp.Appointment
	}

	tomorrow := book(20 * time.Hour)
	assert.Equal(t, models.AppointmentPending, tomorrow.Status)
	c.do(http.MethodPost, "/api/appointments/"+tomorrow.ID+"/cancel", nil, http.StatusConflict, nil)

	later := book(30 * 24 * time.Hour)
	var cancelled struct {
		Appointment models.Appointment `json:"appointment"`
	}
	c.do(http.MethodPost, "/api/appointments/"+later.ID+"/cancel", nil, http.StatusAccepted, &cancelled)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Appointment.Status)

	at := time.Now().Add(40 * 24 * time.Hour).UTC()
	c.do(http.MethodPatch, "/api/appointments/"+later.ID,
		models.AppointmentChange{Date: at.Format(models.DateLayout), Time: at.Format(models.TimeLayout)},
		http.StatusConflict, nil)
	c.do(http.MethodPatch, "/api/appointments/missing",
		models.AppointmentChange{Date: at.Format(models.DateLayout), Time: at.Format(models.TimeLayout)},
		http.StatusNotFound, nil)

	c.do(http.MethodPost, "/api/appointments", session.BookingRequest{PetName: "Mia", Date: "2001-01-01", Time: "10:00", Type: "vacinacao"}, http.StatusBadRequest, nil)

	var list struct {
		Appointments []models.Appointment `json:"appointments"`
	}
	c.do(http.MethodGet, "/api/appointments", nil, http.StatusOK, &list)
	assert.Len(t, list.Appointments, 2, "cancelled appointments stay listed")
}

func TestAuthErrorsAndSignOut(t *testing.T) {
	c := newClient(t)
	c.signUp("auth@example.com")

	c.do(http.MethodPost, "/api/pets", models.Pet{Name: "Rex", Type: "cao"}, http.StatusAccepted, nil)
	c.do(http.MethodPost, "/api/pets", models.Pet{Name: "Rex"}, http.StatusBadRequest, nil)

	c.do(http.MethodPut, "/api/session/view", map[string]string{"view": "store"}, http.StatusOK, nil)
	c.do(http.MethodPut, "/api/session/view", map[string]string{"view": "checkout-secreto"}, http.StatusBadRequest, nil)

	c.do(http.MethodPost, "/api/auth/signout", nil, http.StatusOK, nil)
	st := c.state()
	assert.Nil(t, st.Session)
	assert.Equal(t, models.ViewHome, st.View)

	var errBody utils.ErrorResponse
	c.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "auth@example.com", "password": "errada"}, http.StatusUnauthorized, &errBody)
	assert.NotEmpty(t, errBody.Message)
	c.do(http.MethodPost, "/api/auth/signup", map[string]string{"name": "Ana", "email": "auth@example.com", "password": "segredo1"}, http.StatusConflict, nil)
	c.do(http.MethodPost, "/api/auth/signup", map[string]string{"name": "Bia", "email": "fraca@example.com", "password": "123"}, http.StatusBadRequest, nil)

	c.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "auth@example.com", "password": "segredo1"}, http.StatusOK, nil)
	c.do(http.MethodDelete, "/api/auth/account", nil, http.StatusAccepted, nil)
	assert.Nil(t, c.state().Session)
}

func TestEventsStreamStartsWithState(t *testing.T) {
	c := newClient(t)
	srv := httptest.NewServer(c.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/session/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event:state\n", line)
}
