package handlers

import (
	"net/http"

	"jepet/models"
	"jepet/services/catalog"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StorefrontHandler struct {
	Logger *zap.Logger
}

func NewStorefrontHandler(logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{Logger: logger}
}

type cartResponse struct {
	Items []models.CartItem `json:"items"`
	Total float64           `json:"total"`
}

// GetCart handles GET /api/cart.
func (h *StorefrontHandler) GetCart(c *gin.Context) {
	items, total := storeOf(c).Cart()
	c.JSON(http.StatusOK, cartResponse{Items: items, Total: total})
}

// AddToCart handles POST /api/cart.
func (h *StorefrontHandler) AddToCart(c *gin.Context) {
	var body struct {
		ProductID   string `json:"productId" binding:"required"`
		AssignedPet string `json:"assignedPet"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	product, ok := catalog.Product(body.ProductID)
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "Produto não encontrado.", body.ProductID)
		return
	}
	st := storeOf(c)
	line := st.AddToCart(product, body.AssignedPet)
	items, total := st.Cart()
	c.JSON(http.StatusCreated, gin.H{"line": line, "cart": cartResponse{Items: items, Total: total}})
}

// RemoveFromCart handles DELETE /api/cart/:id, where id is a line id or a product id.
func (h *StorefrontHandler) RemoveFromCart(c *gin.Context) {
	st := storeOf(c)
	removed := st.RemoveFromCart(c.Param("id"))
	items, total := st.Cart()
	c.JSON(http.StatusOK, gin.H{"removed": removed, "cart": cartResponse{Items: items, Total: total}})
}

// Checkout handles POST /api/checkout.
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	order, task, err := storeOf(c).Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Logger.Info("Checkout: order placed", zap.String("order_id", order.ID), zap.String("method", order.PaymentMethod))
	accepted(c, "order", order, task)
}

// GetOrders handles GET /api/orders.
func (h *StorefrontHandler) GetOrders(c *gin.Context) {
	s := storeOf(c).Snapshot()
	if s.Session == nil {
		respondErrorAuth(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": s.Orders, "loading": s.OrdersLoading})
}

// AddPet handles POST /api/pets.
func (h *StorefrontHandler) AddPet(c *gin.Context) {
	var pet models.Pet
	if err := c.ShouldBindJSON(&pet); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	task, err := storeOf(c).AddPet(pet)
	if err != nil {
		respondError(c, err)
		return
	}
	accepted(c, "pet", pet, task)
}
