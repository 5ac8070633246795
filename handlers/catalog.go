package handlers

import (
	"net/http"
	"strconv"

	"jepet/services/catalog"
	"jepet/utils"

	"github.com/gin-gonic/gin"
)

const defaultHighlights = 4

// GetProducts handles GET /api/catalog/products?category=&petType=&q=.
func GetProducts(c *gin.Context) {
	category := c.DefaultQuery("category", catalog.CategoryAll)
	if !catalog.ValidCategory(category) {
		utils.JSONError(c, http.StatusBadRequest, "Categoria inválida.", category)
		return
	}
	c.JSON(http.StatusOK, catalog.Products(catalog.Filter{
		Category: category,
		PetType:  c.Query("petType"),
		Query:    c.Query("q"),
	}))
}

// GetProduct handles GET /api/catalog/products/:id.
func GetProduct(c *gin.Context) {
	p, ok := catalog.Product(c.Param("id"))
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "Produto não encontrado.", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetHighlights handles GET /api/catalog/highlights?n=.
func GetHighlights(c *gin.Context) {
	n := defaultHighlights
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			utils.JSONError(c, http.StatusBadRequest, "Parâmetro n inválido.", raw)
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, catalog.Highlights(n))
}

// GetServices handles GET /api/catalog/services.
func GetServices(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Services())
}

// GetAppointmentTypes handles GET /api/catalog/appointment-types.
func GetAppointmentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.AppointmentTypes())
}
