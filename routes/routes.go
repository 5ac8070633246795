package routes

import (
	"time"

	"jepet/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers device session endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/session", hb.CreateSession)

	api := r.Group("/api/session")
	{
		api.Use(hb.DeviceSession)
		api.GET("/state", hb.GetState)
		api.PUT("/view", hb.SetView)
		api.GET("/events", hb.Events)
	}
	r.GET("/api/tasks/:id", hb.DeviceSession, hb.GetTask)
}

// RegisterAuthRoutes registers identity endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.Use(hb.DeviceSession)
		api.POST("/signup", hb.SignUp)
		api.POST("/signin", hb.SignIn)
		api.POST("/signout", hb.SignOut)
		api.POST("/password-reset", hb.ResetPassword)
		api.DELETE("/account", hb.DeleteAccount)
	}
}

// RegisterCatalogRoutes registers the public catalog endpoints.
func RegisterCatalogRoutes(r *gin.Engine) {
	api := r.Group("/api/catalog")
	{
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/:id", handlers.GetProduct)
		api.GET("/highlights", handlers.GetHighlights)
		api.GET("/services", handlers.GetServices)
		api.GET("/appointment-types", handlers.GetAppointmentTypes)
	}
}

// RegisterStorefrontRoutes registers cart, checkout, orders, pets and appointments.
func RegisterStorefrontRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(hb.DeviceSession)
		api.GET("/cart", hb.GetCart)
		api.POST("/cart", hb.AddToCart)
		api.DELETE("/cart/:id", hb.RemoveFromCart)
		api.POST("/checkout", hb.Checkout)
		api.GET("/orders", hb.GetOrders)
		api.POST("/pets", hb.AddPet)

		api.GET("/appointments", hb.GetAppointments)
		api.POST("/appointments", hb.BookAppointment)
		api.PATCH("/appointments/:id", hb.RescheduleAppointment)
		api.POST("/appointments/:id/cancel", hb.CancelAppointment)
	}
}

// RegisterAIRoutes registers AI widget endpoints when a model is configured.
func RegisterAIRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	if hb.AIAdvice == nil {
		return
	}
	api := r.Group("/api/ai")
	{
		api.Use(hb.DeviceSession)
		api.POST("/advice", hb.AIAdvice)
		api.POST("/advice/voice", hb.AIVoiceAdvice)
		api.POST("/image-edit", hb.AIEditImage)
	}
}

// RegisterHealthRoute registers health-check endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
	r.GET("/health/deps", handlers.HealthDeps)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	if hb.RateLimit != nil {
		r.Use(hb.RateLimit)
	}

	RegisterHealthRoute(r)
	RegisterSessionRoutes(r, hb)
	RegisterAuthRoutes(r, hb)
	RegisterCatalogRoutes(r)
	RegisterStorefrontRoutes(r, hb)
	RegisterAIRoutes(r, hb)
}
