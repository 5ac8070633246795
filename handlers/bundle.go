package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Resolves the device token into its Store.
	DeviceSession gin.HandlerFunc
	// Throttles per client IP; nil disables it.
	RateLimit gin.HandlerFunc

	// Device session endpoints
	CreateSession gin.HandlerFunc
	GetState      gin.HandlerFunc
	SetView       gin.HandlerFunc
	Events        gin.HandlerFunc
	GetTask       gin.HandlerFunc

	// Identity endpoints
	SignUp        gin.HandlerFunc
	SignIn        gin.HandlerFunc
	SignOut       gin.HandlerFunc
	ResetPassword gin.HandlerFunc
	DeleteAccount gin.HandlerFunc

	// Storefront endpoints
	GetCart        gin.HandlerFunc
	AddToCart      gin.HandlerFunc
	RemoveFromCart gin.HandlerFunc
	Checkout       gin.HandlerFunc
	GetOrders      gin.HandlerFunc
	AddPet         gin.HandlerFunc

	// Appointment endpoints
	GetAppointments       gin.HandlerFunc
	BookAppointment       gin.HandlerFunc
	RescheduleAppointment gin.HandlerFunc
	CancelAppointment     gin.HandlerFunc

	// AI endpoints; nil when no model is configured.
	AIAdvice      gin.HandlerFunc
	AIVoiceAdvice gin.HandlerFunc
	AIEditImage   gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle. ai may be nil.
func NewHandlerBundle(deviceSession, rateLimit gin.HandlerFunc, sess *SessionHandler, auth *AuthHandler, store *StorefrontHandler, ai *AIHandler) *HandlerBundle {
	hb := &HandlerBundle{
		DeviceSession: deviceSession,
		RateLimit:     rateLimit,

		CreateSession: sess.CreateSession,
		GetState:      sess.GetState,
		SetView:       sess.SetView,
		Events:        sess.Events,
		GetTask:       sess.GetTask,

		SignUp:        auth.SignUp,
		SignIn:        auth.SignIn,
		SignOut:       auth.SignOut,
		ResetPassword: auth.ResetPassword,
		DeleteAccount: auth.DeleteAccount,

		GetCart:        store.GetCart,
		AddToCart:      store.AddToCart,
		RemoveFromCart: store.RemoveFromCart,
		Checkout:       store.Checkout,
		GetOrders:      store.GetOrders,
		AddPet:         store.AddPet,

		GetAppointments:       store.GetAppointments,
		BookAppointment:       store.BookAppointment,
		RescheduleAppointment: store.RescheduleAppointment,
		CancelAppointment:     store.CancelAppointment,
	}
	if ai != nil {
		hb.AIAdvice = ai.Advice
		hb.AIVoiceAdvice = ai.VoiceAdvice
		hb.AIEditImage = ai.EditImage
	}
	return hb
}
