package handlers

import (
	"net/http"

	"jepet/models"
	"jepet/services/session"
	"jepet/utils"

	"github.com/gin-gonic/gin"
)

// GetAppointments handles GET /api/appointments.
func (h *StorefrontHandler) GetAppointments(c *gin.Context) {
	s := storeOf(c).Snapshot()
	if s.Session == nil {
		respondErrorAuth(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": s.Appointments, "loading": s.AppointmentsLoading})
}

// BookAppointment handles POST /api/appointments.
func (h *StorefrontHandler) BookAppointment(c *gin.Context) {
	var req session.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	appt, task, err := storeOf(c).BookAppointment(req)
	if err != nil {
		respondError(c, err)
		return
	}
	accepted(c, "appointment", appt, task)
}

// RescheduleAppointment handles PATCH /api/appointments/:id.
func (h *StorefrontHandler) RescheduleAppointment(c *gin.Context) {
	var change models.AppointmentChange
	if err := c.ShouldBindJSON(&change); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	appt, task, err := storeOf(c).RescheduleAppointment(c.Param("id"), change)
	if err != nil {
		respondError(c, err)
		return
	}
	accepted(c, "appointment", appt, task)
}

// CancelAppointment handles POST /api/appointments/:id/cancel.
func (h *StorefrontHandler) CancelAppointment(c *gin.Context) {
	appt, task, err := storeOf(c).CancelAppointment(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	accepted(c, "appointment", appt, task)
}
