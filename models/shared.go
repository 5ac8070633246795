package models

// ReminderPayload is the queued body of an appointment reminder.
type ReminderPayload struct {
	UserID        string `json:"userId"`
	AppointmentID string `json:"appointmentId"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	FireDate      string `json:"fireDate"`
}
