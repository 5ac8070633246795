package models

import (
	"fmt"
	"time"
)

// Appointment statuses. Cancelled is only reached through a customer request.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Appointment struct {
	ID        string    `bson:"_id" json:"id" firestore:"id"`
	UserID    string    `bson:"user_id" json:"userId" firestore:"userId"`
	Date      string    `bson:"date" json:"date" firestore:"date"`
	Time      string    `bson:"time" json:"time" firestore:"time"`
	Type      string    `bson:"type" json:"type" firestore:"type"`
	PetName   string    `bson:"pet_name" json:"petName" firestore:"petName"`
	PetType   string    `bson:"pet_type,omitempty" json:"petType,omitempty" firestore:"petType,omitempty"`
	Status    string    `bson:"status" json:"status" firestore:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt" firestore:"createdAt"`
}

// StartsAt combines Date and Time in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment date/time %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}

// Open reports whether the appointment can still be changed by the customer.
func (a Appointment) Open() bool {
	return a.Status == AppointmentPending || a.Status == AppointmentConfirmed
}

// AppointmentChange carries the fields a reschedule may touch.
type AppointmentChange struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Type string `json:"type"`
}
