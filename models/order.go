package models

import "time"

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItem is a frozen copy of a cart line at checkout time.
type OrderItem struct {
	ID          string  `bson:"id" json:"id" firestore:"id"`
	Name        string  `bson:"name" json:"name" firestore:"name"`
	Price       float64 `bson:"price" json:"price" firestore:"price"`
	ImageURL    string  `bson:"image_url" json:"imageUrl" firestore:"imageUrl"`
	AssignedPet string  `bson:"assigned_pet,omitempty" json:"assignedPet,omitempty" firestore:"assignedPet,omitempty"`
}

type Order struct {
	ID            string      `bson:"_id" json:"id" firestore:"id"`
	UserID        string      `bson:"user_id" json:"userId" firestore:"userId"`
	Items         []OrderItem `bson:"items" json:"items" firestore:"items"`
	Total         float64     `bson:"total" json:"total" firestore:"total"`
	Date          time.Time   `bson:"date" json:"date" firestore:"date"`
	Status        string      `bson:"status" json:"status" firestore:"status"`
	PaymentMethod string      `bson:"payment_method" json:"paymentMethod" firestore:"paymentMethod"`
}
