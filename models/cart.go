package models

// CartItem is one line of the cart: a product snapshot plus an optional pet it is for.
type CartItem struct {
	LineID      string `json:"lineId"`
	Product
	AssignedPet string `json:"assignedPet,omitempty"`
}
