package models

// Product categories.
const (
	CategoryFood      = "racao"
	CategoryToy       = "brinquedo"
	CategoryAccessory = "acessorio"
	CategoryHygiene   = "higiene"
)

// Pet types used by the catalog and the AI widget.
const (
	PetTypeDog   = "cao"
	PetTypeCat   = "gato"
	PetTypeOther = "outros"
)

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	PetType     string  `json:"petType"`
	Description string  `json:"description"`
}

// PetService is one of the clinic's bookable services shown on the services page.
type PetService struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price,omitempty"`
}

// AppointmentType is an option of the booking form.
type AppointmentType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
