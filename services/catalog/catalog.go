// Package catalog holds the storefront's static product and service catalog.
package catalog

import (
	"strings"

	"jepet/models"
)

var products = []models.Product{
	{
		ID:          "p1",
		Name:        "Ração Premium Adulto",
		Category:    models.CategoryFood,
		Price:       189.90,
		PetType:     models.PetTypeDog,
		ImageURL:    "https://images.unsplash.com/photo-1589924691995-400dc9ecc119?auto=format&fit=crop&q=80&w=400",
		Description: "Nutrição completa para cães de médio e grande porte.",
	},
	{
		ID:          "p2",
		Name:        "Arranhador Torre Cat",
		Category:    models.CategoryToy,
		Price:       245.00,
		PetType:     models.PetTypeCat,
		ImageURL:    "https://images.unsplash.com/photo-1545249390-6bdfa286032f?auto=format&fit=crop&q=80&w=400",
		Description: "Diversão e desgaste de unhas em um só lugar.",
	},
	{
		ID:          "p3",
		Name:        "Brinquedo Mordedor Interativo",
		Category:    models.CategoryToy,
		Price:       45.90,
		PetType:     models.PetTypeDog,
		ImageURL:    "https://images.unsplash.com/photo-1576201836106-db1758fd1c97?auto=format&fit=crop&q=80&w=400",
		Description: "Resistente e ideal para gastar energia.",
	},
	{
		ID:          "p4",
		Name:        "Shampoo Neutro 500ml",
		Category:    models.CategoryHygiene,
		Price:       32.50,
		PetType:     models.PetTypeOther,
		ImageURL:    "https://images.unsplash.com/photo-1583947215259-38e31be8751f?auto=format&fit=crop&q=80&w=400",
		Description: "Fragrância suave e limpeza profunda.",
	},
}

var services = []models.PetService{
	{ID: "banho-tosa", Title: "Banho & Tosa", Description: "Cuidados estéticos com produtos hipoalergênicos e profissionais especializados.", Price: "A partir de R$ 80"},
	{ID: "vacinacao", Title: "Vacinação", Description: "Protocolo completo de vacinas para garantir a saúde preventiva do seu pet.", Price: "Sob consulta"},
	{ID: "hospedagem", Title: "Hospedagem", Description: "Ambiente seguro e divertido para seu pet enquanto você viaja com tranquilidade.", Price: "Diárias R$ 120"},
	{ID: "vet", Title: "Clínica 24h", Description: "Atendimento veterinário completo com infraestrutura para exames e cirurgias."},
}

var appointmentTypes = []models.AppointmentType{
	{ID: "consulta-geral", Label: "Consulta Geral"},
	{ID: "vacinacao", Label: "Vacinação"},
	{ID: "exames", Label: "Exames de Sangue"},
	{ID: "emergencia", Label: "Emergência"},
}

// CategoryAll disables category filtering.
const CategoryAll = "all"

// Filter narrows Products. Zero values match everything.
type Filter struct {
	Category string
	PetType  string
	Query    string
}

// Products returns the catalog entries matching f, in catalog order.
func Products(f Filter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
			continue
		}
		if f.PetType != "" && p.PetType != f.PetType {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Product looks up a product by id.
func Product(id string) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Highlights returns the first n products for the home page.
func Highlights(n int) []models.Product {
	if n > len(products) {
		n = len(products)
	}
	if n < 0 {
		n = 0
	}
	return append([]models.Product{}, products[:n]...)
}

func Services() []models.PetService {
	return append([]models.PetService{}, services...)
}

func AppointmentTypes() []models.AppointmentType {
	return append([]models.AppointmentType{}, appointmentTypes...)
}

// ValidAppointmentType reports whether id is one of the booking form options.
func ValidAppointmentType(id string) bool {
	for _, t := range appointmentTypes {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is a known category or CategoryAll.
func ValidCategory(c string) bool {
	switch c {
	case CategoryAll, models.CategoryFood, models.CategoryToy, models.CategoryAccessory, models.CategoryHygiene:
		return true
	}
	return false
}
