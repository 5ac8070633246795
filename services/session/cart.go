package session

import (
	"math"

	"jepet/models"

	"github.com/google/uuid"
)

// AddToCart appends a line for product. The same product may appear on
// several lines, each with its own line id.
func (s *Store) AddToCart(product models.Product, assignedPet string) models.CartItem {
	item := models.CartItem{
		LineID:      uuid.NewString(),
		Product:     product,
		AssignedPet: assignedPet,
	}
	s.mu.Lock()
	s.state.Cart = append(s.state.Cart, item)
	s.mu.Unlock()

	s.publishState()
	return item
}

// RemoveFromCart removes the line with the given line id. When id is a
// product id instead, every line of that product goes. Unknown ids are a
// no-op. It returns how many lines were removed.
func (s *Store) RemoveFromCart(id string) int {
	s.mu.Lock()
	kept := s.state.Cart[:0:0]
	byLine := false
	for _, item := range s.state.Cart {
		if item.LineID == id {
			byLine = true
			break
		}
	}
	for _, item := range s.state.Cart {
		if (byLine && item.LineID == id) || (!byLine && item.ID == id) {
			continue
		}
		kept = append(kept, item)
	}
	removed := len(s.state.Cart) - len(kept)
	s.state.Cart = kept
	s.mu.Unlock()

	if removed > 0 {
		s.publishState()
	}
	return removed
}

// Cart returns a copy of the cart lines and their total.
func (s *Store) Cart() ([]models.CartItem, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem{}, s.state.Cart...), cartTotal(s.state.Cart)
}

func cartTotal(items []models.CartItem) float64 {
	prices := make([]float64, len(items))
	for i, item := range items {
		prices[i] = item.Price
	}
	return sumPrices(prices)
}

// sumPrices adds in cents so totals do not drift.
func sumPrices(prices []float64) float64 {
	var cents int64
	for _, p := range prices {
		cents += int64(math.Round(p * 100))
	}
	return float64(cents) / 100
}
