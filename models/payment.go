package models

import "time"

// Payment methods offered at checkout.
const (
	PaymentCard   = "card"
	PaymentPix    = "pix"
	PaymentBoleto = "boleto"
)

// PaymentRequest is the checkout form. Only presence of the fields required by
// Method is checked.
type PaymentRequest struct {
	Method     string `json:"method" binding:"required"`
	CardNumber string `json:"cardNumber,omitempty"`
	CardHolder string `json:"cardHolder,omitempty"`
	CardExpiry string `json:"cardExpiry,omitempty"`
	CardCVV    string `json:"cardCvv,omitempty"`
	TaxID      string `json:"taxId,omitempty"`
}

// Receipt is the outcome of the simulated payment step.
type Receipt struct {
	PaymentID string    `json:"paymentId"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
