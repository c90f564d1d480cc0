package models

import "time"

// Order é o registro persistido de uma inicialização de pagamento.
// O id é a chave de polling devolvida ao storefront; gateway_payment_id é
// a referência no gateway usada na reconciliação.
type Order struct {
	ID               string        `json:"orderId"`
	GatewayPaymentID string        `json:"-"`
	ItemID           string        `json:"itemId"`
	ItemKind         ItemKind      `json:"itemKind"`
	ItemTitle        string        `json:"itemTitle"`
	ProviderID       string        `json:"providerId"`
	Amount           float64       `json:"amount"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Status           OrderStatus   `json:"status"`
	StatusDetail     string        `json:"statusDetail,omitempty"`
	CustomerName     string        `json:"-"`
	CustomerEmail    string        `json:"-"`
	CustomerTaxID    string        `json:"-"`
	CustomerPhone    string        `json:"-"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
