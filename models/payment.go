package models

import "vitrine-checkout-api/types"

// PackageData identifica o item e o prestador na inicialização do pagamento
type PackageData struct {
	ServiceID string `json:"serviceId,omitempty"`
	CourseID  string `json:"courseId,omitempty"`
	Title     string `json:"title"`
	OwnerName string `json:"ownerName"`
}

// PaymentRequest é o corpo aceito pelo endpoint de inicialização de
// pagamento. Para pix os campos de cartão ficam vazios; para cartão o
// snapshot do widget carrega o token de uso único.
type PaymentRequest struct {
	SessionID       string             `json:"sid,omitempty"`
	Amount          float64            `json:"amount"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod"`
	PackageData     PackageData        `json:"packageData"`
	CustomerData    CustomerInput      `json:"customerData"`
	CardToken       string             `json:"cardToken,omitempty"`
	Installments    int                `json:"installments,omitempty"`
	PayerData       *types.PayerData   `json:"payerData,omitempty"`
	DeviceID        string             `json:"deviceId,omitempty"`
	IssuerID        string             `json:"issuerId,omitempty"`
	PaymentMethodID string             `json:"paymentMethodId,omitempty"`
	CardForm        *CardFormSnapshot  `json:"cardForm,omitempty"`
	Device          *types.DeviceHints `json:"device,omitempty"`
}

// SubscriptionRequest inicia uma assinatura (cobrança recorrente); o
// retorno é sempre um checkoutUrl externo.
type SubscriptionRequest struct {
	CourseID     string        `json:"courseId,omitempty"`
	ServiceID    string        `json:"serviceId,omitempty"`
	ProviderID   string        `json:"providerId"`
	CustomerData CustomerInput `json:"customerData"`
}
