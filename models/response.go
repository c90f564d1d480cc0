package models

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PixPaymentResponse é devolvido na inicialização de um pagamento pix
type PixPaymentResponse struct {
	OrderID      string `json:"orderId"`
	QRCode       string `json:"qrCode"`
	QRCodeBase64 string `json:"qrCodeBase64"`
}

// CardPaymentResponse é devolvido na inicialização de um pagamento com
// cartão. Message acompanha os status não aprovados com o texto exibível;
// CheckoutURL está presente apenas quando o gateway exige continuação
// externa.
type CardPaymentResponse struct {
	OrderID      string `json:"orderId"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail,omitempty"`
	Message      string `json:"message,omitempty"`
	CheckoutURL  string `json:"checkoutUrl,omitempty"`
}

type SubscriptionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type OrderStatusResponse struct {
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
}
