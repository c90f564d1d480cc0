package mercadopago

// Tipos de requisição seguem o formato da API v1 de pagamentos; apenas os
// campos que este serviço envia e lê.

type identificationType struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payerType struct {
	Email          string              `json:"email"`
	FirstName      string              `json:"first_name,omitempty"`
	LastName       string              `json:"last_name,omitempty"`
	Identification *identificationType `json:"identification,omitempty"`
}

type createPaymentRequest struct {
	TransactionAmount float64           `json:"transaction_amount"`
	Token             string            `json:"token,omitempty"`
	Installments      int               `json:"installments,omitempty"`
	IssuerID          string            `json:"issuer_id,omitempty"`
	PaymentMethodID   string            `json:"payment_method_id"`
	Description       string            `json:"description,omitempty"`
	ExternalReference string            `json:"external_reference,omitempty"`
	Payer             payerType         `json:"payer"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type transactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

type pointOfInteraction struct {
	TransactionData transactionData `json:"transaction_data"`
}

type paymentResponse struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	PointOfInteraction *pointOfInteraction `json:"point_of_interaction,omitempty"`
	// Presente apenas quando o gateway exige continuação externa
	CheckoutURL string `json:"checkout_url,omitempty"`
}

type autoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

type createPreapprovalRequest struct {
	Reason            string        `json:"reason"`
	PayerEmail        string        `json:"payer_email"`
	ExternalReference string        `json:"external_reference,omitempty"`
	BackURL           string        `json:"back_url"`
	AutoRecurring     autoRecurring `json:"auto_recurring"`
}

type preapprovalResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
	Status    string `json:"status"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
