package types

// PayerData carrega dados complementares do pagador repassados ao gateway
// para análise antifraude
type PayerData struct {
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

// DeviceHints são os dados de ambiente informados pelo navegador, usados
// exclusivamente para sintetizar um device fingerprint quando nenhum
// provedor estruturado devolve um valor
type DeviceHints struct {
	UserAgent      string `json:"userAgent,omitempty"`
	Locale         string `json:"locale,omitempty"`
	ScreenSize     string `json:"screenSize,omitempty"`
	TimezoneOffset *int   `json:"timezoneOffset,omitempty"`
}

// CardCharge é a requisição de cobrança com cartão enviada ao gateway.
// O cartão em si nunca trafega por aqui: apenas o token de uso único.
type CardCharge struct {
	Amount          float64
	Token           string
	Installments    int
	IssuerID        string
	PaymentMethodID string
	DeviceID        string
	Description     string
	ExternalRef     string
	PayerEmail      string
	PayerName       string
	PayerTaxID      string
	PayerTaxIDType  string
}

// PixCharge é a requisição de cobrança instantânea enviada ao gateway
type PixCharge struct {
	Amount         float64
	Description    string
	ExternalRef    string
	PayerEmail     string
	PayerName      string
	PayerTaxID     string
	PayerTaxIDType string
}

// PaymentResult é o resultado de uma cobrança com cartão
type PaymentResult struct {
	PaymentID    string
	Status       string
	StatusDetail string
	CheckoutURL  string
}

// PixResult é o resultado de uma cobrança pix: o código copia-e-cola e a
// imagem do QR em base64
type PixResult struct {
	PaymentID    string
	QRCode       string
	QRCodeBase64 string
}

// PreapprovalRequest cria uma assinatura no gateway; o retorno é a URL de
// checkout externo onde o cliente conclui a adesão
type PreapprovalRequest struct {
	Reason      string
	Amount      float64
	PayerEmail  string
	ExternalRef string
	BackURL     string
}
