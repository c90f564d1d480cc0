package models

// PaymentMethod é o método de pagamento selecionado na sessão de checkout.
// Itens de cobrança recorrente só aceitam cartão.
type PaymentMethod string

const (
	PaymentMethodPix  PaymentMethod = "pix"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodPix || m == PaymentMethodCard
}

// TaxIDType determina a quantidade de dígitos exigida no documento
type TaxIDType string

const (
	TaxIDCPF  TaxIDType = "cpf"  // 11 dígitos
	TaxIDCNPJ TaxIDType = "cnpj" // 14 dígitos
)

// CustomerInput é o estado mutável do formulário de dados do cliente.
// Para cobrança recorrente apenas nome e email são obrigatórios; para
// cobrança avulsa todos os campos são obrigatórios, com a contagem de
// dígitos do documento conforme o tipo selecionado.
type CustomerInput struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	TaxID     string    `json:"taxId"`
	TaxIDType TaxIDType `json:"taxIdType"`
	Phone     string    `json:"phone"`
}

// TokenError é o erro reportado pelo widget de tokenização durante o
// createToken. O código cru nunca é exibido diretamente ao usuário.
type TokenError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CardFormSnapshot é a leitura completa do widget de campos seguros no
// momento da submissão. O número do cartão e o CVV nunca aparecem aqui:
// somente o token de uso único e metadados do emissor.
type CardFormSnapshot struct {
	Ready           bool              `json:"ready"`
	FieldErrors     map[string]string `json:"fieldErrors,omitempty"`
	Token           string            `json:"token,omitempty"`
	TokenError      *TokenError       `json:"tokenError,omitempty"`
	IssuerID        string            `json:"issuerId,omitempty"`
	PaymentMethodID string            `json:"paymentMethodId,omitempty"`
	Installments    int               `json:"installments,omitempty"`

	// Campos ocultos que o widget injeta no formulário; usados apenas
	// como candidatos de device fingerprint.
	DeviceID       string `json:"deviceId,omitempty"`
	HiddenDeviceID string `json:"hiddenDeviceId,omitempty"`
}
