package payment

import (
	"errors"
	"fmt"
	"strings"

	"vitrine-checkout-api/models"
	"vitrine-checkout-api/utils"
)

var (
	ErrNameRequired  = errors.New("Informe seu nome completo.")
	ErrEmailRequired = errors.New("Informe um email válido.")
	ErrPhoneRequired = errors.New("Informe um telefone para contato.")
	ErrTaxIDInvalid  = errors.New("Documento inválido: confira a quantidade de dígitos.")
)

// ValidateCustomer aplica as regras de obrigatoriedade dos dados do
// cliente. Para cobrança recorrente apenas nome e email são exigidos; para
// cobrança avulsa todos os campos, com CPF de 11 dígitos ou CNPJ de 14.
func ValidateCustomer(c *models.CustomerInput, billing models.BillingType) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}

	email := strings.TrimSpace(c.Email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrEmailRequired
	}

	if billing == models.BillingSubscription {
		return nil
	}

	if !validTaxID(c.TaxID, c.TaxIDType) {
		return ErrTaxIDInvalid
	}

	if strings.TrimSpace(c.Phone) == "" {
		return ErrPhoneRequired
	}

	return nil
}

func validTaxID(taxID string, kind models.TaxIDType) bool {
	digits := utils.DigitCount(taxID)
	switch kind {
	case models.TaxIDCNPJ:
		return digits == 14
	default:
		// CPF é o tipo padrão quando o sub-tipo não vem informado
		return digits == 11
	}
}

// rejectionReasons mapeia os códigos de status_detail do gateway para
// mensagens exibíveis. Códigos fora da tabela caem na mensagem genérica
// com o código cru embutido.
var rejectionReasons = map[string]string{
	"cc_rejected_insufficient_amount":      "Saldo insuficiente no cartão.",
	"cc_rejected_bad_filled_card_number":   "Número do cartão inválido.",
	"cc_rejected_bad_filled_date":          "Data de validade inválida.",
	"cc_rejected_bad_filled_security_code": "Código de segurança inválido.",
	"cc_rejected_bad_filled_other":         "Confira os dados do cartão e tente novamente.",
	"cc_rejected_card_disabled":            "Cartão desabilitado. Entre em contato com o emissor.",
	"cc_rejected_duplicated_payment":       "Pagamento duplicado. Aguarde alguns minutos antes de tentar de novo.",
	"cc_rejected_high_risk":                "Pagamento recusado pela análise de risco. Tente outro meio de pagamento.",
	"cc_rejected_call_for_authorize":       "O emissor exige autorização prévia. Ligue para o seu banco.",
	"cc_rejected_blacklist":                "Pagamento não autorizado pelo emissor.",
	"cc_rejected_max_attempts":             "Limite de tentativas excedido. Tente novamente mais tarde.",
	"cc_rejected_invalid_installments":     "Quantidade de parcelas inválida para este cartão.",
	"cc_rejected_other_reason":             "Pagamento recusado pelo emissor. Tente outro cartão.",
}

// RejectionReason traduz um status_detail de recusa
func RejectionReason(statusDetail string) string {
	if reason, ok := rejectionReasons[statusDetail]; ok {
		return reason
	}
	return fmt.Sprintf("Pagamento recusado: %s", statusDetail)
}

// Mensagens dos três buckets de erro de tokenização
const (
	MsgTokenIncomplete = "Preencha todos os campos do cartão."
	MsgTokenInvalid    = "Dados do cartão inválidos: confira o número, a validade e o código de segurança."
)

// ClassifyTokenError enquadra um erro do widget de tokenização em um dos
// três buckets: campos incompletos, conteúdo inválido ou falha genérica
// carregando a mensagem crua.
func ClassifyTokenError(e *models.TokenError) string {
	if e == nil {
		return ""
	}

	switch e.Code {
	case "fields_empty", "empty_fields", "incomplete_fields":
		return MsgTokenIncomplete
	case "invalid_fields", "invalid_field_values", "validation_error":
		return MsgTokenInvalid
	}

	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Code
	}
	return fmt.Sprintf("Não foi possível validar o cartão: %s", msg)
}
