package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vitrine-checkout-api/models"
)

func customer() models.CustomerInput {
	return models.CustomerInput{
		Name:      "João Pereira",
		Email:     "joao@example.com",
		TaxID:     "529.982.247-25",
		TaxIDType: models.TaxIDCPF,
		Phone:     "(21) 99876-5432",
	}
}

func TestValidateCustomerOneTime(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := customer()
		assert.NoError(t, ValidateCustomer(&c, models.BillingOneTime))
	})

	t.Run("name required", func(t *testing.T) {
		c := customer()
		c.Name = "   "
		assert.ErrorIs(t, ValidateCustomer(&c, models.BillingOneTime), ErrNameRequired)
	})

	t.Run("email must look like an email", func(t *testing.T) {
		c := customer()
		c.Email = "joao.example.com"
		assert.ErrorIs(t, ValidateCustomer(&c, models.BillingOneTime), ErrEmailRequired)
	})

	t.Run("cpf needs 11 digits", func(t *testing.T) {
		c := customer()
		c.TaxID = "529.982.247-2"
		assert.ErrorIs(t, ValidateCustomer(&c, models.BillingOneTime), ErrTaxIDInvalid)
	})

	t.Run("cnpj needs 14 digits", func(t *testing.T) {
		c := customer()
		c.TaxIDType = models.TaxIDCNPJ
		c.TaxID = "12.345.678/0001-95"
		assert.NoError(t, ValidateCustomer(&c, models.BillingOneTime))

		c.TaxID = "12.345.678/0001"
		assert.ErrorIs(t, ValidateCustomer(&c, models.BillingOneTime), ErrTaxIDInvalid)
	})

	t.Run("cpf is the default tax id type", func(t *testing.T) {
		c := customer()
		c.TaxIDType = ""
		assert.NoError(t, ValidateCustomer(&c, models.BillingOneTime))
	})

	t.Run("phone required", func(t *testing.T) {
		c := customer()
		c.Phone = ""
		assert.ErrorIs(t, ValidateCustomer(&c, models.BillingOneTime), ErrPhoneRequired)
	})
}

func TestValidateCustomerSubscription(t *testing.T) {
	// assinatura só exige nome e email: documento e telefone ficam para o
	// checkout externo do gateway
	c := models.CustomerInput{Name: "Ana", Email: "ana@example.com"}
	assert.NoError(t, ValidateCustomer(&c, models.BillingSubscription))

	c.Email = ""
	assert.ErrorIs(t, ValidateCustomer(&c, models.BillingSubscription), ErrEmailRequired)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "Saldo insuficiente no cartão.",
		RejectionReason("cc_rejected_insufficient_amount"))
	assert.Equal(t, "Código de segurança inválido.",
		RejectionReason("cc_rejected_bad_filled_security_code"))

	// código desconhecido cai no fallback com o código cru
	assert.Equal(t, "Pagamento recusado: cc_rejected_something_new",
		RejectionReason("cc_rejected_something_new"))
}

func TestClassifyTokenError(t *testing.T) {
	assert.Empty(t, ClassifyTokenError(nil))

	for _, code := range []string{"fields_empty", "empty_fields", "incomplete_fields"} {
		assert.Equal(t, MsgTokenIncomplete,
			ClassifyTokenError(&models.TokenError{Code: code}), code)
	}

	for _, code := range []string{"invalid_fields", "invalid_field_values", "validation_error"} {
		assert.Equal(t, MsgTokenInvalid,
			ClassifyTokenError(&models.TokenError{Code: code}), code)
	}

	got := ClassifyTokenError(&models.TokenError{Code: "E301", Message: "bin not found"})
	assert.Equal(t, "Não foi possível validar o cartão: bin not found", got)

	// sem mensagem, o código cru é o que sobra para mostrar
	got = ClassifyTokenError(&models.TokenError{Code: "E999"})
	assert.Equal(t, "Não foi possível validar o cartão: E999", got)
}
