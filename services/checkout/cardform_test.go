package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardFormPhases(t *testing.T) {
	f := NewCardFormState()
	assert.Equal(t, CardFormUninitialized, f.Phase())
	assert.False(t, f.Ready())

	f.BeginMount()
	assert.Equal(t, CardFormMounting, f.Phase())

	f.HandleMounted()
	assert.Equal(t, CardFormReady, f.Phase())
	assert.True(t, f.Ready())
}

func TestCardFormMountFailure(t *testing.T) {
	f := NewCardFormState()
	f.BeginMount()
	f.HandleMountError("iframe blocked")

	assert.Equal(t, CardFormMountFailed, f.Phase())
	assert.Equal(t, "iframe blocked", f.MountError())
	assert.False(t, f.Ready())

	// mounted depois da falha não ressuscita o widget
	f.HandleMounted()
	assert.Equal(t, CardFormMountFailed, f.Phase())
}

func TestCardFormFieldErrors(t *testing.T) {
	f := NewCardFormState()
	f.BeginMount()
	f.HandleMounted()

	assert.Nil(t, f.OffendingFields())

	f.HandleFieldError("securityCode", "muito curto")
	f.HandleFieldError("cardNumber", "inválido")
	assert.Equal(t, []string{"cardNumber", "securityCode"}, f.OffendingFields())

	f.ClearFieldError("cardNumber")
	assert.Equal(t, []string{"securityCode"}, f.OffendingFields())

	// mensagem vazia equivale a limpar o campo
	f.HandleFieldError("securityCode", "")
	assert.Nil(t, f.OffendingFields())
}
