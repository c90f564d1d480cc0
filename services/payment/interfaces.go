package payment

import (
	"context"

	"vitrine-checkout-api/models"
	"vitrine-checkout-api/types"
)

// Gateway é o contrato com o provedor de pagamentos. A implementação real
// fica em services/payment/mercadopago; os testes usam um fake.
type Gateway interface {
	CreateCardPayment(ctx context.Context, charge *types.CardCharge) (*types.PaymentResult, error)
	CreatePixPayment(ctx context.Context, charge *types.PixCharge) (*types.PixResult, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (models.OrderStatus, error)
	CreatePreapproval(ctx context.Context, req *types.PreapprovalRequest) (string, error)
}
