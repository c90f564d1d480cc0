package models

// ItemKind distingue as duas fontes de itens compráveis do catálogo
type ItemKind string

const (
	ItemKindService ItemKind = "service"
	ItemKindCourse  ItemKind = "course"
)

// BillingType é a modalidade de cobrança do item. Assinaturas só aceitam
// cartão e cobram o valor mensal.
type BillingType string

const (
	BillingOneTime      BillingType = "one-time"
	BillingSubscription BillingType = "subscription"
)

// PurchasableItem é a projeção de catálogo que o checkout consome:
// imutável depois de carregada na sessão.
type PurchasableItem struct {
	ID           string      `json:"id"`
	Kind         ItemKind    `json:"kind"`
	Title        string      `json:"title"`
	Price        float64     `json:"price"`
	MonthlyPrice float64     `json:"monthlyPrice,omitempty"`
	BillingType  BillingType `json:"billingType"`
	ProviderID   string      `json:"providerId"`
	ProviderName string      `json:"providerName"`
	Images       []string    `json:"images,omitempty"`
}

// Amount é o valor cobrado na inicialização do pagamento
func (i *PurchasableItem) Amount() float64 {
	if i.BillingType == BillingSubscription {
		return i.MonthlyPrice
	}
	return i.Price
}
