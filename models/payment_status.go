package models

// OrderStatus segue os status retornados pelo gateway. O status timeout é
// local: indica que o polling esgotou as tentativas sem resposta terminal,
// comunicando ambiguidade e não falha.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusInProcess OrderStatus = "in_process"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusTimeout   OrderStatus = "timeout"
)

// IsTerminal indica se o status encerra o acompanhamento do pedido.
// Timeout não é terminal no gateway: o pedido pode ainda ser aprovado e é
// reconciliado depois pelo worker.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected || s == OrderStatusCancelled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProcess, OrderStatusApproved,
		OrderStatusRejected, OrderStatusCancelled, OrderStatusTimeout:
		return true
	}
	return false
}
