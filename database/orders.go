package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"vitrine-checkout-api/models"
)

var ErrOrderNotFound = errors.New("order not found")

// CreateOrder persiste um pedido recém-inicializado
func (c *Connection) CreateOrder(o *models.Order) error {
	if err := c.ensureConnection(); err != nil {
		return fmt.Errorf("database connection check failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, gateway_payment_id, item_id, item_kind, item_title, provider_id,
		 amount, payment_method, status, status_detail,
		 customer_name, customer_email, customer_tax_id, customer_phone,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`,
		o.ID, o.GatewayPaymentID, o.ItemID, string(o.ItemKind), o.ItemTitle,
		o.ProviderID, o.Amount, string(o.PaymentMethod), string(o.Status),
		o.StatusDetail, o.CustomerName, o.CustomerEmail, o.CustomerTaxID,
		o.CustomerPhone)

	if err != nil {
		return fmt.Errorf("error creating order: %v", err)
	}

	log.Printf("Created order %s (%s/%s) with status %s", o.ID, o.ItemKind, o.ItemID, o.Status)
	return nil
}

// UpdateOrderStatus adota um novo status para o pedido. Pedidos que já
// chegaram a um status terminal nunca mudam de novo.
func (c *Connection) UpdateOrderStatus(orderID string, status models.OrderStatus, detail string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, status_detail = ?, updated_at = NOW()
		WHERE id = ? AND status NOT IN ('approved', 'rejected', 'cancelled')
	`, string(status), detail, orderID)

	if err != nil {
		return fmt.Errorf("error updating order status: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("Order %s not updated to %s (terminal or unknown)", orderID, status)
	}
	return nil
}

// GetOrder carrega o pedido completo
func (c *Connection) GetOrder(orderID string) (*models.Order, error) {
	var o models.Order
	var kind, method, status string

	err := c.db.QueryRow(`
		SELECT id, gateway_payment_id, item_id, item_kind, item_title,
		       provider_id, amount, payment_method, status,
		       COALESCE(status_detail, ''),
		       customer_name, customer_email, customer_tax_id, customer_phone,
		       created_at, updated_at
		FROM orders
		WHERE id = ?
	`, orderID).Scan(
		&o.ID, &o.GatewayPaymentID, &o.ItemID, &kind, &o.ItemTitle,
		&o.ProviderID, &o.Amount, &method, &status, &o.StatusDetail,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerTaxID, &o.CustomerPhone,
		&o.CreatedAt, &o.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting order: %v", err)
	}

	o.ItemKind = models.ItemKind(kind)
	o.PaymentMethod = models.PaymentMethod(method)
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// GetOrderStatus devolve apenas o status, usado pelo endpoint de polling
// do storefront
func (c *Connection) GetOrderStatus(orderID string) (models.OrderStatus, error) {
	var status string
	err := c.db.QueryRow(`SELECT status FROM orders WHERE id = ?`, orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error getting order status: %v", err)
	}
	return models.OrderStatus(status), nil
}

// ListStalePixOrders lista pedidos pix ainda não resolvidos criados há
// mais tempo que o limite. O worker usa essa lista para expirar cobranças
// cujo QR já não vale mais.
func (c *Connection) ListStalePixOrders(olderThan time.Duration) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, gateway_payment_id, customer_email, customer_name, created_at
		FROM orders
		WHERE payment_method = 'pix'
		  AND status IN ('pending', 'in_process', 'timeout')
		  AND created_at < NOW() - INTERVAL ? SECOND
	`, int(olderThan.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("error listing stale pix orders: %v", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.GatewayPaymentID, &o.CustomerEmail, &o.CustomerName, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.PaymentMethod = models.PaymentMethodPix
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
