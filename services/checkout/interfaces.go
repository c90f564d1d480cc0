package checkout

import (
	"time"

	"vitrine-checkout-api/models"
)

// ItemStore resolve itens do catálogo. Implementado por *database.Connection.
type ItemStore interface {
	GetServiceItem(serviceID string) (*models.PurchasableItem, error)
	GetCourseItem(courseID string) (*models.PurchasableItem, error)
}

// OrderStore persiste pedidos e transições de status.
type OrderStore interface {
	CreateOrder(o *models.Order) error
	UpdateOrderStatus(orderID string, status models.OrderStatus, detail string) error
}

// Config controla os tempos do workflow. Os defaults reproduzem o
// comportamento do checkout: polling a cada 3s, teto de 60 tentativas e
// 2s de exibição do status aprovado antes de navegar.
type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	ApproveDelay    time.Duration
	SuccessPath     string
	SessionTTL      time.Duration
}

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultMaxPollAttempts = 60
	DefaultApproveDelay    = 2 * time.Second
	DefaultSuccessPath     = "/checkout/success"
	DefaultSessionTTL      = 30 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if c.ApproveDelay <= 0 {
		c.ApproveDelay = DefaultApproveDelay
	}
	if c.SuccessPath == "" {
		c.SuccessPath = DefaultSuccessPath
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	return c
}
