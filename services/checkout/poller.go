package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"vitrine-checkout-api/models"
)

// StatusChecker consulta o status atual de um pedido no gateway
type StatusChecker func(ctx context.Context, orderID string) (models.OrderStatus, error)

// StatusPoller é a tarefa agendada que acompanha um pagamento pix até um
// status terminal. Ela é dona do próprio contador de tentativas e do
// status corrente; a sessão só conhece Start e Stop. Cada tick é
// independente: uma consulta que falha conta como tentativa e o polling
// segue — falhas transitórias nunca chegam ao usuário.
type StatusPoller struct {
	Interval     time.Duration
	MaxAttempts  int
	ApproveDelay time.Duration
	Check        StatusChecker

	// OnStatus recebe cada status adotado, inclusive o timeout local.
	OnStatus func(orderID string, status models.OrderStatus, attempts int)
	// OnApproved dispara após o atraso de exibição do status aprovado.
	OnApproved func(orderID string)

	mu       sync.Mutex
	orderID  string
	status   models.OrderStatus
	attempts int
	running  bool
	stopCh   chan struct{}
}

func NewStatusPoller(check StatusChecker) *StatusPoller {
	return &StatusPoller{
		Interval:     DefaultPollInterval,
		MaxAttempts:  DefaultMaxPollAttempts,
		ApproveDelay: DefaultApproveDelay,
		Check:        check,
	}
}

// Start inicia o acompanhamento do pedido. Chamadas com o poller já em
// execução são ignoradas.
func (p *StatusPoller) Start(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.orderID = orderID
	p.status = models.OrderStatusPending
	p.attempts = 0
	p.running = true
	p.stopCh = make(chan struct{})

	go p.loop(p.stopCh, orderID)
}

// Stop encerra o polling incondicionalmente. É idempotente e seguro de
// chamar a qualquer momento; nenhum timer sobrevive ao Stop.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *StatusPoller) stopLocked() {
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

func (p *StatusPoller) Status() models.OrderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *StatusPoller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *StatusPoller) loop(stop chan struct{}, orderID string) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := p.tick(stop, orderID); done {
				return
			}
		}
	}
}

// tick executa uma consulta de status e devolve true quando o polling
// deve parar
func (p *StatusPoller) tick(stop chan struct{}, orderID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.Interval)
	status, err := p.Check(ctx, orderID)
	cancel()

	p.mu.Lock()
	p.attempts++
	attempts := p.attempts

	if err != nil {
		// Falha transitória: conta a tentativa e tenta de novo no
		// próximo tick
		log.Printf("Order %s status check failed (attempt %d/%d): %v", orderID, attempts, p.MaxAttempts, err)
		if attempts >= p.MaxAttempts {
			return p.exhaustLocked(orderID, attempts)
		}
		p.mu.Unlock()
		return false
	}

	p.status = status
	p.mu.Unlock()

	if p.OnStatus != nil {
		p.OnStatus(orderID, status, attempts)
	}

	switch status {
	case models.OrderStatusApproved:
		// Atraso de exibição antes de navegar para a tela de sucesso
		select {
		case <-stop:
		case <-time.After(p.ApproveDelay):
			if p.OnApproved != nil {
				p.OnApproved(orderID)
			}
		}
		p.Stop()
		return true

	case models.OrderStatusRejected, models.OrderStatusCancelled:
		// Status terminal fica visível; nada mais a fazer
		p.Stop()
		return true
	}

	if attempts >= p.MaxAttempts {
		p.mu.Lock()
		return p.exhaustLocked(orderID, attempts)
	}

	return false
}

// exhaustLocked encerra o polling no teto de tentativas. Timeout só se
// aplica ao pedido ainda pendente; um status adotado no caminho (como
// in_process) permanece — a reconciliação assíncrona resolve depois.
// Chamado com p.mu em posse; libera antes de notificar.
func (p *StatusPoller) exhaustLocked(orderID string, attempts int) bool {
	if p.status != models.OrderStatusPending {
		status := p.status
		p.stopLocked()
		p.mu.Unlock()

		log.Printf("Order %s polling exhausted after %d attempts, keeping status %s", orderID, attempts, status)
		return true
	}

	p.status = models.OrderStatusTimeout
	p.stopLocked()
	p.mu.Unlock()

	log.Printf("Order %s polling timed out after %d attempts", orderID, attempts)
	if p.OnStatus != nil {
		p.OnStatus(orderID, models.OrderStatusTimeout, attempts)
	}
	return true
}
