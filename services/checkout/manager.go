package checkout

import (
	"log"
	"sync"
	"time"

	"vitrine-checkout-api/services/payment"
)

// Hooks liga os desfechos da sessão à infraestrutura de fora do pacote
// (fila de jobs, reconciliação) sem acoplar a sessão a ela.
type Hooks struct {
	// OnApproved dispara quando um pagamento é aprovado (cartão ou pix).
	OnApproved func(orderID string)
	// OnPixTimeout dispara quando o polling esgota com o pedido pendente.
	OnPixTimeout func(orderID string)
}

// Manager é o dono das sessões de checkout ativas. Sessões são estado em
// memória; a varredura periódica fecha sessões ociosas, derrubando os
// pollers junto.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	items   ItemStore
	orders  OrderStore
	gateway payment.Gateway
	cfg     Config
	hooks   Hooks

	stopCh chan struct{}
	once   sync.Once
}

func NewManager(items ItemStore, orders OrderStore, gateway payment.Gateway, cfg Config, hooks Hooks) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		items:    items,
		orders:   orders,
		gateway:  gateway,
		cfg:      cfg.withDefaults(),
		hooks:    hooks,
		stopCh:   make(chan struct{}),
	}

	go m.sweepLoop()
	return m
}

// Open cria uma sessão para o item referenciado e passa a acompanhá-la
func (m *Manager) Open(ref ItemRef) (*Session, error) {
	s, err := NewSession(m.items, m.orders, m.gateway, ref, m.cfg)
	if err != nil {
		return nil, err
	}

	s.onApproved = m.hooks.OnApproved
	s.onTimeout = m.hooks.OnPixTimeout

	m.mu.Lock()
	m.sessions[s.ID()] = s
	total := len(m.sessions)
	m.mu.Unlock()

	log.Printf("Opened checkout session %s for %s %s (%d active)", s.ID(), s.Item().Kind, s.Item().ID, total)
	return s, nil
}

// Get localiza uma sessão ativa e renova sua janela de ociosidade
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		s.touch()
	}
	return s, ok
}

// Close desmonta a sessão e a remove do acompanhamento
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
		log.Printf("Closed checkout session %s", id)
	}
}

// Stop encerra a varredura e fecha todas as sessões ativas
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stopCh) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.SessionTTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		log.Printf("Expired idle checkout session %s", s.ID())
	}
}
