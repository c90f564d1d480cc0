package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitrine-checkout-api/models"
	"vitrine-checkout-api/services/payment"
	"vitrine-checkout-api/types"
)

var (
	// ErrItemRefInvalid: a sessão exige exatamente um identificador de
	// serviço ou de curso.
	ErrItemRefInvalid = errors.New("exactly one of service id or course id must be provided")

	ErrSessionClosed       = errors.New("checkout session closed")
	ErrMethodLocked        = errors.New("payment method locked to card")
	ErrWrongMethod         = errors.New("selected payment method does not match submission")
	ErrSubscriptionBilling = errors.New("subscription billing must use the preapproval flow")
	ErrSubmissionInFlight  = errors.New("submission already in flight")
	ErrCardFormNotReady    = errors.New("card form not ready")
	ErrCardFieldsInvalid   = errors.New("card form has field errors")
	ErrTokenizationFailed  = errors.New("card tokenization failed")
	ErrValidationFailed    = errors.New("customer data validation failed")
	ErrGatewayFailure      = errors.New("gateway request failed")
)

// Mensagens exibíveis do fluxo
const (
	MsgUnderReview      = "Pagamento em análise. Você receberá um email com o resultado."
	MsgCardFormPending  = "O formulário de cartão ainda não está pronto. Aguarde um instante e tente de novo."
	MsgTokenMissing     = "Não foi possível obter o token do cartão. Confira os dados e tente novamente."
	MsgInFlight         = "Há um pagamento em processamento. Aguarde a conclusão."
	MsgSubmitFailure    = "Falha ao processar o pagamento. Tente novamente."
	MsgPixFailure       = "Não foi possível gerar a cobrança Pix. Tente novamente."
	MsgMethodLocked     = "Assinaturas aceitam apenas pagamento com cartão."
	MsgSubscriptionFlow = "Assinaturas são contratadas pelo fluxo de assinatura, com a adesão concluída no site do provedor de pagamentos."
)

// ItemRef aponta para o item sendo comprado. Exatamente um dos
// identificadores deve estar preenchido.
type ItemRef struct {
	ServiceID string `json:"serviceId,omitempty"`
	CourseID  string `json:"courseId,omitempty"`
}

// PixSession é o estado transiente de uma cobrança pix: existe apenas
// entre a inicialização e um status terminal (ou o timeout de polling).
type PixSession struct {
	OrderID      string             `json:"orderId"`
	QRCode       string             `json:"qrCode"`
	QRCodeBase64 string             `json:"qrCodeBase64"`
	Status       models.OrderStatus `json:"status"`
	Attempts     int                `json:"attempts"`
}

// Navigation é a saída de navegação produzida pela sessão: a tela de
// sucesso parametrizada com pedido e método, ou uma continuação externa
// do gateway.
type Navigation struct {
	To       string               `json:"to"`
	OrderID  string               `json:"orderId,omitempty"`
	Method   models.PaymentMethod `json:"method,omitempty"`
	External bool                 `json:"external,omitempty"`
}

// Session orquestra o workflow de pagamento de um checkout: transforma um
// item comprável mais os dados do cliente em um pagamento concluído por um
// dos dois protocolos (pix ou cartão) e expõe os desfechos terminais.
//
// Toda falha visível passa pelo slot único de erro, que a próxima ação
// limpa antes de tentar de novo; nenhuma falha é fatal para o processo.
type Session struct {
	mu sync.Mutex

	id        string
	item      *models.PurchasableItem
	customer  models.CustomerInput
	method    models.PaymentMethod
	locked    bool
	card      *CardFormState
	pix       *PixSession
	poller    *StatusPoller
	errSlot   string
	inFlight  bool
	nav       *Navigation
	closed    bool
	lastTouch time.Time

	orders  OrderStore
	gateway payment.Gateway
	cfg     Config

	onApproved func(orderID string)
	onTimeout  func(orderID string)
}

// NewSession abre uma sessão de checkout para o item referenciado. O item
// é carregado uma única vez; não encontrado é erro terminal para a sessão
// (o chamador devolve o controle com a ação de voltar ao catálogo).
func NewSession(items ItemStore, orders OrderStore, gateway payment.Gateway, ref ItemRef, cfg Config) (*Session, error) {
	if (ref.ServiceID == "") == (ref.CourseID == "") {
		return nil, ErrItemRefInvalid
	}

	var item *models.PurchasableItem
	var err error
	if ref.ServiceID != "" {
		item, err = items.GetServiceItem(ref.ServiceID)
	} else {
		item, err = items.GetCourseItem(ref.CourseID)
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.New().String(),
		item:      item,
		method:    models.PaymentMethodPix,
		orders:    orders,
		gateway:   gateway,
		cfg:       cfg.withDefaults(),
		lastTouch: time.Now(),
	}

	// Cobrança recorrente só aceita cartão: força a seleção e trava o
	// toggle
	if item.BillingType == models.BillingSubscription {
		s.method = models.PaymentMethodCard
		s.locked = true
		s.card = NewCardFormState()
		s.card.BeginMount()
	}

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Item() *models.PurchasableItem {
	return s.item
}

// Err devolve o conteúdo atual do slot de erro
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errSlot
}

func (s *Session) Method() models.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

func (s *Session) CardForm() *CardFormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

func (s *Session) Navigation() *Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav
}

func (s *Session) Pix() *PixSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pix == nil {
		return nil
	}
	copied := *s.pix
	return &copied
}

// Snapshot é a visão serializável da sessão para o storefront
type Snapshot struct {
	ID            string                  `json:"sessionId"`
	Item          *models.PurchasableItem `json:"item"`
	Customer      models.CustomerInput    `json:"customer"`
	Method        models.PaymentMethod    `json:"method"`
	MethodLocked  bool                    `json:"methodLocked"`
	CardFormPhase string                  `json:"cardFormPhase,omitempty"`
	Pix           *PixSession             `json:"pix,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Navigation    *Navigation             `json:"navigation,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		Item:         s.item,
		Customer:     s.customer,
		Method:       s.method,
		MethodLocked: s.locked,
		Error:        s.errSlot,
		Navigation:   s.nav,
	}
	if s.card != nil {
		snap.CardFormPhase = s.card.Phase().String()
	}
	if s.pix != nil {
		copied := *s.pix
		snap.Pix = &copied
	}
	return snap
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouch = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouch
}

// SetCustomer atualiza o formulário de dados do cliente. A validação roda
// na submissão, não aqui: o formulário é editável e retentável livremente.
func (s *Session) SetCustomer(c models.CustomerInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.errSlot = ""
	s.customer = c
	return nil
}

// SelectMethod troca o método de pagamento. O toggle para cartão cria o
// estado do widget (create-on-enter); sair de cartão destrói o widget
// (destroy-on-exit), liberando iframe e listeners.
func (s *Session) SelectMethod(m models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.errSlot = ""

	if !m.IsValid() {
		s.errSlot = "Método de pagamento desconhecido."
		return fmt.Errorf("invalid payment method %q", m)
	}

	if s.locked && m != models.PaymentMethodCard {
		s.errSlot = MsgMethodLocked
		return ErrMethodLocked
	}

	if m == s.method {
		return nil
	}

	s.method = m
	if m == models.PaymentMethodCard {
		s.card = NewCardFormState()
		s.card.BeginMount()
	} else {
		s.card = nil
	}

	return nil
}

// SubmitCard executa o protocolo de submissão com cartão, na ordem
// estrita: precondição do widget, token, releitura do snapshot, device
// fingerprint, submissão e interpretação da resposta. Cada passo alimenta
// o próximo; nenhum é reordenado.
func (s *Session) SubmitCard(ctx context.Context, req *models.PaymentRequest) (*models.CardPaymentResponse, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.errSlot = ""

	if s.inFlight || (s.pix != nil && s.pix.Status == models.OrderStatusPending) {
		s.errSlot = MsgInFlight
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	if s.method != models.PaymentMethodCard {
		s.errSlot = "Selecione o pagamento com cartão antes de enviar."
		s.mu.Unlock()
		return nil, ErrWrongMethod
	}

	// Cobrança recorrente nunca vira pagamento avulso: a adesão de
	// assinatura sai pela pré-aprovação, não por /v1/payments
	if s.item.BillingType == models.BillingSubscription {
		s.errSlot = MsgSubscriptionFlow
		s.mu.Unlock()
		return nil, ErrSubscriptionBilling
	}

	if err := payment.ValidateCustomer(&s.customer, s.item.BillingType); err != nil {
		s.errSlot = err.Error()
		s.mu.Unlock()
		return nil, ErrValidationFailed
	}

	snap := req.CardForm
	card := s.card

	// 1. Precondição: widget pronto e sem erros por campo pendentes
	if card != nil && snap != nil {
		for field, msg := range snap.FieldErrors {
			card.HandleFieldError(field, msg)
		}
	}
	if card == nil || !card.Ready() {
		s.errSlot = MsgCardFormPending
		s.mu.Unlock()
		return nil, ErrCardFormNotReady
	}
	if fields := card.OffendingFields(); len(fields) > 0 {
		s.errSlot = fmt.Sprintf("Corrija os campos do cartão: %s.", strings.Join(fields, ", "))
		s.mu.Unlock()
		return nil, ErrCardFieldsInvalid
	}

	// 2. Resultado da criação do token, classificado em três buckets
	if snap == nil || snap.TokenError != nil {
		var tokenErr *models.TokenError
		if snap != nil {
			tokenErr = snap.TokenError
		}
		msg := payment.ClassifyTokenError(tokenErr)
		if msg == "" {
			msg = MsgTokenMissing
		}
		s.errSlot = msg
		s.mu.Unlock()
		return nil, ErrTokenizationFailed
	}

	// 3. Releitura do snapshot: token ausente sem erro lançado é falha de
	// validação, nunca um no-op silencioso
	token := strings.TrimSpace(snap.Token)
	if token == "" {
		token = strings.TrimSpace(req.CardToken)
	}
	if token == "" {
		s.errSlot = MsgTokenMissing
		s.mu.Unlock()
		return nil, ErrTokenizationFailed
	}

	// 4. Device fingerprint: quatro mecanismos em ordem, com síntese
	// garantida no final; consultivo, nunca bloqueia
	providers := []FingerprintProvider{
		StaticProvider(req.DeviceID),
		StaticProvider(snap.DeviceID),
		StaticProvider(snap.HiddenDeviceID),
	}
	if req.PayerData != nil {
		providers = append(providers, StaticProvider(req.PayerData.DeviceFingerprint))
	}
	deviceID := ResolveFingerprint(providers, req.Device)

	installments := snap.Installments
	if installments <= 0 {
		installments = req.Installments
	}
	if installments <= 0 {
		installments = 1
	}
	issuerID := firstNonEmpty(snap.IssuerID, req.IssuerID)
	paymentMethodID := firstNonEmpty(snap.PaymentMethodID, req.PaymentMethodID)

	orderID := uuid.New().String()
	charge := &types.CardCharge{
		Amount:          s.item.Amount(),
		Token:           token,
		Installments:    installments,
		IssuerID:        issuerID,
		PaymentMethodID: paymentMethodID,
		DeviceID:        deviceID,
		Description:     s.item.Title,
		ExternalRef:     orderID,
		PayerEmail:      strings.TrimSpace(s.customer.Email),
		PayerName:       strings.TrimSpace(s.customer.Name),
		PayerTaxID:      s.customer.TaxID,
		PayerTaxIDType:  string(s.customer.TaxIDType),
	}

	// 5. Submissão single-shot: o flag de in-flight segura novos envios
	// enquanto a requisição está pendente
	s.inFlight = true
	s.mu.Unlock()

	result, err := s.gateway.CreateCardPayment(ctx, charge)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		log.Printf("Card payment failed for session %s: %v", s.id, err)
		s.errSlot = MsgSubmitFailure
		return nil, ErrGatewayFailure
	}

	s.persistOrder(orderID, result.PaymentID, models.PaymentMethodCard,
		models.OrderStatus(result.Status), result.StatusDetail)

	// 6. Interpretação da resposta
	resp := &models.CardPaymentResponse{
		OrderID:      orderID,
		Status:       result.Status,
		StatusDetail: result.StatusDetail,
		CheckoutURL:  result.CheckoutURL,
	}

	switch models.OrderStatus(result.Status) {
	case models.OrderStatusApproved:
		s.nav = s.successNavigation(orderID, models.PaymentMethodCard)
		if s.onApproved != nil {
			go s.onApproved(orderID)
		}

	case models.OrderStatusInProcess, models.OrderStatusPending:
		resp.Message = MsgUnderReview

	case models.OrderStatusRejected:
		resp.Message = payment.RejectionReason(result.StatusDetail)
		s.errSlot = resp.Message

	default:
		if result.CheckoutURL != "" {
			s.nav = &Navigation{To: result.CheckoutURL, OrderID: orderID, Method: models.PaymentMethodCard, External: true}
		}
		// Sem checkoutUrl e sem status reconhecido: fluxo transparente
		// tratado como concluído, sem ação adicional
	}

	return resp, nil
}

// SubmitPix executa o protocolo de transferência instantânea: submete sem
// token, guarda o código e o QR retornados e entra em pending com o
// polling de status ligado.
func (s *Session) SubmitPix(ctx context.Context, req *models.PaymentRequest) (*models.PixPaymentResponse, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.errSlot = ""

	if s.inFlight || (s.pix != nil && s.pix.Status == models.OrderStatusPending) {
		s.errSlot = MsgInFlight
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	if s.method != models.PaymentMethodPix {
		s.errSlot = MsgMethodLocked
		s.mu.Unlock()
		return nil, ErrWrongMethod
	}

	if err := payment.ValidateCustomer(&s.customer, s.item.BillingType); err != nil {
		s.errSlot = err.Error()
		s.mu.Unlock()
		return nil, ErrValidationFailed
	}

	orderID := uuid.New().String()
	charge := &types.PixCharge{
		Amount:         s.item.Amount(),
		Description:    s.item.Title,
		ExternalRef:    orderID,
		PayerEmail:     strings.TrimSpace(s.customer.Email),
		PayerName:      strings.TrimSpace(s.customer.Name),
		PayerTaxID:     s.customer.TaxID,
		PayerTaxIDType: string(s.customer.TaxIDType),
	}

	s.inFlight = true
	s.mu.Unlock()

	result, err := s.gateway.CreatePixPayment(ctx, charge)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		log.Printf("Pix payment failed for session %s: %v", s.id, err)
		s.errSlot = MsgPixFailure
		return nil, ErrGatewayFailure
	}

	s.persistOrder(orderID, result.PaymentID, models.PaymentMethodPix,
		models.OrderStatusPending, "")

	s.pix = &PixSession{
		OrderID:      orderID,
		QRCode:       result.QRCode,
		QRCodeBase64: result.QRCodeBase64,
		Status:       models.OrderStatusPending,
	}

	s.startPollerLocked(orderID, result.PaymentID)

	return &models.PixPaymentResponse{
		OrderID:      orderID,
		QRCode:       result.QRCode,
		QRCodeBase64: result.QRCodeBase64,
	}, nil
}

// startPollerLocked liga a tarefa de polling para o pedido pix corrente.
// Chamado com s.mu em posse.
func (s *Session) startPollerLocked(orderID, gatewayPaymentID string) {
	poller := NewStatusPoller(func(ctx context.Context, _ string) (models.OrderStatus, error) {
		return s.gateway.GetPaymentStatus(ctx, gatewayPaymentID)
	})
	poller.Interval = s.cfg.PollInterval
	poller.MaxAttempts = s.cfg.MaxPollAttempts
	poller.ApproveDelay = s.cfg.ApproveDelay

	poller.OnStatus = func(oid string, status models.OrderStatus, attempts int) {
		s.adoptPixStatus(oid, status, attempts)
	}
	poller.OnApproved = func(oid string) {
		s.mu.Lock()
		s.nav = s.successNavigation(oid, models.PaymentMethodPix)
		hook := s.onApproved
		s.mu.Unlock()
		if hook != nil {
			hook(oid)
		}
	}

	s.poller = poller
	poller.Start(orderID)
}

// adoptPixStatus adota verbatim o status devolvido pelo gateway e
// persiste a transição. Timeout local também passa por aqui.
func (s *Session) adoptPixStatus(orderID string, status models.OrderStatus, attempts int) {
	s.mu.Lock()

	if s.pix == nil || s.pix.OrderID != orderID {
		s.mu.Unlock()
		return
	}

	changed := s.pix.Status != status
	s.pix.Status = status
	s.pix.Attempts = attempts
	hook := s.onTimeout
	s.mu.Unlock()

	if !changed {
		return
	}

	if err := s.orders.UpdateOrderStatus(orderID, status, ""); err != nil {
		log.Printf("Warning: failed to persist status %s for order %s: %v", status, orderID, err)
	}

	if status == models.OrderStatusTimeout && hook != nil {
		hook(orderID)
	}
}

// Close desmonta a sessão: o polling é derrubado incondicionalmente e o
// widget de cartão é destruído, para nenhum timer sobreviver à sessão.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.poller != nil {
		s.poller.Stop()
		s.poller = nil
	}
	s.card = nil
	s.pix = nil
}

func (s *Session) persistOrder(orderID, gatewayPaymentID string, method models.PaymentMethod, status models.OrderStatus, detail string) {
	order := &models.Order{
		ID:               orderID,
		GatewayPaymentID: gatewayPaymentID,
		ItemID:           s.item.ID,
		ItemKind:         s.item.Kind,
		ItemTitle:        s.item.Title,
		ProviderID:       s.item.ProviderID,
		Amount:           s.item.Amount(),
		PaymentMethod:    method,
		Status:           status,
		StatusDetail:     detail,
		CustomerName:     strings.TrimSpace(s.customer.Name),
		CustomerEmail:    strings.TrimSpace(s.customer.Email),
		CustomerTaxID:    s.customer.TaxID,
		CustomerPhone:    s.customer.Phone,
	}

	if err := s.orders.CreateOrder(order); err != nil {
		// O pagamento já aconteceu no gateway; o registro local é
		// reconciliado depois pelo worker
		log.Printf("Warning: failed to persist order %s: %v", orderID, err)
	}
}

func (s *Session) successNavigation(orderID string, method models.PaymentMethod) *Navigation {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("method", string(method))
	return &Navigation{
		To:      s.cfg.SuccessPath + "?" + q.Encode(),
		OrderID: orderID,
		Method:  method,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
