package checkout

import (
	"sort"
	"sync"
)

// CardFormPhase é o ciclo de vida do widget de campos seguros:
// uninitialized -> mounting -> ready | mount-failed. Os callbacks do
// widget apenas mudam de fase; nenhuma lógica de negócio roda aqui.
type CardFormPhase int

const (
	CardFormUninitialized CardFormPhase = iota
	CardFormMounting
	CardFormReady
	CardFormMountFailed
)

func (p CardFormPhase) String() string {
	switch p {
	case CardFormUninitialized:
		return "uninitialized"
	case CardFormMounting:
		return "mounting"
	case CardFormReady:
		return "ready"
	case CardFormMountFailed:
		return "mount-failed"
	default:
		return "unknown"
	}
}

// CardFormState acompanha o widget embarcado de entrada de cartão. O
// número do cartão e o CVV vivem só dentro dos iframes seguros do widget;
// aqui ficam apenas a fase, os erros por campo e os metadados.
type CardFormState struct {
	mu          sync.Mutex
	phase       CardFormPhase
	mountError  string
	fieldErrors map[string]string
}

func NewCardFormState() *CardFormState {
	return &CardFormState{
		phase:       CardFormUninitialized,
		fieldErrors: make(map[string]string),
	}
}

// BeginMount marca o início da montagem do widget
func (f *CardFormState) BeginMount() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == CardFormUninitialized {
		f.phase = CardFormMounting
	}
}

// HandleMounted é o callback de "ready" do widget
func (f *CardFormState) HandleMounted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == CardFormMounting {
		f.phase = CardFormReady
	}
}

// HandleMountError é o callback de falha de montagem
func (f *CardFormState) HandleMountError(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = CardFormMountFailed
	f.mountError = message
}

// HandleFieldError registra o erro de validação de um campo reportado
// pelo widget
func (f *CardFormState) HandleFieldError(field, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message == "" {
		delete(f.fieldErrors, field)
		return
	}
	f.fieldErrors[field] = message
}

// ClearFieldError remove o erro de um campo corrigido
func (f *CardFormState) ClearFieldError(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fieldErrors, field)
}

func (f *CardFormState) Phase() CardFormPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *CardFormState) Ready() bool {
	return f.Phase() == CardFormReady
}

func (f *CardFormState) MountError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mountError
}

// OffendingFields lista, em ordem estável, os campos com erro de
// validação pendente
func (f *CardFormState) OffendingFields() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fieldErrors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(f.fieldErrors))
	for field := range f.fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
