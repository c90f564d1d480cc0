package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"vitrine-checkout-api/types"
)

// FingerprintProvider devolve um candidato a device fingerprint, ou vazio
// quando o mecanismo não tem valor disponível.
type FingerprintProvider func() string

// StaticProvider embala um valor já conhecido como provedor
func StaticProvider(value string) FingerprintProvider {
	return func() string { return value }
}

// ResolveFingerprint tenta os provedores na ordem dada e devolve o
// primeiro valor não vazio. Se nenhum responder, sintetiza um fingerprint
// a partir dos dados de ambiente do navegador. O retorno nunca é vazio e
// a resolução nunca falha: o fingerprint é consultivo (antifraude) e não
// pode bloquear a submissão.
func ResolveFingerprint(providers []FingerprintProvider, hints *types.DeviceHints) string {
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		if v := strings.TrimSpace(provider()); v != "" {
			return v
		}
	}
	return SynthesizeFingerprint(hints)
}

// SynthesizeFingerprint monta o fallback final: hash de user-agent +
// locale + tamanho de tela, mais o offset de fuso quando informado.
func SynthesizeFingerprint(hints *types.DeviceHints) string {
	h := sha256.New()
	if hints != nil {
		io.WriteString(h, hints.UserAgent)
		io.WriteString(h, "|")
		io.WriteString(h, hints.Locale)
		io.WriteString(h, "|")
		io.WriteString(h, hints.ScreenSize)
		if hints.TimezoneOffset != nil {
			io.WriteString(h, fmt.Sprintf("|%d", *hints.TimezoneOffset))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
