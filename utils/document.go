package utils

import (
	"math"
	"strings"
)

// OnlyDigits remove a máscara de um documento (CPF/CNPJ) ou telefone,
// mantendo apenas os dígitos
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitCount conta os dígitos de um documento já desconsiderando a máscara
func DigitCount(s string) int {
	return len(OnlyDigits(s))
}

func Round(value float64) float64 {
	return math.Round(value*100) / 100
}
