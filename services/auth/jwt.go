package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const InternalTokenDuration = 15 * time.Minute

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTService assina e valida os tokens dos endpoints internos de operação
// (reprocessar jobs, inspecionar a fila de falhas).
type JWTService struct {
	secretKey []byte
	issuer    string
}

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// GenerateInternalToken emite um token de curta duração com escopo
// interno para o subject informado
func (j *JWTService) GenerateInternalToken(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		Scope: "internal",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(InternalTokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateToken confere assinatura, emissor e validade
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != j.issuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
