package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity campos propios embebidos en el token. SessionVersion viaja en el
// claim para que la validación contra la versión vigente en DB sea un simple
// entero, sin lista de revocación por token.
type Identity struct {
	UserID         string
	CompanyID      string
	Role           string // vendedor | gerente | admin | super_admin
	TeamID         string // vacío si el usuario no tiene equipo
	SessionVersion int
}

// Claims incluye los claims estándar JWT más la identidad de la aplicación.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user_id"`
	CompanyID      string `json:"company_id"`
	Role           string `json:"role"`
	TeamID         string `json:"team_id,omitempty"`
	SessionVersion int    `json:"session_version"`
}

// Generate genera un token JWT firmado (HS256) con la identidad dada.
func Generate(secret, issuer string, expMinutes int, id Identity) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:         id.UserID,
		CompanyID:      id.CompanyID,
		Role:           id.Role,
		TeamID:         id.TeamID,
		SessionVersion: id.SessionVersion,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// purposeReset discriminador de los tokens de reseteo: un token de acceso
// jamás debe pasar por token de reseteo ni al revés.
const purposeReset = "password_reset"

// resetClaims claims mínimos del token de reseteo de contraseña.
type resetClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
}

// GenerateReset genera un token de un solo propósito para cerrar un reseteo
// de contraseña. La entrega al usuario (email) es del colaborador externo.
func GenerateReset(secret, issuer string, expMinutes int, userID string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		Purpose: purposeReset,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseReset valida firma, expiración y propósito, y devuelve el user_id.
func ParseReset(secret, tokenString string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &resetClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*resetClaims)
	if !ok || !token.Valid || claims.Purpose != purposeReset || claims.UserID == "" {
		return "", fmt.Errorf("token de reseteo inválido")
	}
	return claims.UserID, nil
}

// Parse valida firma y expiración y devuelve la identidad embebida.
// La comparación de session_version contra la DB es responsabilidad del caller.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return Identity{
		UserID:         claims.UserID,
		CompanyID:      claims.CompanyID,
		Role:           claims.Role,
		TeamID:         claims.TeamID,
		SessionVersion: claims.SessionVersion,
	}, nil
}
