// Package jwt emite y valida los tokens del personal del local. El token lleva el local
// (venue) y el rol, así los handlers acotan el inventario sin consultar la DB.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles del personal.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleBarista = "barista"
)

var (
	// ErrMissingVenue el token es válido pero no indica a qué local pertenece.
	ErrMissingVenue = errors.New("jwt: el token no indica el local")
	// ErrUnknownRole el token trae un rol que la API no reconoce.
	ErrUnknownRole = errors.New("jwt: rol desconocido")
)

// clockSkew tolerancia entre relojes de quien emite y quien valida.
const clockSkew = 30 * time.Second

// Claims claims estándar más la identidad del personal.
type Claims struct {
	jwt.RegisteredClaims
	VenueID string `json:"venue_id"`
	Role    string `json:"role,omitempty"`
}

// Identity quién hace la petición y en qué local.
type Identity struct {
	UserID  string
	VenueID string
	Role    string // vacío en tokens sin rol; RequireRole responde 401
}

// Generate firma un token HS256 para userID en venueID. Solo valida el secreto: los tokens
// incompletos se rechazan al parsearlos.
func Generate(secret, userID, venueID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		VenueID: venueID,
		Role:    role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma, algoritmo y expiración, y devuelve la identidad del token.
// Un token sin local devuelve ErrMissingVenue; un rol fuera de los conocidos, ErrUnknownRole.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return Identity{}, err
	}
	if claims.VenueID == "" {
		return Identity{}, ErrMissingVenue
	}
	switch claims.Role {
	case "", RoleAdmin, RoleManager, RoleBarista:
	default:
		return Identity{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}
	return Identity{UserID: claims.Subject, VenueID: claims.VenueID, Role: claims.Role}, nil
}
