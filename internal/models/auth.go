package models

import "github.com/golang-jwt/jwt/v5"

// Credentials are the login form fields.
type Credentials struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

// UserInfo is the user projection kept in the session.
type UserInfo struct {
	ID      int64  `json:"id"`
	Nombre  string `json:"nombre"`
	ApeP    string `json:"ape_p"`
	ApeM    string `json:"ape_m"`
	Usuario string `json:"usuario"`
	Rol     string `json:"rol"`
	Estado  string `json:"estado"`
	Sexo    string `json:"sexo,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
	Raw   User     `json:"-"`
}

// SessionClaims are embedded in signed session markers.
type SessionClaims struct {
	UserID   int64  `json:"uid"`
	Usuario  string `json:"usuario"`
	Rol      string `json:"rol"`
	IssuedMs int64  `json:"iat_ms"`
	jwt.RegisteredClaims
}
