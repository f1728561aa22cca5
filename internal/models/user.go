package models

import "strings"

// Roles accepted by the backend.
const (
	RoleDocente    = "docente"
	RoleEstudiante = "estudiante"
	RoleDirector   = "director"
	RoleTutor      = "tutor"
	RoleAdmin      = "admin"
)

// Record statuses shared by users and enrollments.
const (
	StatusActive   = "Activo"
	StatusInactive = "Inactivo"
)

// Roles lists the valid user roles in display order.
var Roles = []string{RoleDocente, RoleEstudiante, RoleDirector, RoleTutor, RoleAdmin}

// User is a person known to the backend. ID mirrors IDUsuario.
type User struct {
	ID        int64  `json:"id"`
	IDUsuario int64  `json:"id_usuario"`
	Nombre    string `json:"nombre"`
	ApeP      string `json:"ape_p"`
	ApeM      string `json:"ape_m"`
	Curp      string `json:"curp,omitempty"`
	Rfc       string `json:"rfc,omitempty"`
	Sexo      string `json:"sexo,omitempty"`
	Usuario   string `json:"usuario,omitempty"`
	Password  string `json:"password,omitempty"`
	Rol       string `json:"rol,omitempty"`
	Estado    string `json:"estado,omitempty"`
}

// FullName joins name and surnames.
func (u User) FullName() string {
	return strings.Join(strings.Fields(u.Nombre+" "+u.ApeP+" "+u.ApeM), " ")
}

// IsActive compares the status case-insensitively.
func (u User) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(u.Estado), StatusActive)
}

// Info projects the user without its password.
func (u User) Info() UserInfo {
	return UserInfo{
		ID:      u.ID,
		Nombre:  u.Nombre,
		ApeP:    u.ApeP,
		ApeM:    u.ApeM,
		Usuario: u.Usuario,
		Rol:     u.Rol,
		Estado:  u.Estado,
		Sexo:    u.Sexo,
	}
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
