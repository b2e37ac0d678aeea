package models

// Role est résolu une seule fois à l'authentification (claim JWT),
// jamais deviné à la volée pendant une requête.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// RoleFromString normalise un claim de rôle ; tout inconnu retombe sur buyer
func RoleFromString(s string) Role {
	switch Role(s) {
	case RoleVendor:
		return RoleVendor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleBuyer
	}
}

type User struct {
	ID       string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     Role   `json:"role,omitempty"`
}
