package models

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated caller, resolved once from the access token
type Principal struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Roles  []string  `json:"roles"`
}

// HasRole checks if the principal holds any of the given roles
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the principal is an administrator
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanManageVilla reports whether the principal owns the villa or is an admin
func (p *Principal) CanManageVilla(v *Villa) bool {
	if p == nil || v == nil {
		return false
	}
	return p.IsAdmin() || v.IsOwnedBy(p.Email)
}

// CanViewReservation reports whether the principal may read the reservation
func (p *Principal) CanViewReservation(r *Reservation) bool {
	if p == nil || r == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	if r.UserID != nil && *r.UserID == p.UserID {
		return true
	}
	return r.VillaOwnerEmail != "" && strings.EqualFold(r.VillaOwnerEmail, p.Email)
}
