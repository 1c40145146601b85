package service

import "github.com/mansoorceksport/bluefin/internal/domain"

// Actor is the authenticated caller as seen by the services
type Actor struct {
	ID   string
	Name string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// canAccess reports whether the actor may see a resource owned by ownerID
func (a Actor) canAccess(ownerID string) bool {
	return a.IsAdmin() || a.ID == ownerID
}
