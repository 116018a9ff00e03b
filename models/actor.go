package models

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleReferee   UserRole = "referee"
	RolePlayer    UserRole = "player"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleReferee, RolePlayer:
		return true
	}
	return false
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports organizer rights over the event: admins, the organizer
// and listed managers.
func (a Actor) CanManage(e *Event) bool {
	if a.IsAdmin() {
		return true
	}
	return e != nil && e.IsManager(a.UserID)
}
