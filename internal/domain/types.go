package domain

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// RequestContext carries authenticated user info when available.
// A zero UserID is an anonymous caller.
type RequestContext struct {
	UserID    int64  `json:"userId"`
	Role      string `json:"role"`
	RequestID string `json:"-"`
}

func (rc RequestContext) Authenticated() bool {
	return rc.UserID > 0
}

func (rc RequestContext) IsAdmin() bool {
	return rc.Role == RoleAdmin
}

// Owner returns the user id to store on a new booking, or nil for anonymous.
func (rc RequestContext) Owner() *int64 {
	if rc.UserID <= 0 {
		return nil
	}
	id := rc.UserID
	return &id
}
