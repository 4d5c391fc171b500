package app

import "errors"

const (
	RoleCashier = "cashier"
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
)

var ErrForbidden = errors.New("forbidden")

// Authorize checks the role carried on the server-side session. Client
// payloads never influence authorization.
func Authorize(id Identity, roles ...string) error {
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
