package domain

// Actor is the authenticated identity performing an operation, as carried in
// the request token.
type Actor struct {
	AccountNumber string
	Role          AccountRole
}

// IsAdmin reports whether the actor holds the administrative identity.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the owner of the given account.
func (a Actor) Owns(accountNumber string) bool {
	return a.AccountNumber == accountNumber
}
