package model

// User is the slice of an identity the core needs: owners and approvers are
// referenced by ID and only their existence is checked.
type User struct {
	ID       int64
	FullName string
	Email    string
	Role     string
}
