package admin

import "repairflow/auth"

// Account is the administrator's view of a user record.
type Account struct {
	ID       int64
	Login    string
	Role     auth.Role
	FullName string
	Phone    *string
}
