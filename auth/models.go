package auth

// Role enumerates the user roles known to the system.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleOperator      Role = "operator"
	RoleMaster        Role = "master"
	RoleClient        Role = "client"
)

// ValidRole reports whether the role belongs to the fixed enumerated set.
func ValidRole(role Role) bool {
	switch role {
	case RoleAdministrator, RoleManager, RoleOperator, RoleMaster, RoleClient:
		return true
	default:
		return false
	}
}

// User is the domain representation of a stored user account.
// It mirrors the users table and carries no JSON annotations so it can be
// reused by different presentation layers.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	FullName     string
	Phone        *string
}

// Identity is the result of a successful authentication: who the caller is
// and which role applies to them.
type Identity struct {
	UserID   int64
	Role     Role
	FullName string
}

// RegisterClientParams contains client registration data supplied by callers.
type RegisterClientParams struct {
	FullName string
	Phone    string
	Login    string
	Password string
}
