package enums

// SystemRole is the platform-wide role carried on users and access tokens.
type SystemRole string

const (
	SystemRoleAdmin    SystemRole = "admin"
	SystemRoleCustomer SystemRole = "customer"
)

func (r SystemRole) String() string {
	return string(r)
}
