package value

// Role роль вызывающего по отношению к сделке.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) String() string {
	return string(r)
}
