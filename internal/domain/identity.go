package domain

// Role is the marketplace side an account acts on
type Role string

const (
	RoleSeller Role = "seller" // student inventor
	RoleBuyer  Role = "buyer"  // business user
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleSeller || r == RoleBuyer
}

// Identity is the active actor as supplied by the identity provider.
// It is trusted as-is; no authentication happens below the middleware.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
