package domain

// Roles resolved from the policy table. The admin role is a claim keyed by
// user id, never derived from an email comparison.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)
