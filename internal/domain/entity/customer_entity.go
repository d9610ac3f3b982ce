package entity

import "time"

// Role of a customer profile.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// UserType distinguishes individuals from companies.
type UserType string

const (
	UserTypeIndividual UserType = "individual"
	UserTypeCompany    UserType = "company"
)

// Customer is the one-to-one profile extension of a User.
// CompanyName and ICE are only meaningful when UserType is company.
type Customer struct {
	ID          int64
	UserID      int64
	Role        Role
	UserType    UserType
	Phone       *string
	Address     *string
	CompanyName *string
	ICE         *string
	IsApproved  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName renders the profile for listings: the company name for
// companies that have one, otherwise the owner's full name or username.
func (c *Customer) DisplayName(owner *User) string {
	if c.UserType == UserTypeCompany && c.CompanyName != nil && *c.CompanyName != "" {
		return *c.CompanyName + " (" + owner.Username + ")"
	}
	if name := owner.FullName(); name != "" {
		return name
	}
	return owner.Username
}
