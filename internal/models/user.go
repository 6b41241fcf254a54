package models

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Address represents a single address entry for a user.
type Address struct {
	ID         string `bson:"id" json:"id"`
	Label      string `bson:"label" json:"label"`
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone" json:"phone"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	IsDefault  bool   `bson:"isDefault" json:"isDefault"`
}

// User represents the application user account. The password hash is never
// rendered to JSON.
type User struct {
	Base      `bson:",inline"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email" gorm:"uniqueIndex;size:191"`
	Phone     string    `bson:"phone" json:"phone"`
	Password  string    `bson:"password" json:"-"`
	Role      string    `bson:"role" json:"role"`
	Status    string    `bson:"status" json:"status"`
	Addresses []Address `bson:"addresses" json:"addresses" gorm:"serializer:json;type:text"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsSuspended treats a missing status as active, matching accounts created
// before statuses existed.
func (u User) IsSuspended() bool { return u.Status == StatusSuspended }
