package users

// UserRepo stores users per tenant. Emails are unique within a tenant.
type UserRepo interface {
	Upsert(user *User) error
	Delete(schemaName, email string) error
	GetByEmail(schemaName, email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(schemaName string, offset, limit int) ([]*User, error)
	SetLastLogin(ID string) error
}
