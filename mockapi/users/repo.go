package users

import "time"

// UserRepo stores mock backend users. Field updates go through the narrow
// setters so concurrent writers never overwrite each other with stale copies.
type UserRepo interface {
	Upsert(user *User) error
	Delete(email string) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(offset, limit int) ([]*User, error)
	SetBlocked(email string, blocked bool) error
	SetPasswordHash(ID, hash string) error
	RecordLogin(ID string, at time.Time) error
}
