package models

import "time"

// Admin is a dedicated back-office account, independent from User.
type Admin struct {
	ID        int64     `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (a *Admin) HashPassword() error {
	hashed, err := hashPassword(a.Password)
	if err != nil {
		return err
	}
	a.Password = hashed
	return nil
}

func (a *Admin) ComparePassword(candidate string) bool {
	return comparePassword(a.Password, candidate)
}
