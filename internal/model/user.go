package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is one of the fixed set of tracker users.
type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Role      string `gorm:"default:member"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
