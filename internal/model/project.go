package model

import "time"

// Project groups tasks. A nil OwnerID marks a shared project visible to all
// users; shared projects are mutable only by an admin.
type Project struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Color     string  `gorm:"default:#6366f1"`
	OwnerID   *string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:ProjectID"`
}

// IsShared reports whether the project belongs to every user.
func (p *Project) IsShared() bool {
	return p.OwnerID == nil
}

// VisibleTo reports whether the user may see the project.
func (p *Project) VisibleTo(u *User) bool {
	return p.IsShared() || *p.OwnerID == u.ID || u.IsAdmin()
}
