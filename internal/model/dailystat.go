package model

import "time"

// DailyStat aggregates one user's completions for one calendar day.
// Date is always truncated to midnight; (UserID, Date) is unique.
// Streak is authoritative only on the most recent row but is persisted per
// day for audit.
type DailyStat struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         string    `gorm:"index:idx_user_day,unique"`
	Date           time.Time `gorm:"index:idx_user_day,unique"`
	CompletedCount int       `gorm:"default:0"`
	Streak         int       `gorm:"default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
