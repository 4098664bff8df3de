package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routinelink/internal/model"
)

// StatRepository persists per-(user, day) completion aggregates. The
// (user_id, date) unique index plus upsert-on-conflict keeps the row count
// at one per day no matter how requests interleave.
type StatRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) *StatRepository {
	return &StatRepository{db: db}
}

// IncrementDailyStat atomically adds delta to the row's completed count,
// creating the row on first completion of the day. The count is floored at
// zero so racing double-uncompletes can never drive it negative.
func (r *StatRepository) IncrementDailyStat(ctx context.Context, userID string, day time.Time, delta int) (*model.DailyStat, error) {
	day = model.StartOfDay(day)

	initial := delta
	if initial < 0 {
		initial = 0
	}
	stat := model.DailyStat{UserID: userID, Date: day, CompletedCount: initial}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed_count": gorm.Expr("MAX(completed_count + ?, 0)", delta),
			"updated_at":      time.Now(),
		}),
	}).Create(&stat).Error
	if err != nil {
		return nil, fmt.Errorf("upsert daily stat: %w", translateErr(err))
	}

	// Re-read: on the conflict path the in-memory struct does not reflect
	// the incremented count.
	var updated model.DailyStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day).
		First(&updated).Error; err != nil {
		return nil, fmt.Errorf("reload daily stat: %w", translateErr(err))
	}
	return &updated, nil
}

// UpdateStreak writes the recomputed streak onto the given day's row.
func (r *StatRepository) UpdateStreak(ctx context.Context, userID string, day time.Time, streakLen int) error {
	day = model.StartOfDay(day)
	err := r.db.WithContext(ctx).Model(&model.DailyStat{}).
		Where("user_id = ? AND date = ?", userID, day).
		Update("streak", streakLen).Error
	if err != nil {
		return fmt.Errorf("update streak: %w", translateErr(err))
	}
	return nil
}

// ListRecent returns up to limit rows for the user, newest first.
func (r *StatRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("list recent stats: %w", translateErr(err))
	}
	return stats, nil
}

// ListRange returns the user's rows in [from, to], oldest first.
func (r *StatRepository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, model.StartOfDay(from), model.EndOfDay(to)).
		Order("date ASC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("list stats range: %w", translateErr(err))
	}
	return stats, nil
}

// Latest returns the user's most recent row, which carries the
// authoritative streak value. Returns ErrNotFound when the user has no
// history at all.
func (r *StatRepository) Latest(ctx context.Context, userID string) (*model.DailyStat, error) {
	var stat model.DailyStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		First(&stat).Error; err != nil {
		return nil, fmt.Errorf("latest stat: %w", translateErr(err))
	}
	return &stat, nil
}

// ResetStreaks zeroes the streak column on every row. Administrative.
func (r *StatRepository) ResetStreaks(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Model(&model.DailyStat{}).
		Where("user_id = ?", userID).
		Update("streak", 0).Error
	if err != nil {
		return fmt.Errorf("reset streaks: %w", translateErr(err))
	}
	return nil
}

// DeleteDay removes the row for one calendar day. Administrative.
func (r *StatRepository) DeleteDay(ctx context.Context, userID string, day time.Time) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, model.StartOfDay(day)).
		Delete(&model.DailyStat{}).Error
	if err != nil {
		return fmt.Errorf("delete day stat: %w", translateErr(err))
	}
	return nil
}

// DeleteAll removes the user's entire stat history. Administrative.
func (r *StatRepository) DeleteAll(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.DailyStat{}).Error
	if err != nil {
		return fmt.Errorf("delete all stats: %w", translateErr(err))
	}
	return nil
}
