package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routinelink/internal/model"
)

// UserRepository handles the fixed user set.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", translateErr(err))
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", translateErr(err))
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", translateErr(err))
	}
	return users, nil
}

// Seed ensures the fixed user set exists. Existing users keep their role.
func (r *UserRepository) Seed(ctx context.Context, users []model.User) error {
	db := r.db.WithContext(ctx)
	for i := range users {
		u := users[i]
		var existing model.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		switch {
		case err == nil:
			continue
		case err == gorm.ErrRecordNotFound:
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			if err := db.Create(&u).Error; err != nil {
				return fmt.Errorf("seed user %q: %w", u.Username, err)
			}
		default:
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	return nil
}
