package repository

import (
	"context"

	"ideafoundry/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	FindIDByUsername(ctx context.Context, username string) (uint, bool, error)
	FirstID(ctx context.Context) (uint, bool, error)
	ListActiveAuthors(ctx context.Context) ([]*models.User, error)
	UpsertByUsername(ctx context.Context, user *models.User) error
	RecomputePostsCounts(ctx context.Context) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindIDByUsername(ctx context.Context, username string) (uint, bool, error) {
	return r.pluckID(r.db.WithContext(ctx).Where("username = ?", username))
}

func (r *userRepository) FirstID(ctx context.Context) (uint, bool, error) {
	return r.pluckID(r.db.WithContext(ctx).Order("id ASC"))
}

func (r *userRepository) pluckID(q *gorm.DB) (uint, bool, error) {
	var ids []uint
	if err := q.Model(&models.User{}).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (r *userRepository) ListActiveAuthors(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("posts_count DESC").
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// UpsertByUsername inserts user or refreshes the profile columns of the
// existing user with the same username. user.ID is filled either way.
func (r *userRepository) UpsertByUsername(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "bio", "role", "is_active", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return err
	}
	id, _, err := r.pluckID(db.Where("username = ?", user.Username))
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// RecomputePostsCounts sets every user's posts_count from a full aggregate over
// posts. Users without posts are reset to zero. The cost is linear in the
// number of users, so it runs inside the write transaction rather than being
// maintained incrementally.
func (r *userRepository) RecomputePostsCounts(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users SET posts_count = (SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id)`,
	).Error
}
