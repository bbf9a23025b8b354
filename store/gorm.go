package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogapi/models"
)

// GormPostStore keeps posts in a relational database through gorm.
type GormPostStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormPostStore creates a post store over db.
func NewGormPostStore(db *gorm.DB, logger *zap.Logger) *GormPostStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormPostStore{db: db, logger: logger}
}

func (s *GormPostStore) Find(ctx context.Context, q FindQuery) ([]models.Post, error) {
	tx := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column(q.Sort.Field)}, Desc: q.Sort.Desc}).
		Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	posts := []models.Post{}
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	if q.WithAuthors {
		s.resolveAuthors(ctx, posts)
	}
	return posts, nil
}

// IncrementViews runs the increment and the read back in one transaction.
// The UPDATE takes the row lock, so concurrent viewers are serialised and each
// observes its own value.
func (s *GormPostStore) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", id).
			UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).Take(&post).Error
	})
	if err != nil {
		return nil, err
	}

	posts := []models.Post{post}
	s.resolveAuthors(ctx, posts)
	return &posts[0], nil
}

func (s *GormPostStore) Insert(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *GormPostStore) Replace(ctx context.Context, id string, fields PostFields) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Select("title", "text", "image_url", "tags", "user_id", "updated_at").
		Updates(&models.Post{
			Title:     fields.Title,
			Text:      fields.Text,
			ImageURL:  fields.ImageURL,
			Tags:      fields.Tags,
			UserID:    fields.UserID,
			UpdatedAt: time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *GormPostStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// resolveAuthors loads the authors of posts in one query. It is a read-only
// join: on failure the posts keep their bare author ids.
func (s *GormPostStore) resolveAuthors(ctx context.Context, posts []models.Post) {
	ids := authorIDs(posts)
	if len(ids) == 0 {
		return
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		s.logger.Warn("resolve post authors failed", zap.Int("authors", len(ids)), zap.Error(err))
		return
	}
	attachAuthors(posts, users)
}

// GormUserStore keeps users in a relational database through gorm.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore creates a user store over db.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.take(ctx, "id = ?", id)
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.take(ctx, "email = ?", email)
}

func (s *GormUserStore) take(ctx context.Context, cond string, arg string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(cond, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
