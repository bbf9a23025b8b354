// Package store holds the persistence backends for posts and users.
// Every backend provides the same guarantees: view increments are atomic with
// the read that returns the post, and each mutation is a single store operation.
package store

import (
	"context"
	"errors"

	"github.com/cppla/blogapi/models"
)

var (
	// ErrNotFound is returned when no document matches the requested id.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint (user email) is violated.
	ErrDuplicate = errors.New("store: duplicate key")
)

// SortField names a sortable post attribute.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByViews     SortField = "viewsCount"
)

// Sort orders a post query. Ties are always broken by id ascending.
type Sort struct {
	Field SortField
	Desc  bool
}

// FindQuery describes a post listing.
type FindQuery struct {
	Sort Sort
	// Limit <= 0 means no limit.
	Limit int
	// WithAuthors resolves each post's author. Resolution failures leave User nil.
	WithAuthors bool
}

// PostFields is the full set of fields overwritten by an update.
type PostFields struct {
	Title    string
	Text     string
	ImageURL string
	Tags     []string
	UserID   string
}

// PostStore is the document collection backing posts.
type PostStore interface {
	Find(ctx context.Context, q FindQuery) ([]models.Post, error)
	// IncrementViews atomically adds one to viewsCount and returns the post after the increment.
	IncrementViews(ctx context.Context, id string) (*models.Post, error)
	// Insert persists a new post and assigns its id.
	Insert(ctx context.Context, post *models.Post) error
	// Replace overwrites the editable fields and returns the number of matched posts.
	Replace(ctx context.Context, id string, fields PostFields) (int64, error)
	Delete(ctx context.Context, id string) error
}

// UserStore is the collection backing users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

func column(field SortField) string {
	switch field {
	case SortByViews:
		return "views_count"
	default:
		return "created_at"
	}
}

func authorIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.UserID != "" {
			ids = append(ids, p.UserID)
		}
	}
	return uniqueStrings(ids)
}

func attachAuthors(posts []models.Post, users []models.User) {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range posts {
		if u, ok := byID[posts[i].UserID]; ok {
			u := u
			posts[i].User = &u
		}
	}
}

// uniqueStrings removes duplicate values while keeping first-seen order.
func uniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
