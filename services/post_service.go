package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
)

// Sort selectors accepted by List.
const (
	SortNew     = "new"
	SortPopular = "popular"
)

const (
	// tagSamplePosts is how many of the least viewed posts feed RecentTags.
	tagSamplePosts = 5
	// tagSampleLimit caps the number of tags RecentTags returns.
	tagSampleLimit = 7
)

// PostInput is the client supplied field set shared by create and update.
// Tags is the raw comma separated string.
type PostInput struct {
	Title    string
	Text     string
	ImageURL string
	Tags     string
}

// PostService implements post listing, retrieval, tag sampling and mutations.
// Each operation maps to exactly one store call.
type PostService struct {
	posts  store.PostStore
	logger *zap.Logger
	now    func() time.Time
}

// NewPostService creates a PostService over the given store.
func NewPostService(posts store.PostStore, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{posts: posts, logger: logger, now: time.Now}
}

// List returns every post, most viewed first for "popular" and newest first otherwise.
func (s *PostService) List(ctx context.Context, sortBy string) ([]models.Post, error) {
	sort := store.Sort{Field: store.SortByCreatedAt, Desc: true}
	if sortBy == SortPopular {
		sort = store.Sort{Field: store.SortByViews, Desc: true}
	}
	posts, err := s.posts.Find(ctx, store.FindQuery{Sort: sort, WithAuthors: true})
	if err != nil {
		return nil, s.fail("list", err, zap.String("sort_by", sortBy))
	}
	return posts, nil
}

// Get increments the post's view counter and returns the post after the increment.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, s.fail("get", err, zap.String("post_id", id))
	}
	return post, nil
}

// RecentTags flattens the tags of the least viewed posts, in view order then
// per-post tag order, keeping duplicates.
func (s *PostService) RecentTags(ctx context.Context) ([]string, error) {
	posts, err := s.posts.Find(ctx, store.FindQuery{
		Sort:  store.Sort{Field: store.SortByViews, Desc: false},
		Limit: tagSamplePosts,
	})
	if err != nil {
		return nil, s.fail("tags", err)
	}

	tags := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if len(tags) == tagSampleLimit {
				return tags, nil
			}
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// Create persists a new post authored by authorID.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (*models.Post, error) {
	post := &models.Post{
		Title:      in.Title,
		Text:       in.Text,
		ImageURL:   in.ImageURL,
		Tags:       ParseTags(in.Tags),
		ViewsCount: 0,
		UserID:     authorID,
		CreatedAt:  s.now(),
	}
	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, s.fail("create", err, zap.String("author_id", authorID))
	}
	return post, nil
}

// Update overwrites title, text, imageUrl, tags and author of the post.
// Fields missing from in are cleared, not preserved.
func (s *PostService) Update(ctx context.Context, id, authorID string, in PostInput) error {
	matched, err := s.posts.Replace(ctx, id, store.PostFields{
		Title:    in.Title,
		Text:     in.Text,
		ImageURL: in.ImageURL,
		Tags:     ParseTags(in.Tags),
		UserID:   authorID,
	})
	if err != nil {
		return s.fail("update", err, zap.String("post_id", id))
	}
	if matched == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Delete removes the post. Uploaded images are left in place.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPostNotFound
		}
		return s.fail("delete", err, zap.String("post_id", id))
	}
	return nil
}

// ParseTags splits raw on commas without trimming or dropping empty segments,
// so an empty string yields a single empty tag.
func ParseTags(raw string) []string {
	return strings.Split(raw, ",")
}

func (s *PostService) fail(op string, err error, fields ...zap.Field) error {
	s.logger.Error("post store operation failed",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return fmt.Errorf("%w: %s", ErrStoreFailure, op)
}
