package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/models"
)

// setupTestDB opens a private in-memory SQLite database through the production init path.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.InitDatabase(config.AppConfig{
		DBDriver:    config.DriverSQLite,
		DatabaseURI: ":memory:",
		LogLevel:    "error",
	}, &models.User{}, &models.Post{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func seedUser(t *testing.T, users *GormUserStore, name string) *models.User {
	t.Helper()
	u := &models.User{FullName: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedPost(t *testing.T, posts *GormPostStore, author string, views int64, createdAt time.Time, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:      fmt.Sprintf("post %d", views),
		Text:       "body",
		Tags:       tags,
		ViewsCount: views,
		UserID:     author,
		CreatedAt:  createdAt,
	}
	require.NoError(t, posts.Insert(context.Background(), p))
	return p
}

func TestGormIncrementViewsSequential(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	users := NewGormUserStore(db)
	author := seedUser(t, users, "ada")
	p := seedPost(t, posts, author.ID, 5, time.Now().UTC())

	first, err := posts.IncrementViews(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, first.ViewsCount)
	require.NotNil(t, first.User)
	assert.Equal(t, "ada", first.User.FullName)

	second, err := posts.IncrementViews(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, second.ViewsCount)

	_, err = posts.IncrementViews(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormIncrementViewsConcurrent(t *testing.T) {
	const n = 25
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	p := seedPost(t, posts, "someone", 0, time.Now().UTC())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		seen     []int64
		failures []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := posts.IncrementViews(context.Background(), p.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			seen = append(seen, got.ViewsCount)
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	require.Len(t, seen, n)
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, v := range seen {
		assert.EqualValues(t, i+1, v, "every viewer observes a distinct value")
	}
}

func TestGormFindOrdering(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := seedPost(t, posts, "a", 10, base, "old")
	newer := seedPost(t, posts, "a", 1, base.Add(time.Hour), "new")
	middle := seedPost(t, posts, "a", 5, base.Add(30*time.Minute), "mid")

	byDate, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByCreatedAt, Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, middle.ID, older.ID}, ids(byDate))

	byViews, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByViews, Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{older.ID, middle.ID, newer.ID}, ids(byViews))

	leastViewed, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByViews}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, middle.ID}, ids(leastViewed))
	assert.Equal(t, []string{"new"}, leastViewed[0].Tags)
}

func TestGormFindTieBreakByID(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, posts.Insert(context.Background(), &models.Post{ID: id, Title: id, Text: id, UserID: "u", CreatedAt: at}))
	}

	got, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByViews, Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestGormFindResolvesAuthors(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	users := NewGormUserStore(db)
	author := seedUser(t, users, "grace")
	seedPost(t, posts, author.ID, 0, time.Now().UTC())
	seedPost(t, posts, "deleted-user", 1, time.Now().UTC())

	got, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByViews}, WithAuthors: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].User)
	assert.Equal(t, author.ID, got[0].User.ID)
	assert.Nil(t, got[1].User, "unknown authors keep the bare id")
	assert.Equal(t, "deleted-user", got[1].UserID)

	plain, err := posts.Find(context.Background(), FindQuery{Sort: Sort{Field: SortByViews}})
	require.NoError(t, err)
	assert.Nil(t, plain[0].User)
}

func TestGormReplace(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := seedPost(t, posts, "first-author", 3, created, "a", "b")
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p.ID).Update("image_url", "/uploads/old.png").Error)

	matched, err := posts.Replace(context.Background(), p.ID, PostFields{
		Title:  "new title",
		Text:   "new text",
		Tags:   []string{"c"},
		UserID: "second-author",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)

	var stored models.Post
	require.NoError(t, db.Where("id = ?", p.ID).Take(&stored).Error)
	assert.Equal(t, "new title", stored.Title)
	assert.Equal(t, "new text", stored.Text)
	assert.Equal(t, []string{"c"}, stored.Tags)
	assert.Empty(t, stored.ImageURL)
	assert.Equal(t, "second-author", stored.UserID)
	assert.EqualValues(t, 3, stored.ViewsCount, "views survive an update")
	assert.True(t, stored.CreatedAt.Equal(created))

	matched, err = posts.Replace(context.Background(), "missing", PostFields{Title: "x"})
	require.NoError(t, err)
	assert.Zero(t, matched)
}

func TestGormDelete(t *testing.T) {
	db := setupTestDB(t)
	posts := NewGormPostStore(db, nil)
	p := seedPost(t, posts, "a", 0, time.Now().UTC())

	require.NoError(t, posts.Delete(context.Background(), p.ID))
	_, err := posts.IncrementViews(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, posts.Delete(context.Background(), p.ID), ErrNotFound)
}

func TestGormUserStore(t *testing.T) {
	db := setupTestDB(t)
	users := NewGormUserStore(db)
	ada := seedUser(t, users, "ada")
	assert.NotEmpty(t, ada.ID)

	byID, err := users.FindByID(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	byEmail, err := users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byEmail.ID)

	_, err = users.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = users.Create(context.Background(), &models.User{FullName: "copy", Email: "ada@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
