package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMarshalJSON(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	post := Post{
		ID:         "p1",
		Title:      "Title",
		Text:       "Body",
		Tags:       []string{"go", ""},
		ViewsCount: 3,
		ImageURL:   "/uploads/a.png",
		UserID:     "u1",
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	t.Run("unresolved author is the bare id", func(t *testing.T) {
		raw, err := json.Marshal(post)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "p1", got["_id"])
		assert.Equal(t, "u1", got["user"])
		assert.Equal(t, []any{"go", ""}, got["tags"])
		assert.EqualValues(t, 3, got["viewsCount"])
		assert.Equal(t, "/uploads/a.png", got["imageUrl"])
		assert.Equal(t, "2024-05-06T07:08:09Z", got["createdAt"])
		assert.NotContains(t, got, "UserID")
	})

	t.Run("resolved author is the user document", func(t *testing.T) {
		withUser := post
		withUser.User = &User{ID: "u1", FullName: "Ada", Email: "ada@example.com", PasswordHash: "secret-hash"}
		raw, err := json.Marshal(&withUser)
		require.NoError(t, err)

		var got struct {
			User map[string]any `json:"user"`
		}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "u1", got.User["_id"])
		assert.Equal(t, "Ada", got.User["fullName"])
		assert.NotContains(t, got.User, "passwordHash")
		assert.NotContains(t, string(raw), "secret-hash")
	})
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	p := &Post{}
	require.NoError(t, p.BeforeCreate(nil))
	assert.Len(t, p.ID, 36)

	keep := &Post{ID: "fixed"}
	require.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)

	u := &User{}
	require.NoError(t, u.BeforeCreate(nil))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}
