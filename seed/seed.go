// Package seed fills a store with fake users and posts for local development.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/services"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password"

// Options controls how much data is generated.
type Options struct {
	Users        int
	PostsPerUser int
	// Seed makes the generated content reproducible when non-zero.
	Seed int64
}

// Result lists what was created.
type Result struct {
	Users []*models.User
	Posts []*models.Post
}

// Run registers opts.Users accounts and writes opts.PostsPerUser posts for each,
// going through the services so hashing, tag parsing and ids behave as in production.
func Run(ctx context.Context, auth *services.AuthService, posts *services.PostService, opts Options) (*Result, error) {
	faker := gofakeit.New(opts.Seed)
	res := &Result{}

	for i := 0; i < opts.Users; i++ {
		user, _, err := auth.Register(ctx, services.RegisterInput{
			FullName:  faker.Name(),
			Email:     fmt.Sprintf("%d.%s", i, faker.Email()),
			Password:  DefaultPassword,
			AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", faker.UUID()),
		})
		if err != nil {
			return res, fmt.Errorf("seed user %d: %w", i, err)
		}
		res.Users = append(res.Users, user)

		for j := 0; j < opts.PostsPerUser; j++ {
			post, err := posts.Create(ctx, user.ID, Post(faker))
			if err != nil {
				return res, fmt.Errorf("seed post %d for user %s: %w", j, user.ID, err)
			}
			res.Posts = append(res.Posts, post)
		}
	}
	return res, nil
}

// Post builds a random post payload.
func Post(faker *gofakeit.Faker) services.PostInput {
	tags := make([]string, faker.Number(1, 4))
	for i := range tags {
		tags[i] = strings.ReplaceAll(strings.ToLower(faker.HipsterWord()), " ", "-")
	}
	return services.PostInput{
		Title:    faker.Sentence(5),
		Text:     faker.Paragraph(1, 3, 5, "\n"),
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", faker.UUID()),
		Tags:     strings.Join(tags, ","),
	}
}
