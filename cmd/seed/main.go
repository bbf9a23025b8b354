package main

import (
	"context"
	"flag"
	"time"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/seed"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

func main() {
	users := flag.Int("users", 5, "number of users to create")
	posts := flag.Int("posts", 4, "posts per user")
	seedValue := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := store.Open(ctx, cfg, utils.Logger)
	if err != nil {
		utils.Sugar.Fatalf("open %s store: %v", cfg.DBDriver, err)
	}
	defer func() { _ = backend.Close() }()

	auth := services.NewAuthService(backend.Users, utils.GenerateToken, time.Duration(cfg.TokenTTLHours)*time.Hour, utils.Logger)
	res, err := seed.Run(ctx, auth, services.NewPostService(backend.Posts, utils.Logger), seed.Options{
		Users:        *users,
		PostsPerUser: *posts,
		Seed:         *seedValue,
	})
	if err != nil {
		utils.Sugar.Errorf("seeding stopped: %v", err)
	}
	utils.Sugar.Infof("seeded %d users and %d posts (password %q)", len(res.Users), len(res.Posts), seed.DefaultPassword)
}
