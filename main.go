package main

import (
	"context"
	"time"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/routes"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	backend, err := store.Open(context.Background(), cfg, utils.Logger)
	if err != nil {
		utils.Sugar.Fatalf("open %s store: %v", cfg.DBDriver, err)
	}
	utils.Sugar.Infof("connected to %s store", cfg.DBDriver)

	rc, _ := utils.NewRedis(cfg)
	blacklist := utils.NewTokenBlacklist(rc)

	r, closeAccessLog := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		Posts:     services.NewPostService(backend.Posts, utils.Logger.Named("posts")),
		Auth:      services.NewAuthService(backend.Users, utils.GenerateToken, time.Duration(cfg.TokenTTLHours)*time.Hour, utils.Logger.Named("auth")),
		Blacklist: blacklist,
		Metrics:   middleware.NewMetrics("blogapi"),
		Ping:      backend.Ping,
	})

	srv := utils.NewGraceServer(":"+cfg.AppPort, r)
	srv.OnShutdown(backend.Close)
	srv.OnShutdown(closeAccessLog)
	if rc != nil {
		srv.OnShutdown(rc.Close)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		_ = backend.Close()
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
