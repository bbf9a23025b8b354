package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/models"
)

// Backend is the process scoped store handle: opened once at boot and closed on shutdown.
type Backend struct {
	Posts PostStore
	Users UserStore
	Ping  func(ctx context.Context) error
	Close func() error
}

// Open connects the backend selected by cfg.DBDriver.
func Open(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Backend, error) {
	if cfg.DBDriver == config.DriverMongo {
		return openMongo(ctx, cfg, logger)
	}

	db, err := config.InitDatabase(cfg, &models.User{}, &models.Post{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &Backend{
		Posts: NewGormPostStore(db, logger),
		Users: NewGormUserStore(db),
		Ping:  sqlDB.PingContext,
		Close: sqlDB.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Backend, error) {
	client, db, err := config.InitMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
	}
	return &Backend{
		Posts: NewMongoPostStore(db, logger),
		Users: NewMongoUserStore(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: func() error {
			return client.Disconnect(context.Background())
		},
	}, nil
}
