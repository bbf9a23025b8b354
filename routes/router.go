package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/controllers"
	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// Deps are the process scoped collaborators the HTTP layer is built from.
type Deps struct {
	Config    config.AppConfig
	Posts     *services.PostService
	Auth      *services.AuthService
	Blacklist *utils.TokenBlacklist
	Metrics   *middleware.Metrics
	// Ping checks the store for /health. Optional.
	Ping func(ctx context.Context) error
}

// SetupRouter wires routes, middlewares, and controllers. The returned func
// flushes and closes the access log; register it as a shutdown hook.
func SetupRouter(deps Deps) (*gin.Engine, func() error) {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	logHandlers, closeLog := accessLog(cfg)
	r.Use(logHandlers...)

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", func(ctx *gin.Context) {
		if deps.Ping != nil {
			if err := deps.Ping(ctx.Request.Context()); err != nil {
				utils.Sugar.Warnf("health check failed: %v", err)
				utils.Error(ctx, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.Static(controllers.UploadsURLPrefix, cfg.UploadDir)

	authController := controllers.NewAuthController(deps.Auth, deps.Blacklist)
	postController := controllers.NewPostController(deps.Posts, deps.Metrics)
	uploadController := controllers.NewUploadController(cfg.UploadDir, cfg.UploadMaxMB)
	requireAuth := middleware.AuthRequired(deps.Blacklist)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", requireAuth, authController.Me)
	authGroup.POST("/logout", requireAuth, authController.Logout)

	r.POST("/upload", requireAuth, uploadController.UploadImage)
	r.POST("/upload/avatar", requireAuth, uploadController.UploadAvatar)

	r.GET("/tags", postController.LastTags)

	postsGroup := r.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/tags", postController.LastTags)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.POST("", requireAuth, postController.CreatePost)
	postsGroup.PATCH("/:id", requireAuth, postController.UpdatePost)
	postsGroup.DELETE("/:id", requireAuth, postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "route not found")
	})

	return r, closeLog
}

// accessLog writes requests and recovered panics to the rolling gin log, or
// to the application logger when no gin log path is configured.
func accessLog(cfg config.AppConfig) ([]gin.HandlerFunc, func() error) {
	logger := utils.Logger
	closeLog := func() error { return nil }
	if cfg.GinPath != "" {
		gl, closeFn, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin log %s unavailable, using application logger: %v", cfg.GinPath, err)
		} else {
			logger, closeLog = gl, closeFn
		}
	}
	return []gin.HandlerFunc{
		ginzap.GinzapWithConfig(logger, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/health", "/metrics"},
			Context: func(c *gin.Context) []zap.Field {
				if id := middleware.UserID(c); id != "" {
					return []zap.Field{zap.String("user_id", id)}
				}
				return nil
			},
		}),
		ginzap.RecoveryWithZap(logger, true),
	}, closeLog
}
