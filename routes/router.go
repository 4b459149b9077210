package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/controllers"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/repositories"
	"github.com/yatube/yatube/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cache *utils.Cache) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace the default console logger with the file-based zap logger.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	userRepo := repositories.NewUserRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	postRepo := repositories.NewPostRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	followRepo := repositories.NewFollowRepository(db)

	authController := controllers.NewAuthController(userRepo)
	postController := controllers.NewPostController(postRepo, groupRepo, userRepo, commentRepo, followRepo)
	followController := controllers.NewFollowController(followRepo, userRepo, postRepo)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	// The global feed is the only cached route. Cached entries are keyed by
	// the full request URI and expire by TTL alone.
	feedCacheTTL := time.Duration(cfg.FeedCacheSeconds) * time.Second
	r.GET("/", middleware.CachePage(cache, feedCacheTTL), postController.GlobalFeed)

	r.GET("/group/:slug", postController.GroupFeed)
	r.GET("/profile/:username", middleware.OptionalAuth(), postController.Profile)
	r.GET("/posts/:id", postController.PostDetail)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	// Redirect target for unauthenticated page actions.
	authGroup.GET("/login/", func(ctx *gin.Context) {
		utils.Respond(ctx, 200, 40100, "login required", gin.H{"next": ctx.Query("next")})
	})

	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/follow", followController.FollowFeed)
	protected.POST("/profile/:username/follow", followController.Follow)
	protected.POST("/profile/:username/unfollow", followController.Unfollow)
	protected.POST("/posts", postController.CreatePost)
	protected.POST("/posts/:id/edit", postController.UpdatePost)
	protected.POST("/posts/:id/delete", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/comments/:commentId/delete", postController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.NotFound(ctx)
	})

	return r
}
