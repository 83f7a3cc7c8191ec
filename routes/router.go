package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/controllers"
	"github.com/cppla/yatube/events"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// Deps are the long lived resources the HTTP layer is built on.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	// Redis is optional; without it the feed cache and token blacklist stay in process.
	Redis  *redis.Client
	Events events.Publisher
	// Now is the clock for post timestamps and cache freshness; nil means time.Now.
	Now func() time.Time
	// Cache overrides the index feed store picked from Redis.
	Cache utils.CacheStore
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		gl = utils.Logger
	}
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
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
	r.Use(middleware.PageViewRecorder(deps.DB))

	if cfg.MediaRoot != "" && cfg.MediaURLPrefix != "" {
		r.Static(cfg.MediaURLPrefix, cfg.MediaRoot)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	rc := deps.Redis
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	blacklist := utils.NewTokenBlacklist(rc)
	auth := middleware.NewAuthenticator(issuer, blacklist)
	limit := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)
	store := deps.Cache
	if store == nil {
		store = utils.NewCacheStore(rc)
	}
	feedCache := utils.NewFeedCache(store, cfg.IndexCacheTTL, deps.Now)

	users := services.NewUserService(deps.DB)
	follows := services.NewFollowGraph(deps.DB, deps.Events)
	posts := services.NewPostService(deps.DB, deps.Events, deps.Now)
	groups := services.NewGroupService(deps.DB)

	authController := controllers.NewAuthController(users, issuer, blacklist, cfg.IsAdmin)
	feedController := controllers.NewFeedController(services.NewFeedSelector(deps.DB), follows, users, feedCache, config.PageSize)
	followController := controllers.NewFollowController(follows, users)
	postController := controllers.NewPostController(posts, users, cfg.MediaRoot, cfg.MediaURLPrefix)
	groupController := controllers.NewGroupController(groups, cfg.IsAdmin)
	statsController := controllers.NewStatsController(deps.DB)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limit)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", auth.Required(), authController.Logout)
	authGroup.GET("/me", auth.Required(), authController.Me)

	api.GET("/posts", feedController.Index)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/stats", statsController.GetPostStats)
	api.GET("/groups", groupController.ListGroups)
	api.GET("/groups/:slug", groupController.GetGroup)
	api.GET("/group/:slug", feedController.Group)
	api.GET("/profile/:username", auth.Optional(), feedController.Profile)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(auth.Required(), limit)
	protected.GET("/follow", feedController.Subscriptions)
	protected.GET("/following", followController.Following)
	protected.POST("/profile/:username/follow", followController.Follow)
	protected.POST("/profile/:username/unfollow", followController.Unfollow)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/upload", postController.UploadImage)
	protected.POST("/groups", groupController.CreateGroup)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
