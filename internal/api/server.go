package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/richmontato/eznews2/internal/api/auth"
	"github.com/richmontato/eznews2/internal/api/middleware"
	"github.com/richmontato/eznews2/internal/config"
	"github.com/richmontato/eznews2/internal/model"
	"github.com/richmontato/eznews2/internal/pkg/metrics"
	"github.com/richmontato/eznews2/internal/pkg/notify"
	"github.com/richmontato/eznews2/internal/pkg/ratelimit"
	"github.com/richmontato/eznews2/internal/pkg/summary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端、摘要服务客户端以及 Gin 路由引擎。
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *gorm.DB
	rdb        *redis.Client
	router     *gin.Engine
	auth       *auth.Handler
	summarizer *summary.Client
	limiter    *ratelimit.RateLimiter
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis（未配置地址时跳过，限流随之关闭）
// 3. 初始化摘要服务客户端与 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
	})
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, err
		}
	}

	return NewServerWithDB(cfg, logger, db, rdb)
}

// NewServerWithDB 用已有的数据库连接初始化服务器，供测试复用。
func NewServerWithDB(cfg *config.Config, logger *slog.Logger, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Tag{},
		&model.Article{},
		&model.Bookmark{},
		&model.AdminLog{},
	); err != nil {
		return nil, err
	}

	emailNotifier := notify.NewEmailNotifier(&cfg.Email, logger)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		rdb:        rdb,
		router:     r,
		auth:       auth.NewHandler(db, cfg.Security.JWTSecret, cfg.Security.TokenTTL, emailNotifier, logger),
		summarizer: summary.NewClient(&cfg.Summary, logger),
	}
	if rdb != nil {
		s.limiter = ratelimit.NewRedisRateLimiter(rdb, logger, "eznews:auth", cfg.App.RateLimit, cfg.App.RateBurst)
	}
	s.registerRoutes()
	return s, nil
}

// Run 启动 HTTP 服务器并开始监听请求。
func (s *Server) Run() error {
	s.logger.Info("api server listening", slog.String("addr", s.cfg.App.HTTPAddr))
	return s.router.Run(s.cfg.App.HTTPAddr)
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)

	requireAuth := middleware.AuthMiddleware(s.db, s.cfg.Security.JWTSecret)
	optionalAuth := middleware.OptionalAuthMiddleware(s.db, s.cfg.Security.JWTSecret)
	throttle := middleware.Throttle(s.limiter, s.logger)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.auth.Register)
	authGroup.POST("/login", throttle, s.auth.Login)
	authGroup.POST("/forgot-password", throttle, s.auth.ForgotPassword)
	authGroup.POST("/reset-password", s.auth.ResetPassword)
	authGroup.GET("/me", requireAuth, s.auth.Me)

	articles := api.Group("/articles")
	articles.GET("", optionalAuth, s.handleListArticles)
	articles.GET("/:id", optionalAuth, s.handleGetArticle)
	articles.GET("/:id/export", requireAuth, s.handleExportArticle)
	articles.POST("", requireAuth, middleware.AdminOnly(), s.handleCreateArticle)
	articles.PUT("/:id", requireAuth, middleware.AdminOnly(), s.handleUpdateArticle)
	articles.DELETE("/:id", requireAuth, middleware.AdminOnly(), s.handleDeleteArticle)

	api.POST("/summarize", requireAuth, s.handleSummarize)

	categories := api.Group("/categories")
	categories.GET("", s.handleListCategories)
	categories.POST("", requireAuth, middleware.AdminOnly(), s.handleCreateCategory)
	categories.PUT("/:id", requireAuth, middleware.AdminOnly(), s.handleUpdateCategory)
	categories.DELETE("/:id", requireAuth, middleware.AdminOnly(), s.handleDeleteCategory)

	tags := api.Group("/tags")
	tags.GET("", s.handleListTags)
	tags.POST("", requireAuth, middleware.AdminOnly(), s.handleCreateTag)
	tags.PUT("/:id", requireAuth, middleware.AdminOnly(), s.handleUpdateTag)
	tags.DELETE("/:id", requireAuth, middleware.AdminOnly(), s.handleDeleteTag)

	bookmarks := api.Group("/bookmarks", requireAuth)
	bookmarks.GET("", s.handleListBookmarks)
	bookmarks.POST("", s.handleAddBookmark)
	bookmarks.DELETE("/:article_id", s.handleRemoveBookmark)

	users := api.Group("/users", requireAuth)
	users.GET("/profile", s.handleGetProfile)
	users.PUT("/profile", s.handleUpdateProfile)
	users.PUT("/password", s.handleChangePassword)
	users.GET("", middleware.AdminOnly(), s.handleListUsers)
	users.DELETE("/:id", middleware.AdminOnly(), s.handleDeleteUser)
}

// handleHealth 检查数据库连通性。
func (s *Server) handleHealth(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseQueryInt 解析查询参数为整数，缺省时返回默认值。
func parseQueryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
