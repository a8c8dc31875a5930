package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/config"
	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/campusbridge/marketplace-backend/internal/handler"
	"github.com/campusbridge/marketplace-backend/internal/middleware"
	"github.com/campusbridge/marketplace-backend/internal/migration"
	"github.com/campusbridge/marketplace-backend/internal/repository"
	"github.com/campusbridge/marketplace-backend/internal/routes"
	"github.com/campusbridge/marketplace-backend/internal/service"
	"github.com/campusbridge/marketplace-backend/internal/ws"
	pkgcache "github.com/campusbridge/marketplace-backend/pkg/cache"
	"github.com/campusbridge/marketplace-backend/pkg/jwt"
	pkglogger "github.com/campusbridge/marketplace-backend/pkg/logger"
	pkgredis "github.com/campusbridge/marketplace-backend/pkg/redis"
	"github.com/campusbridge/marketplace-backend/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	logger := *pkglogger.GetLogger()
	driver := storage.NormalizeDriver(cfg.Storage.Driver)

	// 상품 DB (products + kv_entries)
	db, err := initDB(cfg, driver)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedDemo(db); err != nil {
			pkglogger.Warn("Seed warning: %v", err)
		}
	}

	// Redis 연결 (선택)
	var redisClient *redis.Client
	if cfg.Redis.Enabled || driver == storage.DriverRedis {
		redisClient, err = pkgredis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
		)
		if err != nil {
			if driver == storage.DriverRedis {
				log.Fatalf("Redis storage selected but unavailable: %v", err)
			}
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}

	// 영속 저장소
	store, err := openStore(cfg, driver, db, redisClient)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", driver, err)
	}
	pkglogger.Info("State storage driver: %s", driver)

	// Repositories
	ctx := context.Background()
	msgRepo, err := repository.NewMessageRepository(ctx, store, pkglogger.WithComponent("messages"))
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}
	collabRepo, err := repository.NewCollaborationRepository(ctx, store, pkglogger.WithComponent("collaborations"))
	if err != nil {
		log.Fatalf("Failed to load collaborations: %v", err)
	}
	productRepo := repository.NewProductRepository(db)
	var cacheService pkgcache.Service
	if redisClient != nil {
		cacheService = pkgcache.NewService(redisClient)
		productRepo = repository.NewCachedProductRepository(productRepo, cacheService, cfg.Cache.ProductTTL)
		pkglogger.Info("Product cache enabled")
	}

	// Services + event bus
	bus := event.NewBus(pkglogger.WithComponent("eventbus"))
	messageService := service.NewMessageService(msgRepo, bus, pkglogger.WithComponent("messages"))
	collabService := service.NewCollaborationService(collabRepo, productRepo, bus, pkglogger.WithComponent("collaborations"))
	service.NewNotificationBridge(messageService, productRepo, pkglogger.WithComponent("bridge")).Register(bus)

	// WebSocket Hub
	wsHub := ws.NewHub(redisClient, pkgredis.ChannelName(cfg.Storage.KeyPrefix, "inbox"), pkglogger.WithComponent("ws"))
	wsHub.Attach(bus)
	go wsHub.Run()

	for topic, subs := range bus.Subscriptions() {
		logger.Debug().Str("topic", topic).Strs("subscribers", subs).Msg("event subscriptions")
	}

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Gin 라우터 생성
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS 설정
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.HeaderUserID, middleware.HeaderUserName, middleware.HeaderUserRole},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	// Middleware
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		if cacheService != nil {
			redisStatus = "ok"
			if err := cacheService.Ping(c.Request.Context()); err != nil {
				redisStatus = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "marketplace-backend",
			"storage": driver,
			"redis":   redisStatus,
			"time":    time.Now().Unix(),
		})
	})

	routes.Setup(router, routes.Handlers{
		Message:       handler.NewMessageHandler(messageService, cfg.Location()),
		Collaboration: handler.NewCollaborationHandler(collabService),
		WS:            handler.NewWSHandler(wsHub, cfg.CORS.AllowOrigins),
	}, routes.Middleware{
		Auth:        middleware.Identity(jwtManager, cfg.Auth.TrustHeaders),
		RequireRole: middleware.RequireRole,
		WriteLimit:  middleware.RateLimit(redisClient, middleware.WriteRateLimitConfig()),
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	// 서버 시작
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		pkglogger.Info("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	pkglogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error("Server forced to shutdown: %v", err)
	}
	wsHub.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// openStore selects the key-value backend the message log and collaborations persist to
func openStore(cfg *config.Config, driver string, db *gorm.DB, redisClient *redis.Client) (storage.Store, error) {
	switch driver {
	case storage.DriverMemory:
		return storage.NewMemoryStore(), nil
	case storage.DriverSQLite, storage.DriverMySQL:
		return storage.NewGormStore(db), nil
	case storage.DriverRedis:
		return storage.NewRedisStore(redisClient, cfg.Storage.KeyPrefix), nil
	case storage.DriverS3:
		return storage.NewS3Store(storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			BasePath:        cfg.S3.BasePath,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// initDB opens MySQL when it is the storage driver, otherwise a SQLite file
// (in-memory for the memory driver)
func initDB(cfg *config.Config, driver string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if cfg.IsDevelopment() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	if driver != storage.DriverMySQL {
		dsn := cfg.Storage.DSN
		if driver == storage.DriverMemory || dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	}

	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), gormCfg)
	if err != nil {
		return nil, err
	}

	db.Exec("SET NAMES utf8mb4")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
