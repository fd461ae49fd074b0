package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gm-economy-api/internal/cache"
	"gm-economy-api/internal/config"
	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/handler"
	"gm-economy-api/internal/middleware"
	"gm-economy-api/internal/repository"
	"gm-economy-api/internal/router"
	"gm-economy-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting GM Economy API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize MySQL connection (optional: host keys and mysql store)
	var mysqlDB *sql.DB
	if cfg.MySQL.Enabled {
		db, err := sql.Open("mysql", cfg.MySQL.DSN())
		if err != nil {
			log.Printf("Warning: MySQL connection failed: %v", err)
		} else {
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err := db.Ping(); err != nil {
				log.Printf("Warning: MySQL ping failed: %v", err)
				db.Close()
			} else {
				mysqlDB = db
				log.Println("MySQL connection initialized")
			}
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize economy store based on config
	var repo repository.EconomyRepository
	switch cfg.Store.Type {
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteEconomyRepository(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite store: %v", err)
		}
		repo = sqliteRepo
		log.Println("SQLite economy store initialized")
	case "mysql":
		if mysqlDB == nil {
			log.Fatalf("STORE_TYPE=mysql requires a working MySQL connection")
		}
		mysqlRepo, err := repository.NewMySQLEconomyRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL store: %v", err)
		}
		repo = mysqlRepo
		log.Println("MySQL economy store initialized")
	default: // jsonfile
		fileRepo, err := repository.NewJSONFileEconomyRepository(cfg.Store.Dir)
		if err != nil {
			log.Fatalf("Failed to initialize JSON file store: %v", err)
		}
		repo = fileRepo
		log.Println("JSON file economy store initialized")
	}
	defer repo.Close()

	// Initialize Redis client (optional: cache and host sessions)
	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
		} else {
			redisClient = client
			log.Println("Redis client initialized")
		}
		cancel()
	}

	// Initialize cache
	var appCache cache.Cache
	if redisClient != nil {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis cache initialization failed, using memory cache: %v", err)
			appCache = cache.NewMemoryCache()
		} else {
			appCache = redisCache
		}
	} else {
		appCache = cache.NewMemoryCache()
	}

	// Initialize gateway client (identity resolution + display surface)
	gw := gateway.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Token, cfg.Gateway.Timeout)
	log.Printf("Gateway client initialized for %s", cfg.Gateway.BaseURL)

	// Initialize services
	locks := service.NewCatalogLocks()
	ledger := service.NewLedgerService(repo, appCache, cfg.Cache.TTL)
	display := service.NewDisplayService(repo, gw, appCache, service.DisplayConfig{
		Currency:        cfg.Economy.Currency,
		AnnounceChannel: cfg.Economy.AnnounceChannel,
		HostPing:        cfg.Economy.HostPing,
	})
	shop := service.NewShopService(repo, display, locks)
	purchases := service.NewPurchaseService(shop, ledger, display, gw, locks)
	targets := service.NewTargetResolver(gw)

	var sessions *service.SessionService
	if redisClient != nil {
		sessions = service.NewSessionService(redisClient)
	}

	// Host key validation: MySQL table when available, static env list otherwise
	var hostKeys repository.HostKeyRepository
	if mysqlDB != nil {
		hostKeys = repository.NewMySQLHostKeyRepository(mysqlDB)
		log.Println("MySQL host key repository initialized")
	} else {
		hostKeys = repository.NewStaticHostKeyRepository(cfg.App.HostKeyList())
	}

	// Background display reconciliation
	scheduler := service.NewSyncScheduler(display, service.SyncSchedulerConfig{
		Interval: cfg.Economy.SyncInterval,
	})
	scheduler.Start()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	walletHandler := handler.NewWalletHandler(ledger, targets)
	purchaseHandler := handler.NewPurchaseHandler(purchases)
	shopHandler := handler.NewShopHandler(shop, display)
	adminHandler := handler.NewAdminHandler(repo, scheduler, cfg.Store.Type, cfg.Cache.Type)

	var authHandler *handler.AuthHandler
	if sessions != nil {
		authHandler = handler.NewAuthHandler(sessions, hostKeys)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		SessionService: sessions,
		HostKeys:       hostKeys,
	})

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		WalletHandler:   walletHandler,
		PurchaseHandler: purchaseHandler,
		ShopHandler:     shopHandler,
		AuthHandler:     authHandler,
		AdminHandler:    adminHandler,
		AuthMiddleware:  authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
