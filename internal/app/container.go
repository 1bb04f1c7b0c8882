package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/parts-market-backend/internal/api"
	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/notify"
	"github.com/nekogravitycat/parts-market-backend/internal/order"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/broadcast"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/retry"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/storage"
	"github.com/nekogravitycat/parts-market-backend/internal/product"
	"github.com/nekogravitycat/parts-market-backend/internal/session"
	"github.com/nekogravitycat/parts-market-backend/internal/store"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
	"github.com/nekogravitycat/parts-market-backend/internal/vehicle"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	DBPool      *pgxpool.Pool
	RedisClient *redis.Client // nil falls back to in-process store/broadcast

	JWTSecret         string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	BcryptCost        int
	TokenExpiryMargin time.Duration

	RetryPolicy     retry.Policy
	StorageBasePath string

	TelegramBotToken string
	TelegramChatID   string

	Logger zerolog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	SessionManager *session.Manager
	Broadcaster    broadcast.Broadcaster
	JWTManager     *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// User module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Session module: Redis-backed artifacts and broadcast when available,
	// in-process fallbacks otherwise (single-node deployments, tests).
	var artifacts session.ArtifactStore
	var bus broadcast.Broadcaster
	if cfg.RedisClient != nil {
		artifacts = session.NewRedisStore(cfg.RedisClient)
		bus = broadcast.NewRedis(cfg.RedisClient, cfg.Logger)
	} else {
		artifacts = session.NewMemoryStore()
		bus = broadcast.NewMemory()
	}

	provider := session.NewLocalProvider(userService, jwtManager)
	sessionManager := session.NewManager(
		provider,
		artifacts,
		session.NewUserProfileStore(userService),
		bus,
		cfg.Logger,
		session.Config{TokenExpiryMargin: cfg.TokenExpiryMargin},
	)

	// Store module
	storeRepo := store.NewPgxRepository(cfg.DBPool)
	storeService := store.NewService(storeRepo)

	// Vehicle reference module
	vehicleRepo := vehicle.NewPgxRepository(cfg.DBPool)
	vehicleService := vehicle.NewService(vehicleRepo)

	// Product module
	fileStorage, err := storage.NewLocalStorage(cfg.StorageBasePath)
	if err != nil {
		return nil, fmt.Errorf("init file storage failed: %w", err)
	}
	productRepo := product.NewPgxRepository(cfg.DBPool, cfg.RetryPolicy)
	productService := product.NewService(productRepo, storeService, fileStorage, cfg.Logger)

	// Order module
	var notifier notify.Sender = notify.Noop{}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.RetryPolicy)
	}
	orderRepo := order.NewPgxRepository(cfg.DBPool)
	orderService := order.NewService(orderRepo, productService, storeService, userService, notifier, cfg.Logger)

	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		UserService:     userService,
		StoreService:    storeService,
		VehicleService:  vehicleService,
		ProductService:  productService,
		OrderService:    orderService,
		SessionManager:  sessionManager,
		SessionProvider: provider,
		JWTManager:      jwtManager,
		Logger:          cfg.Logger,
	})

	return &Container{
		Router:         router,
		SessionManager: sessionManager,
		Broadcaster:    bus,
		JWTManager:     jwtManager,
	}, nil
}
