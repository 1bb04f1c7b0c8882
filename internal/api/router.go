package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/order"
	orderHttp "github.com/nekogravitycat/parts-market-backend/internal/order/http"
	"github.com/nekogravitycat/parts-market-backend/internal/product"
	productHttp "github.com/nekogravitycat/parts-market-backend/internal/product/http"
	"github.com/nekogravitycat/parts-market-backend/internal/session"
	"github.com/nekogravitycat/parts-market-backend/internal/store"
	storeHttp "github.com/nekogravitycat/parts-market-backend/internal/store/http"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
	"github.com/nekogravitycat/parts-market-backend/internal/vehicle"
	vehicleHttp "github.com/nekogravitycat/parts-market-backend/internal/vehicle/http"
)

// Config holds everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService    user.Service
	StoreService   store.Service
	VehicleService vehicle.Service
	ProductService product.Service
	OrderService   order.Service

	SessionManager  *session.Manager
	SessionProvider session.Provider
	JWTManager      *auth.JWTManager
	Logger          zerolog.Logger
}

// NewRouter assembles middleware and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)
	profileMiddleware := EnrichProfile(cfg.UserService)
	adminMiddleware := RequireAdmin()

	authHandler := NewAuthHandler(cfg.SessionManager, cfg.SessionProvider, cfg.UserService)
	storeHandler := storeHttp.NewHandler(cfg.StoreService)
	vehicleHandler := vehicleHttp.NewHandler(cfg.VehicleService)
	productHandler := productHttp.NewHandler(cfg.ProductService, cfg.VehicleService)
	orderHandler := orderHttp.NewHandler(cfg.OrderService)

	v1 := r.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		v1.GET("/me", authMiddleware, authHandler.Me)
		v1.PATCH("/me/profile", authMiddleware, authHandler.UpdateProfile)

		storeHttp.RegisterRoutes(v1, storeHandler, authMiddleware, profileMiddleware)
		vehicleHttp.RegisterRoutes(v1, vehicleHandler, authMiddleware, profileMiddleware, adminMiddleware)
		productHttp.RegisterRoutes(v1, productHandler, optionalAuth, authMiddleware, profileMiddleware)
		orderHttp.RegisterRoutes(v1, orderHandler, authMiddleware, profileMiddleware)
	}

	return r
}
