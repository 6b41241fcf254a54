// Package server assembles the storefront services and the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/config"
	"github.com/asadk95/estore/internal/handlers"
	"github.com/asadk95/estore/internal/middleware"
	"github.com/asadk95/estore/internal/ratelimit"
	"github.com/asadk95/estore/internal/services"
	"github.com/asadk95/estore/internal/store"
)

const (
	apiLimitMessage  = "Too many requests, please try again later"
	authLimitMessage = "Too many login attempts, please try again after 15 minutes"
)

type Services struct {
	Catalog *services.Catalog
	Carts   *services.Carts
	Orders  *services.Orders
	Auth    *services.Auth
	Users   *services.Users
	Admin   *services.Admin
}

// NewServices wires every service to st using the wall clock.
func NewServices(st store.Store, cfg config.Config, logger *zap.Logger) Services {
	now := time.Now
	passwords := services.Passwords{Cost: cfg.BcryptCost}
	carts := services.NewCarts(st, now, logger)
	return Services{
		Catalog: services.NewCatalog(st, logger),
		Carts:   carts,
		Orders:  services.NewOrders(st, carts, now, logger),
		Auth: services.NewAuth(st, passwords, services.TokenConfig{
			Secret: cfg.JWTSecret,
			TTL:    cfg.JWTExpiresIn,
		}, now, logger),
		Users: services.NewUsers(st, passwords, logger),
		Admin: services.NewAdmin(st, passwords, services.AdminCredentials{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}, now, logger),
	}
}

type Options struct {
	Config      config.Config
	Logger      *zap.Logger
	Services    Services
	APILimiter  ratelimit.Limiter
	AuthLimiter ratelimit.Limiter
}

// MemoryLimiters builds per-process limiters from the configured windows.
func MemoryLimiters(cfg config.Config) (api, auth ratelimit.Limiter) {
	return ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow),
		ratelimit.NewMemory(cfg.AuthRateLimitMax, cfg.RateLimitWindow)
}

func NewRouter(opts Options) *gin.Engine {
	cfg := opts.Config
	logger := opts.Logger
	svc := opts.Services
	handlers.RegisterValidators()

	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(logger),
	)

	r.Static("/uploads", cfg.UploadDir)
	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(opts.APILimiter, apiLimitMessage, logger))
	api.GET("/health", handlers.Health)

	requireAuth := middleware.RequireAuth(svc.Auth)
	authLimit := middleware.RateLimit(opts.AuthLimiter, authLimitMessage, logger)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authLimit, handlers.Register(svc.Auth, logger))
		auth.POST("/login", authLimit, handlers.Login(svc.Auth, logger))
		auth.GET("/me", requireAuth, handlers.Me(svc.Auth))
		auth.POST("/logout", requireAuth, handlers.Logout)
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts(svc.Catalog))
		products.GET("/featured", handlers.GetFeaturedProducts(svc.Catalog))
		products.GET("/categories", handlers.GetCategories(svc.Catalog))
		products.GET("/:id", handlers.GetProduct(svc.Catalog))

		manage := products.Group("", requireAuth, middleware.RequireAction(authz.ManageProducts))
		manage.POST("", handlers.CreateProduct(svc.Catalog, logger))
		manage.PUT("/:id", handlers.UpdateProduct(svc.Catalog, logger))
		manage.DELETE("/:id", handlers.DeleteProduct(svc.Catalog, logger))
	}

	cart := api.Group("/cart", requireAuth)
	{
		cart.GET("", handlers.GetCart(svc.Carts))
		cart.POST("/add", handlers.AddToCart(svc.Carts))
		cart.PUT("/update/:productId", handlers.UpdateCartItem(svc.Carts))
		cart.DELETE("/remove/:productId", handlers.RemoveFromCart(svc.Carts))
		cart.DELETE("/clear", handlers.ClearCart(svc.Carts))
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.GET("", handlers.GetMyOrders(svc.Orders))
		orders.POST("", handlers.CreateOrder(svc.Orders))
		orders.GET("/admin/all", middleware.RequireAction(authz.ListAllOrders), handlers.GetAllOrders(svc.Orders))
		orders.GET("/:id", handlers.GetOrder(svc.Orders))
		orders.PUT("/:id/status", middleware.RequireAction(authz.UpdateOrderStatus), handlers.UpdateOrderStatus(svc.Orders))
		orders.PUT("/:id/payment", handlers.SubmitPayment(svc.Orders))
		orders.DELETE("/:id", handlers.CancelOrder(svc.Orders))
	}

	admin := api.Group("/admin")
	{
		admin.POST("/setup", handlers.SetupAdmin(svc.Admin, logger))
		admin.GET("/stats", requireAuth, middleware.RequireAction(authz.ViewStats), handlers.GetDashboard(svc.Admin))

		users := admin.Group("/users", requireAuth, middleware.RequireAction(authz.ManageUsers))
		users.GET("", handlers.GetUsers(svc.Admin))
		users.PUT("/:id", handlers.UpdateUser(svc.Admin, logger))
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/profile", handlers.GetProfile(svc.Users))
		users.PUT("/profile", handlers.UpdateProfile(svc.Users))
		users.PUT("/password", handlers.ChangePassword(svc.Users, logger))
		users.GET("/addresses", handlers.GetAddresses(svc.Users))
		users.POST("/addresses", handlers.AddAddress(svc.Users))
		users.PUT("/addresses/:addressId", handlers.UpdateAddress(svc.Users))
		users.DELETE("/addresses/:addressId", handlers.DeleteAddress(svc.Users))

		legacy := users.Group("/admin", middleware.RequireAction(authz.ManageUsers))
		legacy.GET("/all", handlers.GetAllUsers(svc.Admin))
		legacy.PUT("/:id/role", handlers.UpdateUserRole(svc.Admin, logger))
	}

	uploads := handlers.Uploads{Dir: cfg.UploadDir, MaxSize: cfg.MaxFileSize, Logger: logger.Named("uploads")}
	upload := api.Group("/upload", requireAuth)
	{
		upload.POST("/image", handlers.UploadImage(uploads))
		upload.POST("/images", handlers.UploadImages(uploads))
		upload.POST("/payment-proof", handlers.UploadPaymentProof(uploads))
		upload.DELETE("/:filename", handlers.DeleteUpload(uploads))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return r
}
