package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services are the business operations the HTTP layer dispatches to.
type Services struct {
	Users    *service.UserService
	Catalog  *service.CatalogService
	Carts    *service.CartService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Reports  *service.ReportService
	Audit    *service.AuditService
}

type Gateway struct {
	config *config.Config
	svc    Services
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(recoveryMiddleware(logger))
	router.Use(corsMiddleware(cfg.CORS))

	g := &Gateway{
		config: cfg,
		svc:    svc,
		logger: logger,
		router: router,
	}
	g.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", requestIDHeader)
	cc.ExposeHeaders = []string{requestIDHeader}
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)

	api := g.router.Group("/api")
	auth := g.authenticate()

	users := api.Group("/users")
	{
		users.POST("/register", g.register)
		users.POST("/login", g.login)
		users.POST("/logout", auth, g.logout)
		users.GET("/profile", auth, g.profile)
		users.PUT("/profile", auth, g.updateProfile)
	}

	products := api.Group("/products")
	{
		products.GET("/list", g.listProducts)
		products.GET("/show/:id", g.showProduct)
		products.GET("/popular", g.popularProducts)
		products.POST("/create", auth, g.createProduct)
		products.PUT("/edit/:id", auth, g.updateProduct)
		products.DELETE("/delete/:id", auth, g.deleteProduct)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", g.listCategories)
		categories.GET("/:id", g.showCategory)
		categories.POST("", auth, g.createCategory)
		categories.PUT("/:id", auth, g.updateCategory)
		categories.DELETE("/:id", auth, g.deleteCategory)
	}

	cart := api.Group("/cart", auth)
	{
		cart.GET("/list", g.listCart)
		cart.GET("/count", g.countCart)
		cart.POST("/add", g.addToCart)
		cart.PUT("/update/:id", g.updateCartItem)
		cart.DELETE("/remove/:id", g.removeCartItem)
		cart.DELETE("/clear", g.clearCart)
	}

	orders := api.Group("/orders", auth)
	{
		orders.GET("/list", g.listOrders)
		orders.GET("/show/:id", g.showOrder)
		orders.POST("/create", g.createOrder)
		orders.PUT("/:id/cancel", g.cancelOrder)
		orders.PUT("/:id/status", g.updateOrderStatus)
		orders.DELETE("/:id", g.deleteOrder)
		orders.GET("/admin/list", g.adminListOrders)
		orders.GET("/admin/export", g.exportOrders)
	}

	payments := api.Group("/payments", auth)
	{
		payments.POST("/process/:id", g.processPayment)
		payments.GET("/history", g.paymentHistory)
	}

	admin := api.Group("/admin", auth)
	{
		admin.GET("/users", g.adminListUsers)
		admin.GET("/users/:id", g.adminGetUser)
		admin.PUT("/users/:id/change-role", g.adminChangeRole)
		admin.DELETE("/users/:id", g.adminDeleteUser)
		admin.GET("/statistics", g.adminStatistics)
		admin.GET("/dashboard", g.adminDashboard)
		admin.GET("/audit/:entity/:id", g.adminAuditHistory)
	}

	g.router.StaticFile("/docs/openapi.yaml", "docs/openapi.yaml")
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/openapi.yaml")))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info("HTTP server starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

func (g *Gateway) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
