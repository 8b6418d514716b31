package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/admin"
	"github.com/wichananm65/souq-backend/internal/cache"
	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/catalog"
	"github.com/wichananm65/souq-backend/internal/category"
	"github.com/wichananm65/souq-backend/internal/config"
	"github.com/wichananm65/souq-backend/internal/database"
	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/favorite"
	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/metrics"
	"github.com/wichananm65/souq-backend/internal/order"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/profile"
	"github.com/wichananm65/souq-backend/internal/ratelimit"
	"github.com/wichananm65/souq-backend/internal/review"
	"github.com/wichananm65/souq-backend/internal/role"
	"github.com/wichananm65/souq-backend/internal/session"
	"github.com/wichananm65/souq-backend/internal/storage"
	"github.com/wichananm65/souq-backend/internal/user"
)

// uploadBodyLimit leaves room for a batch of 5 MiB images.
const uploadBodyLimit = 64 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment, ServiceName: cfg.ServiceName})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}

	metrics.Register(prometheus.DefaultRegisterer)
	readCache := cache.New(cfg.CacheTTL)
	broker := events.NewBroker()
	secret := []byte(cfg.JWTSecret)
	deny := user.NewDenylist()

	userRepo := user.NewPostgresRepository(db)
	profileRepo := profile.NewPostgresRepository(db)
	cartRepo := cart.NewPostgresRepository(db)

	userService := user.NewService(userRepo)
	profileService := profile.NewService(profileRepo)
	roleService := role.NewService(role.NewPostgresRepository(db))
	productService := product.NewService(product.NewPostgresRepository(db), readCache)
	categoryService := category.NewService(category.NewPostgresRepository(db), readCache)
	cartService := cart.NewService(cartRepo, productService, broker)
	favoriteService := favorite.NewService(favorite.NewPostgresRepository(db), productService, cartService)
	reviewService := review.NewService(review.NewPostgresRepository(db), productService, profileService)
	orderService := order.NewService(order.NewPostgresRepository(db), cartService, productService)
	catalogService := catalog.NewService(productService, categoryService, reviewService, favoriteService)
	adminService := admin.NewService(productService, categoryService, orderService, userService,
		admin.NewPostgresSettingsRepository(db))

	if err := roleService.EnsureAdmins(ctx, userService, cfg.AdminEmails, log); err != nil {
		log.Fatal("admin bootstrap", zap.Error(err))
	}

	authLimiter := ratelimit.PerMinute(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	go authLimiter.Run(time.Minute, ctx.Done())

	optional := user.Optional(secret, deny)
	userHandler := user.NewHandler(userService, user.NewTokenIssuer(secret, cfg.TokenTTL), deny, broker).
		WithRateLimit(authLimiter.Handler()).
		OnSignUp(func(ctx context.Context, u user.User) error {
			return profileService.Seed(ctx, u.ID, u.FullName)
		})
	catalogHandler := catalog.NewHandler(catalogService, optional)
	reviewHandler := review.NewHandler(reviewService, optional)
	categoryHandler := category.NewHandler(categoryService)
	productHandler := product.NewHandler(productService)
	orderHandler := order.NewHandler(orderService)

	app := fiber.New(fiber.Config{AppName: cfg.ServiceName, BodyLimit: uploadBodyLimit})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", metrics.Handler())
	if cfg.Storage.Driver == "local" {
		app.Static("/uploads", cfg.Storage.LocalDir)
	}

	userHandler.RegisterPublicRoutes(app)
	catalogHandler.RegisterPublicRoutes(app)
	reviewHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)

	app.Use(user.Protect(secret, deny))

	userHandler.RegisterProtectedRoutes(app)
	session.NewHandler(userService, cartService, roleService, broker).RegisterProtectedRoutes(app)
	profile.NewHandler(profileService).RegisterProtectedRoutes(app)
	cart.NewHandler(cartService).RegisterProtectedRoutes(app)
	favorite.NewHandler(favoriteService).RegisterProtectedRoutes(app)
	reviewHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	adminGroup := app.Group("/api/v1/admin", roleService.RequireAdmin())
	admin.NewHandler(adminService, storage.NewUploader(store, log)).RegisterAdminRoutes(adminGroup)
	productHandler.RegisterAdminRoutes(adminGroup)
	categoryHandler.RegisterAdminRoutes(adminGroup)
	orderHandler.RegisterAdminRoutes(adminGroup)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
