package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-production-inventory/internal/config"
	"go-production-inventory/internal/handler"
	"go-production-inventory/internal/middleware"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/service"
	"go-production-inventory/internal/ws"
	"go-production-inventory/pkg/database"
	"go-production-inventory/pkg/jwt"
	applogger "go-production-inventory/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLog, err := applogger.New(applogger.Config{
		IsDevelopment: cfg.IsDevelopment(),
		Encoding:      cfg.Logger.Encoding,
		Level:         cfg.Logger.Level,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		zapLog.Fatal("connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLog.Fatal("migrate database", zap.Error(err))
	}
	readDB, err := database.ReadModel(db)
	if err != nil {
		zapLog.Fatal("open read model", zap.Error(err))
	}

	tokens, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		zapLog.Fatal("init jwt", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsHub := ws.NewHub(zapLog.Named("ws"))
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	repos := service.NewRepositories(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	stockRepo := repository.NewStockRepo(readDB)

	deps := service.Dependencies{
		DB:                db,
		Repos:             repos,
		Events:            wsHub,
		Log:               zapLog.Named("core"),
		MainWarehouseName: cfg.Inventory.MainWarehouseName,
		StrictStockCheck:  cfg.Inventory.StrictStockCheck,
	}
	batchService := service.NewBatchService(deps)
	qcService := service.NewQCService(deps)
	invService := service.NewInventoryService(deps)
	catalogService := service.NewCatalogService(deps)
	stockService := service.NewStockService(stockRepo, repos.Products, repos.Ledger)
	dashService := service.NewDashboardService(stockRepo)
	authService := service.NewAuthService(userRepo, tokens, zapLog.Named("auth"))
	userService := service.NewUserService(userRepo, roleRepo, zapLog.Named("users"))

	// 5. Seed default roles and admin user
	if err := roleRepo.SeedDefaults(); err != nil {
		zapLog.Fatal("seed roles", zap.Error(err))
	}
	created, err := userService.EnsureAdmin(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		zapLog.Fatal("seed admin", zap.Error(err))
	}
	if created {
		zapLog.Info("admin user created", zap.String("email", cfg.Seed.AdminEmail))
	}

	batchHandler := handler.NewBatchHandler(batchService, qcService)
	invHandler := handler.NewInventoryHandler(invService, stockService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Production Inventory v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/change-password", authHandler.ChangePassword)

	// ============ PROTECTED ROUTES ============
	// Reads are open to every authenticated role; writes are checked in the services.
	protected := api.Group("", middleware.RequireAuth(authService))
	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	protected.Get("/products", catalogHandler.GetProducts)
	protected.Post("/products", catalogHandler.CreateProduct)
	protected.Delete("/products/:id", catalogHandler.DeactivateProduct)

	protected.Get("/locations", catalogHandler.GetLocations)
	protected.Post("/locations", catalogHandler.CreateLocation)
	protected.Delete("/locations/:id", catalogHandler.DeactivateLocation)

	protected.Get("/co-packers", catalogHandler.GetCoPackers)
	protected.Post("/co-packers", catalogHandler.CreateCoPacker)

	protected.Get("/batches", batchHandler.GetBatches)
	protected.Post("/batches", batchHandler.CreateBatch)
	protected.Get("/batches/:id", batchHandler.GetBatch)
	protected.Put("/batches/:id", batchHandler.UpdateBatch)
	protected.Delete("/batches/:id", batchHandler.DeleteBatch)
	protected.Post("/batches/:id/transition", batchHandler.TransitionBatch)
	protected.Get("/batches/:id/qc-tests", batchHandler.GetTests)
	protected.Post("/batches/:id/qc-tests", batchHandler.SubmitTest)

	inventory := protected.Group("/inventory")
	inventory.Post("/transfers", invHandler.CreateTransfer)
	inventory.Post("/adjustments", invHandler.CreateAdjustment)
	inventory.Get("/adjustment-reasons", invHandler.GetAdjustmentReasons)
	inventory.Get("/transactions", invHandler.GetTransactions)
	inventory.Get("/transactions/:id", invHandler.GetTransaction)
	inventory.Get("/stock", invHandler.GetStock)
	inventory.Get("/summary", invHandler.GetStockSummary)

	// User Management Routes
	users := protected.Group("/users", middleware.RequireRole(model.RoleAdmin))
	users.Get("/", userHandler.GetUsers)
	users.Post("/", userHandler.CreateUser)
	users.Delete("/:id", userHandler.DeactivateUser)

	protected.Get("/roles", userHandler.GetRoles)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zapLog.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	zapLog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zapLog.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zapLog.Info("server exited")
}
