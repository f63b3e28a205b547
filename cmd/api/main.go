package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-dispatch-ws/internal/handler"
	"go-dispatch-ws/internal/middleware"
	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/service"
	"go-dispatch-ws/internal/ws"
	"go-dispatch-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Sweep cadences for the background maintenance loops
const (
	trackingCleanupInterval = time.Hour
	orderExpiryInterval     = 10 * time.Minute
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Employee{}, &model.Attendance{},
		&model.Order{},
		&model.Product{}, &model.ProductPurchase{}, &model.ProductConsumption{},
		&model.ServiceProductMapping{}, &model.OrderDefaultProduct{}, &model.MissingProductLog{},
		&model.ProductRequest{},
		&model.LiveTrackingPoint{},
		&model.Issue{},
	)

	// 3. Seed default admin
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	employeeRepo := repository.NewEmployeeRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	productRepo := repository.NewProductRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	trackingRepo := repository.NewTrackingRepo(db)
	issueRepo := repository.NewIssueRepo(db)

	authService := service.NewAuthService(employeeRepo, wsHub)
	employeeService := service.NewEmployeeService(employeeRepo, wsHub)
	stockService := service.NewStockService(productRepo, ledgerRepo, wsHub)
	consumptionService := service.NewConsumptionService(orderRepo, productRepo, ledgerRepo, wsHub)
	orderService := service.NewOrderService(orderRepo, requestRepo, issueRepo, consumptionService)
	requestService := service.NewRequestService(requestRepo, stockService, wsHub)
	trackingService := service.NewTrackingService(trackingRepo, wsHub)
	issueService := service.NewIssueService(issueRepo, wsHub)

	authHandler := handler.NewAuthHandler(authService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	orderHandler := handler.NewOrderHandler(orderService)
	inventoryHandler := handler.NewInventoryHandler(stockService, requestService)
	trackingHandler := handler.NewTrackingHandler(trackingService)
	issueHandler := handler.NewIssueHandler(issueService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Dispatch Field Service v1.0",
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
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(employeeRepo))

	protected.Post("/auth/heartbeat", authHandler.Heartbeat)

	// Field worker routes
	protected.Post("/beauticians/shift", employeeHandler.ToggleShift)
	protected.Post("/beauticians/location", trackingHandler.UpdateLocation)
	protected.Get("/orders", orderHandler.GetMyOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Patch("/orders/:id/status", orderHandler.UpdateStatus)
	protected.Post("/product-requests", inventoryHandler.CreateProductRequest)
	protected.Get("/products", inventoryHandler.GetProducts)
	protected.Post("/issues", issueHandler.CreateIssue)

	// Admin routes
	admin := protected.Group("", middleware.RequireAdmin())
	admin.Get("/tracking/board", trackingHandler.GetBoard)
	admin.Get("/tracking/:beauticianId/latest", trackingHandler.GetLatest)
	admin.Get("/tracking/:beauticianId/history", trackingHandler.GetHistory)
	admin.Get("/stock/summary", inventoryHandler.GetStockSummary)
	admin.Get("/stock/missing-products", inventoryHandler.GetMissingProductLogs)
	admin.Post("/products", inventoryHandler.CreateProduct)
	admin.Put("/products/:id", inventoryHandler.UpdateProduct)
	admin.Get("/product-requests", inventoryHandler.GetProductRequests)
	admin.Patch("/product-requests/:id/approve", inventoryHandler.ApproveProductRequest)
	admin.Post("/orders", orderHandler.CreateOrder)
	admin.Get("/orders-cancelled", orderHandler.GetCancelledOrders)
	admin.Post("/orders/:id/reallocate", orderHandler.Reallocate)
	admin.Get("/orders/:id/trail", trackingHandler.GetOrderTrail)
	admin.Get("/issues", issueHandler.GetIssues)
	admin.Patch("/issues/:id/resolve", issueHandler.ResolveIssue)
	admin.Post("/orders/expire-inactive", orderHandler.ExpireInactive)
	admin.Get("/overview/stats", orderHandler.GetOverviewStats)
	admin.Post("/employees", employeeHandler.Create)
	admin.Get("/employees", employeeHandler.GetAll)
	admin.Get("/employees/:id", employeeHandler.GetByID)
	admin.Put("/employees/:id", employeeHandler.Update)
	admin.Delete("/employees/:id", employeeHandler.Delete)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Background maintenance loops
	stop := make(chan struct{})
	go runTrackingCleanup(trackingService, stop)
	go runOrderExpiry(orderService, stop)

	// 9. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	close(stop)
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// runTrackingCleanup prunes tracking points past the retention window
func runTrackingCleanup(trackingService service.TrackingService, stop <-chan struct{}) {
	ticker := time.NewTicker(trackingCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			count, err := trackingService.Cleanup()
			if err != nil {
				log.Printf("tracking cleanup failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("tracking cleanup removed %d points", count)
			}
		case <-stop:
			return
		}
	}
}

// runOrderExpiry sweeps stale pending/confirmed orders into expired
func runOrderExpiry(orderService service.OrderService, stop <-chan struct{}) {
	ticker := time.NewTicker(orderExpiryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			count, err := orderService.ExpireInactiveOrders(time.Now())
			if err != nil {
				log.Printf("order expiry sweep failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("order expiry sweep marked %d orders expired", count)
			}
		case <-stop:
			return
		}
	}
}

// seedAdmin creates the default admin account if it doesn't exist
func seedAdmin(db *gorm.DB) {
	employeeRepo := repository.NewEmployeeRepo(db)

	_, err := employeeRepo.FindByEmail("admin@example.com")
	if err == nil {
		return
	}

	admin := &model.Employee{
		Email:    "admin@example.com",
		FullName: "Master Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := employeeRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Println("✅ Admin user created: admin@example.com / admin123")
	}
}
