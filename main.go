package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaesueryong/badminton-sub001/handlers"
	"github.com/chaesueryong/badminton-sub001/middleware"
	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/chaesueryong/badminton-sub001/services"
	"github.com/chaesueryong/badminton-sub001/utils"
	"github.com/chaesueryong/badminton-sub001/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — JSON API only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserWallet{},
		&models.LedgerTransaction{},
		&models.LedgerArchiveMarker{},
		&models.AccountSyncMarker{},
		&models.MatchSession{},
		&models.MatchParticipant{},
		&models.MatchInvitation{},
		&models.RatingRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	sessionService := services.NewSessionService(db, ledgerService)
	invitationService := services.NewInvitationService(db)
	leaderboardService := services.NewLeaderboardService(db)

	accountStoreURL := os.Getenv("ACCOUNT_STORE_URL")
	if accountStoreURL == "" {
		log.Fatal("ACCOUNT_STORE_URL environment variable not set")
	}
	serviceToken := os.Getenv("MATCH_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("MATCH_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accountSyncWorker := workers.NewAccountSyncWorker(db, accountStoreURL, "/api/v1/public/profiles", serviceToken)
	accountSyncWorker.Start(ctx)

	archiveWorker := workers.NewLedgerArchiveWorker(db)
	archiveWorker.Start(ctx)

	scheduler, err := services.StartMaintenanceScheduler(db, invitationService)
	if err != nil {
		log.Fatal("failed to start maintenance scheduler:", err)
	}
	defer func() { _ = scheduler.Shutdown() }()

	// ✅ Setup routes — enforced Gateway auth + user context on /s/ routes
	handlers.SetupSessionRoutes(app, sessionService, invitationService)
	handlers.SetupWalletRoutes(app, ledgerService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Account sync worker running")
	log.Println("✅ Ledger archive worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
