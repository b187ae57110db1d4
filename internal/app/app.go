package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"alumnihub_backend/internal/config"
	"alumnihub_backend/internal/email"
	"alumnihub_backend/internal/handlers"
	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/middleware"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/payments"
	"alumnihub_backend/internal/repositories"
	"alumnihub_backend/internal/routes"
	"alumnihub_backend/internal/services"
	"alumnihub_backend/internal/storage"
	"alumnihub_backend/internal/validator"
	"alumnihub_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := autoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ginRouter, receiptWorker := SetupRouter(cfg, gormDB, sqlDB)
	receiptWorker.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB) (*gin.Engine, *workers.ReceiptWorker) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	provider, err := payments.NewProvider(payments.Config{
		Provider:      cfg.Payments.Provider,
		APIKey:        cfg.Payments.APIKey,
		WebhookSecret: cfg.Payments.WebhookSecret,
	})
	if err != nil {
		logger.Fatal("Failed to initialize payment provider", "error", err)
	}
	logger.Info("Payment provider initialized", "provider", cfg.Payments.Provider)

	serviceContainer, receiptWorker := initializeServices(cfg, gormDB, sqlDB, storageInstance, provider)
	appHandlers := initializeHandlers(serviceContainer, provider)

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, sqlDB)

	return ginRouter, receiptWorker
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB, storageInstance storage.Storage, provider payments.Provider) (*services.ServiceContainer, *workers.ReceiptWorker) {
	var emailSender email.Sender
	if cfg.Email.Enabled {
		sender, err := email.NewSMTPSender(email.Config{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			logger.Fatal("Failed to initialize SMTP sender", "error", err)
		}
		emailSender = sender
	} else {
		logger.Warn("Email sending disabled, using noop sender")
		emailSender = email.NoopSender{}
	}

	userRepo := repositories.NewUserRepository(gormDB)
	campaignRepo := repositories.NewCampaignRepository(gormDB)
	donationRepo := repositories.NewDonationRepository(gormDB)
	receiptRepo := repositories.NewReceiptRepository(gormDB)
	statsRepo := repositories.NewCampaignStatsRepository(sqlDB)

	receiptService := services.NewReceiptService(donationRepo, receiptRepo, storageInstance, emailSender)
	receiptWorker := workers.NewReceiptWorker(receiptService, 256)

	container := &services.ServiceContainer{
		Auth:      services.NewAuthService(userRepo),
		Campaigns: services.NewCampaignService(campaignRepo, statsRepo),
		Donations: services.NewDonationService(donationRepo, campaignRepo, provider),
		Receipts:  receiptService,
		Lifecycle: services.NewDonationLifecycle(donationRepo, campaignRepo, receiptWorker),
	}
	return container, receiptWorker
}

func initializeHandlers(container *services.ServiceContainer, provider payments.Provider) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:     handlers.NewAuthHandler(baseHandler, container.Auth),
		CampaignHandler: handlers.NewCampaignHandler(baseHandler, container.Campaigns),
		DonationHandler: handlers.NewDonationHandler(baseHandler, container.Donations),
		ReceiptHandler:  handlers.NewReceiptHandler(baseHandler, container.Receipts),
		WebhookHandler:  handlers.NewWebhookHandler(baseHandler, provider, container.Lifecycle),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FundraisingCampaign{},
		&models.Donation{},
		&models.Receipt{},
	)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("First admin credentials not configured. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var adminUser models.User
	result := tx.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		tx.Rollback()
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	if err := tx.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit admin seeding: %w", err)
	}
	logger.Info("First admin user created", "email", adminEmail)
	return nil
}
