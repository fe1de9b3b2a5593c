package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"annonces/internal/apierror"
	"annonces/internal/handlers"
	"annonces/internal/middleware"
	"annonces/internal/models"
	"annonces/internal/repositories"
	"annonces/internal/services"
	"annonces/pkg/mailer"
	"annonces/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("ADMIN_EMAIL", "")
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 25)
	viper.SetDefault("SMTP_FROM", "no-reply@annonces.local")
	viper.SetDefault("ADMIN_USERNAME", "")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.AutomaticEnv()

	development := viper.GetString("APP_ENV") == "development"

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Annonce{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	annonceRepo := repositories.NewGORMAnnonceRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)

	seedAdmin(userRepo, log)

	// --- Mail notification pipeline ---
	// Annonce creation publishes a mail job; the consumer below delivers it
	// over SMTP. When no broker is configured the request path dials SMTP
	// directly. Either way delivery is best effort.
	smtpNotifier := mailer.NewSMTPNotifier(
		viper.GetString("SMTP_HOST"),
		viper.GetInt("SMTP_PORT"),
		viper.GetString("SMTP_FROM"),
	)

	var notifier mailer.Notifier = smtpNotifier
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, mail jobs will be delivered inline")
		} else {
			defer mqClient.Close()
			notifier = mailer.NewQueueNotifier(mqClient)

			consumeErr := mqClient.ConsumeMailJobs(func(msg amqp.Delivery) error {
				var job mailer.Message
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					log.Warn().Err(err).Msg("discarding malformed mail job")
					return err
				}
				if err := smtpNotifier.Send(job.To, job.Subject, job.Text, job.HTML); err != nil {
					log.Warn().Err(err).Str("to", job.To).Msg("mail delivery failed")
					return err
				}
				return nil
			})
			if consumeErr != nil {
				log.Warn().Err(consumeErr).Msg("failed to start mail consumer")
			}
		}
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, jwtSecret)
	annonceService := services.NewAnnonceService(annonceRepo, notifier, viper.GetString("ADMIN_EMAIL"), log)
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	annonceHandler := handlers.NewAnnonceHandler(annonceService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	userHandler := handlers.NewUserHandler(userService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		ErrorHandler: apierror.Handler(log, development),
	})
	app.Use(fiberlogger.New())

	// --- Guards ---
	auth := middleware.AuthRequired(authService)
	admin := middleware.AdminRequired()
	owner := middleware.AnnonceOwnership(annonceRepo)

	// --- Routes ---
	app.Get("/", handleIndex)
	app.Get("/health", handleHealth)
	authHandler.RegisterRoutes(app)
	annonceHandler.RegisterRoutes(app, auth, admin, owner)
	categoryHandler.RegisterRoutes(app, auth, admin)
	userHandler.RegisterRoutes(app, auth)

	// Unmatched routes get a synthesized 404 naming method and path.
	app.Use(apierror.NotFoundHandler)

	// --- Start HTTP server ---
	appPort := viper.GetString("APP_PORT")
	log.Info().Str("port", appPort).Msg("starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}

// openDatabase connects to Postgres when a DSN is configured and falls back
// to a local SQLite file otherwise. Error translation is enabled so unique
// constraint violations classify as conflicts.
func openDatabase(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(sqlite.Open("annonces.db"), cfg)
}

// seedAdmin bootstraps the admin account when it does not exist yet.
func seedAdmin(userRepo repositories.UserRepository, log zerolog.Logger) {
	username := viper.GetString("ADMIN_USERNAME")
	password := viper.GetString("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	if _, err := userRepo.GetByUsername(username); err == nil {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash admin password")
		return
	}
	admin := &models.User{
		Username: username,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}
	log.Info().Str("username", username).Msg("seeded admin user")
}

// handleIndex describes the API surface.
func handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "API Annonces online",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"auth":       "/register, /login, /logout",
			"annonces":   "/annonces",
			"users":      "/users",
			"categories": "/categories",
		},
	})
}

// handleHealth reports liveness.
func handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
