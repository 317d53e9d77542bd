package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/umo-app/umo/internal/ai"
	httpapi "github.com/umo-app/umo/internal/api/http"
	"github.com/umo-app/umo/internal/config"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/repository/model"
	"github.com/umo-app/umo/internal/service"
	"github.com/umo-app/umo/internal/storage"
	"github.com/umo-app/umo/lib/logger/slogpretty"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := storage.NewS3ObjectStore(context.Background(), cfg.Storage)
	if err != nil {
		log.Error("failed to init object storage", slog.Any("error", err))
		os.Exit(1)
	}

	speech, err := ai.NewWhisperClient(cfg.Speech)
	if err != nil {
		log.Error("failed to init speech client", slog.Any("error", err))
		os.Exit(1)
	}
	text, err := ai.NewOpenAIClient(cfg.Speech)
	if err != nil {
		log.Error("failed to init text client", slog.Any("error", err))
		os.Exit(1)
	}

	meetingRepo := repository.NewPostgresMeetingRepository(db)
	objectRepo := repository.NewPostgresObjectRepository(db)
	transcriptionRepo := repository.NewPostgresTranscriptionRepository(db)
	messageRepo := repository.NewPostgresMessageRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	strategy := service.NewWholeFileStrategy(store, speech)

	meetingService := service.NewMeetingService(meetingRepo, objectRepo, transcriptionRepo, store, log)
	uploadService := service.NewUploadService(meetingRepo, objectRepo, transcriptionRepo, store, log)
	transcriptionService := service.NewTranscriptionService(meetingRepo, objectRepo, transcriptionRepo, text, strategy, cfg.Chat.TitleLimit, log)
	chatService := service.NewChatService(messageRepo, transcriptionRepo, text, cfg.Chat.ContextLimit, log)
	userService := service.NewUserService(userRepo, log)

	meetingController := httpapi.NewMeetingController(meetingService, transcriptionService)
	uploadController := httpapi.NewUploadController(uploadService, cfg.Callback.APIKey)
	chatController := httpapi.NewChatController(chatService)
	webhookController := httpapi.NewWebhookController(userService, cfg.Webhook.IdentitySecret)
	userController := httpapi.NewUserController(userService)

	router := httpapi.SetupRouter(
		cfg.HTTP.AllowedOrigins,
		meetingController,
		uploadController,
		chatController,
		webhookController,
		userController,
	)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(
		&model.Meeting{},
		&model.Object{},
		&model.Transcription{},
		&model.MeetingMessage{},
		&model.User{},
	)

	// AutoMigrate cannot express a partial unique index. One final
	// transcription per meeting is enforced here, and partial rows are
	// unique per chunk so a retried chunked run cannot duplicate them.
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_transcriptions_final
		ON transcriptions (meeting_id) WHERE chunk_index IS NULL`)
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_transcriptions_chunk
		ON transcriptions (meeting_id, chunk_index) WHERE chunk_index IS NOT NULL`)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
