package common

import (
	"context"
	"log"
	"strings"

	"wallet-settlement-go/internal/database"
	"wallet-settlement-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// init loads environment variables from .env file if it exists.
// Environment variables can also be set via other means (shell export,
// docker, etc.), so a missing file is not an error.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// InitializeLogger installs the global zap logger and returns it with its
// sync cleanup. When cfg.File is set, output is routed through lumberjack
// rotation instead of stderr.
func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	var logger *zap.Logger
	if cfg.File != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			writer,
			zap.InfoLevel,
		)
		logger = zap.New(core)
	} else {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeDatabase opens the settlement store for a cmd tool.
func InitializeDatabase(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
