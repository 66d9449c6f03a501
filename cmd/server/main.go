package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/revisit-loyalty/internal/app"
	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	var (
		rawMode     string
		skipMigrate bool
	)
	flag.StringVar(&rawMode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.BoolVar(&skipMigrate, "skip-migrate", false, "跳过启动时的表结构迁移")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()

	mode, err := app.ParseMode(rawMode)
	if err != nil {
		logger.Fatalw("invalid_run_mode", "mode", rawMode, "error", err)
	}
	checkStaffTokenSecret(cfg)

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		logger.Fatalw("database_init_failed", "driver", cfg.Database.Driver, "error", err)
	}
	if !skipMigrate {
		if err := models.AutoMigrate(); err != nil {
			logger.Fatalw("database_migrate_failed", "error", err)
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		logger.Fatalw("app_run_failed", "mode", mode, "error", err)
	}
}

// checkStaffTokenSecret release 模式下拒绝弱密钥，其余模式仅告警
func checkStaffTokenSecret(cfg *config.Config) {
	if !isWeakSecret(cfg.Auth.SecretKey) {
		return
	}
	if cfg.Server.Mode == "release" {
		logger.Fatalw("staff_token_secret_weak", "min_length", 32)
	}
	logger.Warnw("staff_token_secret_weak", "min_length", 32, "mode", cfg.Server.Mode)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
