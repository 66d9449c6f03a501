package models

import (
	"fmt"
	"strings"
	"time"

	applogger "github.com/revisit-loyalty/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 全局连接，由 InitDB 设置
var DB *gorm.DB

const slowQueryThreshold = 200 * time.Millisecond

// DBPoolConfig 连接池参数，零值表示沿用驱动默认
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// InitDB 打开连接并设置为全局 DB
func InitDB(driver, dsn string, pool DBPoolConfig, debug bool) error {
	db, err := Open(driver, dsn, pool, debug)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open 打开数据库；SQL 日志经 zap 输出，未命中记录不算错误
func Open(driver, dsn string, pool DBPoolConfig, debug bool) (*gorm.DB, error) {
	dialector, err := OpenDialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(applogger.StdLogger(), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := pool.apply(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenDialector 按驱动名选择方言，空值视为 sqlite
func OpenDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", driver)
}

func (p DBPoolConfig) apply(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if p.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(p.ConnMaxLifetimeSeconds) * time.Second)
	}
	if p.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(p.ConnMaxIdleTimeSeconds) * time.Second)
	}
	return nil
}

// AllModels 迁移顺序即依赖顺序
func AllModels() []interface{} {
	return []interface{}{
		&Restaurant{},
		&CardSequence{},
		&Rank{},
		&Staff{},
		&Customer{},
		&Sale{},
		&PointTransaction{},
		&RewardConfig{},
		&RewardRedemption{},
	}
}

// AutoMigrate 迁移全局 DB
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.AutoMigrate(AllModels()...)
}
