package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"caseintake/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// InitDatabase 打开 PostgreSQL 连接。数据库容器可能晚于服务启动，因此 ping 失败会重试几次。
// SQL 日志经由 slog 输出，只记录慢查询与错误。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	for attempt := 1; ; attempt++ {
		err = sqlDB.Ping()
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		}
		slog.Warn("database not ready, retrying",
			slog.String("host", cfg.Host),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		time.Sleep(connectBackoff * time.Duration(attempt))
	}
}
