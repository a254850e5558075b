package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openeeap/replytune/pkg/errors"
)

// DBConfig 数据库连接配置
type DBConfig struct {
	DSN             string        // 连接串
	MaxOpenConns    int           // 最大连接数
	MaxIdleConns    int           // 最大空闲连接数
	ConnMaxLifetime time.Duration // 连接最大存活时间
	LogMode         string        // 日志级别（silent, error, warn, info）
}

// Open 打开数据库连接并检查连通性
func Open(ctx context.Context, cfg DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(cfg.LogMode)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}
	return db, nil
}

// Close 关闭连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(mode string) logger.LogLevel {
	switch strings.ToLower(mode) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

//Personal.AI order the ending
