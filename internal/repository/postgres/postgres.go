// Package postgres implements the repository interfaces on PostgreSQL
// through gorm, for hosted deployments where a local SQLite file does not
// survive restarts.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sakif/wellness-directory/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a gorm handle and provides repository methods.
type DB struct {
	gdb *gorm.DB
}

// New connects to dsn, sizes the pool and migrates the schema.
func New(dsn string, maxOpenConns int) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: getting pool: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: pinging: %w", err)
	}

	if err := gdb.AutoMigrate(&submissionRow{}, &toolRow{}, &ratingRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &DB{gdb: gdb}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
