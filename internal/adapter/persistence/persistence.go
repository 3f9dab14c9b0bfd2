package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
)

const (
	DriverNone     = "none"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// NewProbe builds the liveness probe for the configured driver. The driver
// "none" returns a nil probe, which the monitor reports as disabled. Nothing
// here dials eagerly so a database that is down at startup only shows up as
// an unhealthy snapshot.
func NewProbe(cfg config.PersistenceConfig) (ports.PersistenceProbe, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverRedis:
		return NewRedisProbe(OpenRedis(cfg.Redis)), nil
	case DriverPostgres:
		db, err := OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresProbe(db), nil
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}
}

// OpenRedis creates a client; go-redis connects lazily on first command
func OpenRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// OpenPostgres opens a gorm handle without the initial ping
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open postgres: %w", err)
	}
	return db, nil
}

type RedisProbe struct {
	client redis.UniversalClient
}

func NewRedisProbe(client redis.UniversalClient) *RedisProbe {
	return &RedisProbe{client: client}
}

func (p *RedisProbe) Name() string { return DriverRedis }

func (p *RedisProbe) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return domain.NewPersistenceError(DriverRedis, err)
	}
	return nil
}

func (p *RedisProbe) Close() error {
	return p.client.Close()
}

type PostgresProbe struct {
	db *gorm.DB
}

func NewPostgresProbe(db *gorm.DB) *PostgresProbe {
	return &PostgresProbe{db: db}
}

func (p *PostgresProbe) Name() string { return DriverPostgres }

func (p *PostgresProbe) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return domain.NewPersistenceError(DriverPostgres, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.NewPersistenceError(DriverPostgres, err)
	}
	return nil
}

func (p *PostgresProbe) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
