package config

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	DB   *sqlx.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(env Env) (*sqlx.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	driver, dsn, err := dataSource(env)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	DB = db
	log.WithField("driver", driver).Info("connected to database")
	return DB, nil
}

func dataSource(env Env) (driver, dsn string, err error) {
	switch env.StoreDriver {
	case "", "mysql":
		if env.DBDSN != "" {
			return "mysql", env.DBDSN, nil
		}
		port := env.DBPort
		if port == "" {
			port = "3306"
		}
		cfg := mysql.NewConfig()
		cfg.User = env.DBUser
		cfg.Passwd = env.DBPassword
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(env.DBHost, port)
		cfg.DBName = env.DBName
		cfg.ParseTime = true
		cfg.Loc = time.Local
		cfg.Timeout = 5 * time.Second
		cfg.ReadTimeout = 30 * time.Second
		cfg.WriteTimeout = 30 * time.Second
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", cfg.FormatDSN(), nil
	case "postgres", "pgx":
		if env.DBDSN != "" {
			return "pgx", env.DBDSN, nil
		}
		port := env.DBPort
		if port == "" {
			port = "5432"
		}
		dsn = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			env.DBUser, env.DBPassword, net.JoinHostPort(env.DBHost, port), env.DBName)
		return "pgx", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported STORE_DRIVER %q", env.StoreDriver)
	}
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}

// ConnectRedis returns nil when REDIS_ADDR is not configured.
func ConnectRedis(ctx context.Context, env Env) (*redis.Client, error) {
	if env.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
