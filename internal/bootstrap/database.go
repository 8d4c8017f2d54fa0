package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/migrate"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens the directory database and verifies it answers within
// DBConfig.ConnectTimeout.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	// Build DSN using url.URL to safely handle special characters in credentials
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBConfig.User, cfg.DBConfig.Password),
		Host:   net.JoinHostPort(cfg.DBConfig.Host, strconv.Itoa(cfg.DBConfig.Port)),
		Path:   "/" + cfg.DBConfig.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.DBConfig.SSLMode)
	u.RawQuery = q.Encode()
	dsn := u.String()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Lookups are short point reads; a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	timeout := cfg.DBConfig.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// ConnectRedis connects to the Redis deployment holding the persisted access token.
//
//nolint:ireturn // the deployment mode decides between single, sentinel, and cluster clients.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := redisTargetFor(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.newClient()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", target.String(), pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "mode", target.mode, "addr", target.String())
	}
	return client, nil
}

const (
	redisModeDirect   = "direct"
	redisModeSentinel = "sentinel"
	redisModeCluster  = "cluster"
)

// redisTarget is a resolved Redis deployment. Credentials never appear in String.
type redisTarget struct {
	mode string
	opts redis.UniversalOptions
}

func (t redisTarget) String() string {
	if t.mode == redisModeSentinel {
		return t.opts.MasterName + "@" + strings.Join(t.opts.Addrs, ",")
	}
	return strings.Join(t.opts.Addrs, ",")
}

//nolint:ireturn // see ConnectRedis.
func (t redisTarget) newClient() redis.UniversalClient {
	switch t.mode {
	case redisModeCluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case redisModeSentinel:
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

func redisTargetFor(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		return clusterTarget(cfg)
	case cfg.UseSentinel:
		addrs := normalizeAddrs(cfg.SentinelNodes)
		if len(addrs) == 0 {
			return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redisTarget{mode: redisModeSentinel, opts: redis.UniversalOptions{
			Addrs:            addrs,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		}}, nil
	default:
		opts, err := optionsFromURI(cfg.URI, cfg.Password, cfg.DB)
		if err != nil {
			return redisTarget{}, err
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis direct configuration requires a URI")
		}
		return redisTarget{mode: redisModeDirect, opts: opts}, nil
	}
}

// clusterTarget prefers explicit nodes and falls back to the URI as a seed node.
func clusterTarget(cfg config.RedisConfig) (redisTarget, error) {
	opts := redis.UniversalOptions{Addrs: normalizeAddrs(cfg.ClusterNodes), Password: cfg.Password}
	if len(opts.Addrs) == 0 {
		seed, err := optionsFromURI(cfg.URI, cfg.Password, 0)
		if err != nil {
			return redisTarget{}, fmt.Errorf("redis cluster seed: %w", err)
		}
		opts = seed
	}
	if len(opts.Addrs) == 0 {
		return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
	}
	// Cluster mode has no database index.
	opts.DB = 0
	return redisTarget{mode: redisModeCluster, opts: opts}, nil
}

// optionsFromURI accepts either a redis:// (rediss://) URL or a bare host:port.
// A password embedded in the URL wins over the configured one.
func optionsFromURI(uri, password string, db int) (redis.UniversalOptions, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return redis.UniversalOptions{}, nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return redis.UniversalOptions{Addrs: []string{uri}, Password: password, DB: db}, nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return redis.UniversalOptions{}, fmt.Errorf("parse redis url: %w", err)
	}
	opts := redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}
	if opts.Password == "" {
		opts.Password = password
	}
	return opts, nil
}

func normalizeAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// RunMigrations brings the faculty and students tables up to date.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	applied, err := migrate.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		if len(applied) == 0 {
			logger.InfoContext(ctx, "database schema up to date")
		} else {
			logger.InfoContext(ctx, "database migrations applied", "versions", applied)
		}
	}
	return nil
}
