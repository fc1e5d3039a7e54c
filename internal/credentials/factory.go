package credentials

import (
	"context"
	"fmt"
)

// Driver identifiers accepted by New.
const (
	DriverMemory   = "memory"
	DriverEnv      = "env"
	DriverFile     = "file"
	DriverKeychain = "keychain"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
)

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Config selects and configures a store backend.
type Config struct {
	Driver string
	// Path of the credentials file for DriverFile.
	Path  string
	Redis RedisConfig
	// DSN for DriverSQLite.
	SQLiteDSN string
}

// New creates a store for cfg.Driver. An empty driver means DriverFile at
// DefaultCredsPath.
func New(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverEnv:
		return NewEnvStore(), nil
	case DriverFile:
		path := cfg.Path
		if path == "" {
			path = DefaultCredsPath()
		}
		if path == "" {
			return nil, fmt.Errorf("no credentials path configured and no home directory available")
		}
		return NewFSStore(path), nil
	case DriverKeychain:
		return NewKeychainStore(), nil
	case DriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case DriverSQLite:
		dsn := cfg.SQLiteDSN
		if dsn == "" {
			dsn = DefaultSQLitePath()
			if err := EnsureParentDir(dsn); err != nil {
				return nil, err
			}
		}
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}
