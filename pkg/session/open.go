package session

import (
	"context"
	"os"

	"github.com/matzehuels/graphprod/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Environment variables consulted by Open when the config leaves the
// corresponding address empty.
const (
	EnvRedisAddr = "GRAPHPROD_REDIS_ADDR"
	EnvMongoURI  = "GRAPHPROD_MONGO_URI"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Dir      string // file backend; empty uses DefaultDir
	Redis    RedisConfig
	MongoURI string
}

// Open creates the store named by cfg.Backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		rc := cfg.Redis
		if rc.Addr == "" {
			rc.Addr = os.Getenv(EnvRedisAddr)
		}
		if rc.Addr == "" {
			rc.Addr = "localhost:6379"
		}
		return NewRedisStore(ctx, rc)
	case BackendMongo:
		uri := cfg.MongoURI
		if uri == "" {
			uri = os.Getenv(EnvMongoURI)
		}
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		return NewMongoStore(ctx, MongoConfig{URI: uri})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown store %q (want file, memory, redis or mongo)", cfg.Backend)
	}
}
