package config

import (
	"os"
	"strconv"
	"time"

	"parkspace/pkg/domain"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr string
	HTTP HTTPConfig

	// MaxLotsPerWallet caps how many lots a single wallet may mint.
	MaxLotsPerWallet int
	// MintFee is charged on lot creation and forwarded to FeeRecipient.
	MintFee uint64
	// Grace is the window after a rental's return day during which the renter
	// can still settle before the lender may reclaim and blacklist.
	Grace time.Duration

	// Custodian is the escrow address that holds listed assets.
	Custodian domain.Address
	// FeeRecipient receives mint fees.
	FeeRecipient domain.Address

	Redis    RedisConfig
	Postgres PostgresConfig
}

// HTTPConfig holds socket timeouts for the API listener.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// RedisConfig configures the optional Redis-backed blacklist store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional PostgreSQL lot store.
type PostgresConfig struct {
	DSN string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr: envString("PARKSPACE_ADDR", ":8080"),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: envDuration("PARKSPACE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       envDuration("PARKSPACE_HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      envDuration("PARKSPACE_HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       envDuration("PARKSPACE_HTTP_IDLE_TIMEOUT", 2*time.Minute),
		},
		MaxLotsPerWallet: envInt("PARKSPACE_MAX_LOTS_PER_WALLET", 20),
		MintFee:          envUint("PARKSPACE_MINT_FEE", 1),
		Grace:            envDuration("PARKSPACE_GRACE", 5*time.Hour),
		Custodian:        domain.Address(envString("PARKSPACE_CUSTODIAN", "escrow")),
		FeeRecipient:     domain.Address(envString("PARKSPACE_FEE_RECIPIENT", "treasury")),
		Redis: RedisConfig{
			URL:          os.Getenv("PARKSPACE_REDIS_URL"),
			PoolSize:     envInt("PARKSPACE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PARKSPACE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("PARKSPACE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PARKSPACE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PARKSPACE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("PARKSPACE_POSTGRES_DSN"),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envUint(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
