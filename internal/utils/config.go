package utils

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER" envDefault:"mongo"`
	URI          string `env:"DB_URI"`
	Scheme       string `env:"DB_SCHEME" envDefault:"mongodb"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT"`
	User         string `env:"DB_USER"`
	Password     string `env:"DB_PASS"`
	Name         string `env:"DB_NAME" envDefault:"bdHomeFinders"`
	Transactions bool   `env:"DB_TRANSACTIONS" envDefault:"true"`
}

// MongoURI builds a connection string unless DB_URI overrides it.
// The mongodb+srv scheme takes no port.
func (c *DatabaseConfig) MongoURI() string {
	if c.URI != "" {
		return c.URI
	}
	host := c.Host
	if c.Scheme == "mongodb" {
		port := c.Port
		if port == "" {
			port = "27017"
		}
		host += ":" + port
	}
	u := url.URL{
		Scheme:   c.Scheme,
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

func (c *DatabaseConfig) PostgresDSN() string {
	if c.URI != "" {
		return c.URI
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + port + " sslmode=disable TimeZone=UTC"
}

type ServerConfig struct {
	Port        string   `env:"PORT" envDefault:"5000"`
	Mode        string   `env:"GIN_MODE" envDefault:"release"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

type TokenConfig struct {
	AccessTokenSecret string `env:"ACCESS_TOKEN_SECRET,required"`
}

type PaymentConfig struct {
	StripeSecretKey   string `env:"STRIPE_SECRET_KEY"`
	ReconcileSchedule string `env:"RECONCILE_SCHEDULE" envDefault:"@every 10m"`
}

type MailConfig struct {
	APIKey string `env:"MAIL_GUN_API_KEY"`
	Domain string `env:"MAIL_GUN_DOMAIN"`
	Sender string `env:"MAIL_SENDER" envDefault:"bdHomeFinders <no-reply@bdhomefinders.com>"`
}

type CacheConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"1m"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Token     TokenConfig
	Payment   PaymentConfig
	Mail      MailConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

// LoadConfig reads dotenvPath into the environment when the file exists and
// decodes the environment into a Config.
func LoadConfig(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.Database.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	return cfg, nil
}
