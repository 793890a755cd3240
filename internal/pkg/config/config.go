package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, sweep cadence, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Engine  EngineConfig
	Payment PaymentConfig
	Notify  NotifyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// EngineConfig tunes the reservation engine itself.
//
// OverlapPolicy selects the conflict predicate: "half_open" treats intervals
// as [start, end) so back-to-back bookings never conflict; "inclusive"
// reproduces the legacy closed-bound behavior that rejects touching
// boundaries.
type EngineConfig struct {
	ApprovalWindow time.Duration `envconfig:"ENGINE_APPROVAL_WINDOW" default:"48h"`
	SweepInterval  time.Duration `envconfig:"ENGINE_SWEEP_INTERVAL" default:"1m"`
	SweepBatchSize int           `envconfig:"ENGINE_SWEEP_BATCH_SIZE" default:"100"`
	OverlapPolicy  string        `envconfig:"ENGINE_OVERLAP_POLICY" default:"half_open"`
	ServiceFeeRate float64       `envconfig:"ENGINE_SERVICE_FEE_RATE" default:"0.10"`
	TaxRate        float64       `envconfig:"ENGINE_TAX_RATE" default:"0.0"`
}

type PaymentConfig struct {
	BaseURL    string        `envconfig:"PAYMENT_BASE_URL" required:"true"`
	APIKey     string        `envconfig:"PAYMENT_API_KEY" required:"true"`
	Timeout    time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"PAYMENT_MAX_RETRIES" default:"2"`
}

type NotifyConfig struct {
	BaseURL string        `envconfig:"NOTIFY_BASE_URL" default:""`
	Timeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level: "error",
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
		Engine: EngineConfig{
			ApprovalWindow: 48 * time.Hour,
			SweepInterval:  time.Minute,
			SweepBatchSize: 100,
			OverlapPolicy:  "half_open",
			ServiceFeeRate: 0.10,
			TaxRate:        0.0,
		},
	}
}
