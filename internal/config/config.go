package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Env       string         `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP      HTTP           `yaml:"http"`
	Postgres  Postgres       `yaml:"postgres"`
	PayPal    PayPal         `yaml:"paypal"`
	Currency  Currency       `yaml:"currency"`
	Access    Entitlements   `yaml:"entitlements"`
	Auth      Auth           `yaml:"auth"`
	Kafka     Kafka          `yaml:"kafka"`
	Reconcile Reconciliation `yaml:"reconciliation"`
}

type Auth struct {
	URL     string        `yaml:"url" env:"AUTH_URL" env-default:"http://localhost:8081/session"`
	Timeout time.Duration `yaml:"timeout" env:"AUTH_TIMEOUT" env-default:"15s"`
}

type HTTP struct {
	Addr        string   `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PG_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"PG_USERNAME" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-required:"true"`
	Database string `yaml:"database" env:"PG_DATABASE" env-default:"fitledger"`
	SSLMode  string `yaml:"ssl_mode" env:"PG_SSLMODE" env-default:"disable"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.Username, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type PayPal struct {
	BaseURL      string        `yaml:"base_url" env:"PAYPAL_BASE_URL" env-default:"https://api-m.sandbox.paypal.com"`
	ClientID     string        `yaml:"client_id" env:"PAYPAL_CLIENT_ID" env-required:"true"`
	ClientSecret string        `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET" env-required:"true"`
	Timeout      time.Duration `yaml:"timeout" env:"PAYPAL_TIMEOUT" env-default:"15s"`
}

type Currency struct {
	Reference string `yaml:"reference" env:"CURRENCY_REFERENCE" env-default:"RUB"`
}

// Entitlements control the optional expiry written onto new purchase
// records. Zero means the entitlement never expires.
type Entitlements struct {
	BundleTTL time.Duration `yaml:"bundle_ttl" env:"BUNDLE_TTL" env-default:"0"`
	CourseTTL time.Duration `yaml:"course_ttl" env:"COURSE_TTL" env-default:"0"`
}

type Kafka struct {
	Brokers string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:""`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"purchase.recorded"`
}

type Reconciliation struct {
	Interval time.Duration `yaml:"interval" env:"RECONCILE_INTERVAL" env-default:"1m"`
	MinAge   time.Duration `yaml:"min_age" env:"RECONCILE_MIN_AGE" env-default:"2m"`
}

// MustLoad reads CONFIG_PATH as yaml when set, otherwise environment only.
func MustLoad() Config {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			log.Fatalf("cannot read config %s: %v", path, err)
		}
		return cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %v", err)
	}
	return cfg
}
