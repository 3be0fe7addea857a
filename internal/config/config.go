// Package config загружает конфигурацию сервиса из YAML-файла, путь к которому
// задаётся переменной окружения CONFIG_PATH. Значения можно переопределить
// переменными окружения, указанными в тегах env.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Settlement              `yaml:"settlement"`
	LedgerGateway           `yaml:"ledger_gateway"`
	RateLimit               `yaml:"rate_limit"`
}

type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection — кэш каталога. Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CatalogTTL   time.Duration `yaml:"catalog_ttl" env-default:"5m"`
}

type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ — доставка уведомлений о новых записях расчёта. Пустой URL означает,
// что API запускает сверщик у себя и будит его напрямую.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"settlements"`
	Queue      string        `yaml:"queue" env-default:"settlements.pending"`
	RoutingKey string        `yaml:"routing_key" env-default:"pending"`
}

type Settlement struct {
	MaxAttempts    int           `yaml:"max_attempts" env-default:"5"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env-default:"2s"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env-default:"5m"`
	Jitter         float64       `yaml:"jitter" env-default:"0.2"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env-default:"15s"`
	Lease          time.Duration `yaml:"lease" env-default:"1m"`
	BatchSize      int           `yaml:"batch_size" env-default:"20"`
	PollInterval   time.Duration `yaml:"poll_interval" env-default:"10s"`
	SweepSchedule  string        `yaml:"sweep_schedule" env-default:"@every 30s"`
	AuditSchedule  string        `yaml:"audit_schedule" env-default:"0 3 * * *"`
	// MetricsAddress — адрес /metrics и /health процесса settlement-worker.
	MetricsAddress string        `yaml:"metrics_address" env-default:":9091"`
}

type LedgerGateway struct {
	URL              string        `yaml:"url" env:"LEDGER_GATEWAY_URL"`
	ContractAddress  string        `yaml:"contract_address" env:"LEDGER_CONTRACT_ADDRESS"`
	Timeout          time.Duration `yaml:"timeout" env-default:"10s"`
	BreakerFailures  uint32        `yaml:"breaker_failures" env-default:"5"`
	BreakerInterval  time.Duration `yaml:"breaker_interval" env-default:"1m"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay" env-default:"30s"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// Load читает конфигурацию из файла path.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad читает конфигурацию по CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("jwttoken.jwt_secret_key is required")
	}
	if c.Settlement.MaxAttempts < 1 {
		return fmt.Errorf("settlement.max_attempts must be positive")
	}
	if c.Settlement.Jitter < 0 || c.Settlement.Jitter > 1 {
		return fmt.Errorf("settlement.jitter must be within [0,1]")
	}
	if c.Settlement.InitialBackoff <= 0 || c.Settlement.MaxBackoff < c.Settlement.InitialBackoff {
		return fmt.Errorf("settlement backoff bounds are invalid")
	}
	return nil
}

// UsesMemoryStorage сообщает, что строка подключения пуста и данные живут в памяти процесса.
func (c *Config) UsesMemoryStorage() bool {
	return c.StorageConnectionString == ""
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MemoryStorage: %t\n"+
			"MigrationsPath: %s\n"+
			"Redis: %s (db %d)\n"+
			"HTTPServer: %s timeout=%s idle=%s\n"+
			"RabbitMQ: enabled=%t exchange=%s queue=%s\n"+
			"Settlement: max_attempts=%d backoff=%s..%s jitter=%.2f timeout=%s\n"+
			"LedgerGateway: %s timeout=%s\n",
		c.Env,
		c.UsesMemoryStorage(),
		c.MigrationsPath,
		c.AddressRedis, c.DB,
		c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout,
		c.RabbitMQ.URL != "", c.Exchange, c.Queue,
		c.MaxAttempts, c.InitialBackoff, c.MaxBackoff, c.Jitter, c.AttemptTimeout,
		c.LedgerGateway.URL, c.LedgerGateway.Timeout,
	)
}
