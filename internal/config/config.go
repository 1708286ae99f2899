package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env          string `yaml:"env" env:"APP_ENV" env-default:"prod"`
	ErrorLogPath string `yaml:"error_log_path" env:"ERROR_LOG_PATH" env-default:"errors.log"`
	HTTPServer   `yaml:"http_server"`
	MySQL        `yaml:"mysql"`
	Notify       `yaml:"notify"`

	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:5173"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
}

type MySQL struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"3306"`
	User            string        `yaml:"user" env:"DB_USER" env-required:"true"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-required:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	Migrate         bool          `yaml:"migrate" env:"DB_MIGRATE" env-default:"false"`
}

type Notify struct {
	Driver  string        `yaml:"driver" env:"NOTIFY_DRIVER" env-default:"log"`
	Timeout time.Duration `yaml:"timeout" env-default:"2s"`
	Kafka   Kafka         `yaml:"kafka"`
}

type Kafka struct {
	Brokers          []string      `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic            string        `yaml:"topic" env:"KAFKA_TOPIC" env-default:"atelier.production"`
	BreakerFailures  uint32        `yaml:"breaker_failures" env-default:"5"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay" env-default:"30s"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", path)
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}
