package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Coupon   CouponConfig   `yaml:"coupon"`
	Booking  BookingConfig  `yaml:"booking"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationsTopic  string   `yaml:"reservations_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type WalletConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CouponConfig struct {
	BaseURL         string `yaml:"base_url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type BookingConfig struct {
	SlotLockTTLSeconds   int     `yaml:"slot_lock_ttl_seconds"`
	StatsCacheTTLSeconds int     `yaml:"stats_cache_ttl_seconds"`
	ConfirmRatePerSecond float64 `yaml:"confirm_rate_per_second"`
	ConfirmRateBurst     int     `yaml:"confirm_rate_burst"`
}

// LoadConfig reads the yaml config at path. Secrets can be overridden through
// the environment (DB_PASSWORD, JWT_SECRET, WALLET_BASE_URL, COUPON_BASE_URL),
// typically loaded from .env by the entrypoint.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("WALLET_BASE_URL"); v != "" {
		cfg.Wallet.BaseURL = v
	}
	if v := os.Getenv("COUPON_BASE_URL"); v != "" {
		cfg.Coupon.BaseURL = v
	}

	return &cfg, nil
}
