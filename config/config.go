package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	CRM        CRMConfig        `yaml:"crm"`
	Carrier    CarrierConfig    `yaml:"carrier"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	ShipReport ShipReportConfig `yaml:"shipreport"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                       string `yaml:"host"`
	Port                       int    `yaml:"port"`
	SnapshotCollectedTopicName string `yaml:"snapshot_collected_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CRMConfig struct {
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	Token    string `yaml:"token"`
	PageSize int    `yaml:"page_size" validate:"gte=0,lte=500"`
}

type CarrierConfig struct {
	URL     string   `yaml:"url" validate:"omitempty,url"`
	Mode    string   `yaml:"mode" validate:"omitempty,oneof=novaposhta fake"`
	APIKeys []string `yaml:"api_keys"`

	BatchSize             int `yaml:"batch_size" validate:"gte=0,lte=100"`
	RateLimitPerKeyMinute int `yaml:"rate_limit_per_key_minute" validate:"gte=0"`
}

type TelegramConfig struct {
	Token             string `yaml:"token"`
	SessionTTLSeconds int    `yaml:"session_ttl_seconds" validate:"gte=0"`
}

type ShipReportConfig struct {
	GRPCAddr           string `yaml:"grpc_addr"`
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	LogLevel           string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	LiveWindowDays    int `yaml:"live_window_days" validate:"gte=0"`
	ArchiveWindowDays int `yaml:"archive_window_days" validate:"gte=0"`

	// Время ежедневного сбора в Timezone. По умолчанию 23:50.
	Timezone      string `yaml:"timezone"`
	CollectHour   int    `yaml:"collect_hour" validate:"gte=0,lte=23"`
	CollectMinute int    `yaml:"collect_minute" validate:"gte=0,lte=59"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep these defaults, an explicit 0 stays 0.
	config := Config{ShipReport: ShipReportConfig{CollectHour: 23, CollectMinute: 50}}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// .env необязателен.
	_ = godotenv.Load()
	config.applyEnv(os.Getenv)

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// applyEnv overlays secrets from the environment on top of the YAML values.
// NP_KEY_1..NP_KEY_n replace the configured key list; NP_API_KEY is used only
// when no numbered keys are set.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("CRM_URL"); v != "" {
		c.CRM.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("CRM_TOKEN"); v != "" {
		c.CRM.Token = v
	}
	if v := getenv("BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}

	var keys []string
	for i := 1; ; i++ {
		k := getenv(fmt.Sprintf("NP_KEY_%d", i))
		if k == "" {
			break
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		if k := getenv("NP_API_KEY"); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		c.Carrier.APIKeys = keys
	}
}

func (c *Config) PostgresConnString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}

func (c *Config) SnapshotTopic() string {
	if c.Kafka.SnapshotCollectedTopicName == "" {
		return "snapshot.collected"
	}
	return c.Kafka.SnapshotCollectedTopicName
}
