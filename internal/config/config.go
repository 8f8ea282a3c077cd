package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Directory DirectoryConfig `mapstructure:"directory"`
	FCM       FCMConfig       `mapstructure:"fcm"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Reaper    ReaperConfig    `mapstructure:"reaper"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	// CreatedTopic carries record-created events (the trigger path).
	CreatedTopic string `mapstructure:"created_topic"`
	// CommandTopic carries broadcast fan-out commands from backend services.
	CommandTopic string `mapstructure:"command_topic"`
}

type AuthConfig struct {
	// JWTSecret verifies caller tokens (HS256).
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DirectoryConfig struct {
	// BaseURL of the account-management service.
	BaseURL string `mapstructure:"base_url"`
	// ServiceToken authenticates this service against the directory API.
	ServiceToken string `mapstructure:"service_token"`
}

type FCMConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LimitsConfig struct {
	// Mode selects the rate-limiter variant: "store" (authoritative,
	// multi-instance safe) or "memory" (single instance only).
	Mode          string `mapstructure:"mode"`
	WindowSeconds int    `mapstructure:"window_seconds"`
	Threshold     int    `mapstructure:"threshold"`
	// PruneSeconds is the in-memory cache eviction interval.
	PruneSeconds int `mapstructure:"prune_seconds"`
}

type ReaperConfig struct {
	// Hour of day (in Timezone) at which the daily sweep fires.
	Hour       int    `mapstructure:"hour"`
	BatchLimit int    `mapstructure:"batch_limit"`
	Timezone   string `mapstructure:"timezone"`
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: NOTIF_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "campo_notification")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "notification-service-group")
	v.SetDefault("kafka.created_topic", "notification-created")
	v.SetDefault("kafka.command_topic", "notification-commands")
	v.SetDefault("auth.jwt_secret", "dev-secret")
	v.SetDefault("directory.base_url", "http://localhost:8081")
	v.SetDefault("fcm.credentials_file", "serviceAccountKey.json")
	v.SetDefault("limits.mode", "store")
	v.SetDefault("limits.window_seconds", 60)
	v.SetDefault("limits.threshold", 10)
	v.SetDefault("limits.prune_seconds", 300)
	v.SetDefault("reaper.hour", 3)
	v.SetDefault("reaper.batch_limit", 500)
	v.SetDefault("reaper.timezone", "America/Sao_Paulo")

	// Environment variables (e.g. NOTIF_DATABASE_HOST -> database.host)
	v.SetEnvPrefix("NOTIF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support plain env vars for Docker Compose convenience
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("directory.base_url", "DIRECTORY_URL")
	v.BindEnv("directory.service_token", "DIRECTORY_SERVICE_TOKEN")
	v.BindEnv("fcm.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("server.port", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // Not required

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
}
