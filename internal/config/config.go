package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramConfig TelegramConfig
	PostgresConfig PostgresConfig
	KafkaConfig    KafkaConfig
	ReminderConfig ReminderConfig
	MetricsConfig  MetricsConfig
	TracingConfig  TracingConfig
}

type TelegramConfig struct {
	TokenTaskBot     string
	TokenReminderBot string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type ReminderConfig struct {
	// Hour is the UTC hour at which the daily reminder scan fires.
	Hour int
}

type MetricsConfig struct {
	Addr string
}

type TracingConfig struct {
	Endpoint string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	reminderHour, err := strconv.Atoi(getEnv("REMINDER_HOUR", "18"))
	if err != nil || reminderHour < 0 || reminderHour > 23 {
		return nil, fmt.Errorf("REMINDER_HOUR must be an hour between 0 and 23")
	}

	config := &Config{
		TelegramConfig: TelegramConfig{
			TokenTaskBot:     getEnv("TOKEN_TASK_BOT", ""),
			TokenReminderBot: getEnv("TOKEN_REMINDER_BOT", ""),
		},
		PostgresConfig: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "user"),
			Password: getEnv("POSTGRES_PASSWORD", "password"),
			DBName:   getEnv("POSTGRES_DB", "dbname"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "reminders"),
			GroupID: getEnv("KAFKA_GROUP_ID", "reminder-consumers"),
		},
		ReminderConfig: ReminderConfig{
			Hour: reminderHour,
		},
		MetricsConfig: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":8080"),
		},
		TracingConfig: TracingConfig{
			Endpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
	}

	return config, nil
}

// ConnString builds the postgres connection URL.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresConfig.User,
		c.PostgresConfig.Password,
		c.PostgresConfig.Host,
		c.PostgresConfig.Port,
		c.PostgresConfig.DBName,
		c.PostgresConfig.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
