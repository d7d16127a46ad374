package config

import (
	"fmt"
	"os"
)

// Config holds infrastructure details shared by every binary in this
// repo: database, Kafka, RabbitMQ, Temporal and carrier credentials.
// Everything comes from environment variables so the same image runs in
// docker-compose and in production unchanged.
type Config struct {
	// Database (PostgreSQL)
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string

	// Kafka
	KAFKA_BROKER      string
	KAFKA_PAID_TOPIC  string // checkout publishes shipment.paid here
	KAFKA_EVENT_TOPIC string // we publish shipment.label_ready here

	// RabbitMQ (notification jobs)
	RABBITMQ_USER     string
	RABBITMQ_PASSWORD string
	RABBITMQ_HOST     string
	RABBITMQ_PORT     string

	// Temporal
	TEMPORAL_HOST_PORT string

	// Carrier credentials. Empty values disable the carrier at resolve
	// time rather than failing at startup.
	DHL_API_USER    string
	DHL_API_KEY     string
	DHL_ACCOUNT     string
	FEDEX_CLIENT_ID string
	FEDEX_SECRET    string
	FEDEX_ACCOUNT   string
	UPS_CLIENT_ID   string
	UPS_SECRET      string
	UPS_ACCOUNT     string
	MYUS_API_KEY    string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),

		KAFKA_BROKER:      os.Getenv("KAFKA_BROKER"),
		KAFKA_PAID_TOPIC:  getenv("KAFKA_PAID_TOPIC", "shipment.paid"),
		KAFKA_EVENT_TOPIC: getenv("KAFKA_EVENT_TOPIC", "shipment.events"),

		RABBITMQ_USER:     os.Getenv("RABBITMQ_USER"),
		RABBITMQ_PASSWORD: os.Getenv("RABBITMQ_PASSWORD"),
		RABBITMQ_HOST:     os.Getenv("RABBITMQ_HOST"),
		RABBITMQ_PORT:     os.Getenv("RABBITMQ_PORT"),

		TEMPORAL_HOST_PORT: getenv("TEMPORAL_HOST_PORT", "temporal:7233"),

		DHL_API_USER:    os.Getenv("DHL_API_USER"),
		DHL_API_KEY:     os.Getenv("DHL_API_KEY"),
		DHL_ACCOUNT:     os.Getenv("DHL_ACCOUNT"),
		FEDEX_CLIENT_ID: os.Getenv("FEDEX_CLIENT_ID"),
		FEDEX_SECRET:    os.Getenv("FEDEX_SECRET"),
		FEDEX_ACCOUNT:   os.Getenv("FEDEX_ACCOUNT"),
		UPS_CLIENT_ID:   os.Getenv("UPS_CLIENT_ID"),
		UPS_SECRET:      os.Getenv("UPS_SECRET"),
		UPS_ACCOUNT:     os.Getenv("UPS_ACCOUNT"),
		MYUS_API_KEY:    os.Getenv("MYUS_API_KEY"),
	}
}

// GetDBURL formats the config into a PostgreSQL connection string.
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into an AMQP connection string.
// Defaults to the standard port when unset so local runs don't crash.
func (c *Config) GetRabbitMQURL() string {
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
