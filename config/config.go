package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Email provider names selectable via EMAIL_PROVIDER.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSMTP     = "smtp"
)

// Storage backend names selectable via STORAGE_BACKEND.
const (
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"
)

// Event backend names selectable via EVENTS_BACKEND. Empty disables publishing.
const (
	EventsBackendRabbitMQ = "rabbitmq"
	EventsBackendPubSub   = "pubsub"
)

type Config struct {
	// Env is the runtime environment flag ("dev", "production").
	Env string

	ServerPort int

	// BaseURL is the public base URL of this service, used to build
	// verification links in outgoing email.
	BaseURL string

	// JWTSecret signs session tokens.
	JWTSecret string

	Database DatabaseConfig
	Mail     MailConfig
	Storage  StorageConfig
	Events   EventsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type MailConfig struct {
	// Provider is "sendgrid" or "smtp". When unset it is derived from the
	// environment flag: production uses the transactional API, everything
	// else uses direct SMTP.
	Provider string

	// From is the sender address on outgoing mail.
	From string

	SendGrid SendGridConfig
	SMTP     SMTPConfig
}

type SendGridConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type StorageConfig struct {
	// Backend is "minio" or "gcs".
	Backend string

	Minio MinioConfig
	GCS   GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL overrides the URL under which uploaded objects are
	// reachable, for deployments behind a CDN or reverse proxy.
	PublicBaseURL string
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type EventsConfig struct {
	// Backend is "rabbitmq", "pubsub", or empty to disable event publishing.
	Backend string

	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL          string
	QueueDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	env := getEnv("ENV", "dev")
	if env == "dev" {
		godotenv.Load()
	}

	mailProvider := getEnv("EMAIL_PROVIDER", "")
	if mailProvider == "" {
		if env == "production" {
			mailProvider = EmailProviderSendGrid
		} else {
			mailProvider = EmailProviderSMTP
		}
	}

	return Config{
		Env:        env,
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		BaseURL:    strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "accounts"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "accounts_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Mail: MailConfig{
			Provider: mailProvider,
			From:     getEnv("EMAIL_FROM", "no-reply@localhost"),
			SendGrid: SendGridConfig{
				APIKey:  getEnv("SENDGRID_API_KEY", ""),
				BaseURL: getEnv("SENDGRID_BASE_URL", ""),
			},
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", "localhost"),
				Port:     getEnvInt("SMTP_PORT", 587),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
			},
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", StorageBackendMinio),
			Minio: MinioConfig{
				Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
				Bucket:        getEnv("MINIO_BUCKET", "avatars"),
				UseSSL:        getEnvBool("MINIO_USE_SSL", false),
				PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", ""),
			RabbitMQ: RabbitMQConfig{
				URL:          getEnv("RABBITMQ_URL", ""),
				QueueDurable: getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
