package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	AppName     string
	Port        string
	StoreDriver string // "mongo" or "memory"
	Mongo       Mongo
	JWT         JWT
	Minio       Minio
	Export      Export
	Certificate Certificate
	Payment     Payment
	Mail        Mail
	Log         Log
	HTTP        HTTP
}

type Mongo struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type Export struct {
	Retention time.Duration
	URLExpiry time.Duration
	Schedule  string
}

type Certificate struct {
	TemplatePath string
	MinProgress  int
}

type Payment struct {
	Secret   string
	Currency string
}

type Mail struct {
	SendgridKey string
	FromName    string
	FromEmail   string
}

type Log struct {
	Level  string
	Format string
}

type HTTP struct {
	RequestTimeout time.Duration
	AllowOrigins   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "SchoolDesk")
	v.SetDefault("port", "8080")
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "schooldesk")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("jwt.ttl", 4*time.Hour)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.accessKey", "minioadmin")
	v.SetDefault("minio.secretKey", "minioadmin")
	v.SetDefault("minio.useSSL", false)
	v.SetDefault("minio.bucket", "certificate-exports")
	v.SetDefault("export.retention", 24*time.Hour)
	v.SetDefault("export.urlExpiry", 30*time.Minute)
	v.SetDefault("export.schedule", "@hourly")
	v.SetDefault("certificate.minProgress", 75)
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("mail.fromName", "SchoolDesk")
	v.SetDefault("mail.fromEmail", "noreply@localhost")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.requestTimeout", 30*time.Second)
	v.SetDefault("http.allowOrigins", "*")
}

// Load reads configuration from defaults, an optional .env file and the
// environment. Keys map to SCHOOLDESK_<SECTION>_<KEY>, e.g. SCHOOLDESK_JWT_SECRET.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("schooldesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		AppName:     v.GetString("app.name"),
		Port:        v.GetString("port"),
		StoreDriver: v.GetString("store.driver"),
		Mongo: Mongo{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
			Timeout:  v.GetDuration("mongo.timeout"),
		},
		JWT: JWT{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		Minio: Minio{
			Endpoint:  v.GetString("minio.endpoint"),
			AccessKey: v.GetString("minio.accessKey"),
			SecretKey: v.GetString("minio.secretKey"),
			UseSSL:    v.GetBool("minio.useSSL"),
			Bucket:    v.GetString("minio.bucket"),
		},
		Export: Export{
			Retention: v.GetDuration("export.retention"),
			URLExpiry: v.GetDuration("export.urlExpiry"),
			Schedule:  v.GetString("export.schedule"),
		},
		Certificate: Certificate{
			TemplatePath: v.GetString("certificate.templatePath"),
			MinProgress:  v.GetInt("certificate.minProgress"),
		},
		Payment: Payment{
			Secret:   v.GetString("payment.secret"),
			Currency: v.GetString("payment.currency"),
		},
		Mail: Mail{
			SendgridKey: v.GetString("mail.sendgridKey"),
			FromName:    v.GetString("mail.fromName"),
			FromEmail:   v.GetString("mail.fromEmail"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTP{
			RequestTimeout: v.GetDuration("http.requestTimeout"),
			AllowOrigins:   v.GetString("http.allowOrigins"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("SCHOOLDESK_JWT_SECRET is required")
	}
	if cfg.StoreDriver != "mongo" && cfg.StoreDriver != "memory" {
		return nil, errors.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return cfg, nil
}
