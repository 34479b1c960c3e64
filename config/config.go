package config

import (
	"time"

	"github.com/gotify/configor"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var Conf *Configuration

type GatewayMode string

const (
	GatewayModeLocal  GatewayMode = "local"
	GatewayModeRemote GatewayMode = "remote"
)

type Configuration struct {
	App struct {
		ListenAddr  string `default:"" env:"APP_HOST"`
		Port        int    `default:"8080"  env:"APP_PORT"`
		BodyLimitMb int    `default:"10" env:"APP_BODY_LIMIT_MB"`
		CorsOrigins string `default:"*" env:"APP_CORS_ORIGINS"`
		LogLevel    string `default:"info" env:"APP_LOG_LEVEL"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"spice-portal" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		SeedOnStart    *bool  `default:"true" env:"DB_SEED_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
		SSLMode        string `default:"disable" env:"DB_SSL_MODE"`
		MaxOpenConns   int    `default:"20" env:"DB_MAX_OPEN_CONNS"`
		MaxIdleConns   int    `default:"5" env:"DB_MAX_IDLE_CONNS"`
		ConnLifetimeM  int    `default:"30" env:"DB_CONN_LIFETIME_MIN"`
	}
	Auth struct {
		JWTSecret      string `default:"" env:"AUTH_JWT_SECRET"`
		JWTExpireInSec int    `default:"86400" env:"AUTH_JWT_EXPIRE_IN_SEC"`
	}
	Approval struct {
		MinRemarksLength      int         `default:"10" env:"APPROVAL_MIN_REMARKS_LENGTH"`
		LockWaitSec           int         `default:"5" env:"APPROVAL_LOCK_WAIT_SEC"`
		GatewayMode           GatewayMode `default:"local" env:"APPROVAL_GATEWAY_MODE"`
		SagaWorkerIntervalSec int         `default:"60" env:"APPROVAL_SAGA_WORKER_INTERVAL_SEC"`
	}
	Gateway struct {
		BaseURL    string  `default:"" env:"GATEWAY_BASE_URL"`
		Token      string  `default:"" env:"GATEWAY_TOKEN"`
		TimeoutSec int     `default:"10" env:"GATEWAY_TIMEOUT_SEC"`
		RateLimit  float64 `default:"10" env:"GATEWAY_RATE_LIMIT"`
		Burst      int     `default:"5" env:"GATEWAY_BURST"`
	}
	Lookup struct {
		CacheTTLSec int `default:"300" env:"LOOKUP_CACHE_TTL_SEC"`
	}
	S3 struct {
		Endpoint        string `default:"" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"spice-portal" env:"S3_BUCKET_NAME"`
		Region          string `default:"us-east-1" env:"S3_REGION"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		From       string `default:"" env:"SMTP_FROM"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
	}
	Admin struct {
		Email    string `default:"admin@spice.gov.lk" env:"ADMIN_EMAIL"`
		FullName string `default:"Portal Administrator" env:"ADMIN_FULL_NAME"`
	}
	ErrNotify struct {
		Addr string `default:"" env:"ERR_NOTIFY_ADDR"`
	}
	RateLimit struct {
		Max         int `default:"120" env:"RATE_LIMIT_MAX"`
		ExpirationS int `default:"60" env:"RATE_LIMIT_EXPIRATION_SEC"`
	}
	Render struct {
		Slots int `default:"2" env:"RENDER_SLOTS"`
	}
}

func (c Configuration) LockWait() time.Duration {
	return time.Duration(c.Approval.LockWaitSec) * time.Second
}

func (c Configuration) SagaWorkerInterval() time.Duration {
	return time.Duration(c.Approval.SagaWorkerIntervalSec) * time.Second
}

func (c Configuration) LookupCacheTTL() time.Duration {
	return time.Duration(c.Lookup.CacheTTLSec) * time.Second
}

func (c Configuration) TokenTTL() time.Duration {
	return time.Duration(c.Auth.JWTExpireInSec) * time.Second
}

func (c Configuration) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSec) * time.Second
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not loaded, using process environment")
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
