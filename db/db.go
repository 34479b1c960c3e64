package db

import (
	"fmt"
	"time"

	gorm_logrus "github.com/onrik/gorm-logrus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

type Options struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
	Debug        bool
	Migrate      bool
}

func (o Options) dsn() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s password=%s",
		o.Host, o.Port, o.User, o.Name, sslMode, o.Password)
}

// Connect opens the shared connection once, later calls are no-ops
func Connect(opts Options) error {
	if DB != nil {
		return nil
	}
	conn, err := gorm.Open(postgres.Open(opts.dsn()), &gorm.Config{
		Logger: gorm_logrus.New(),
	})
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnLifetime)
	}
	if opts.Debug {
		conn.Logger = logger.Default.LogMode(logger.Info)
		conn = conn.Debug()
	}
	DB = conn
	if opts.Migrate {
		if err = AutoMigrateDB(); err != nil {
			return err
		}
	}
	log.
		WithField("host", opts.Host).
		WithField("database", opts.Name).
		Info("connected to the database")
	return nil
}

func PingDB() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
