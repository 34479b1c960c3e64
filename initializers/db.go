package initializers

import (
	"time"

	"spice-portal-backend/config"
	"spice-portal-backend/db"
)

// DBOptions connection settings of the configured database
func DBOptions(migrate bool) db.Options {
	conf := config.Conf.Database
	return db.Options{
		Host:         conf.Host,
		Port:         conf.Port,
		Name:         conf.Name,
		User:         conf.User,
		Password:     conf.Password,
		SSLMode:      conf.SSLMode,
		MaxOpenConns: conf.MaxOpenConns,
		MaxIdleConns: conf.MaxIdleConns,
		ConnLifetime: time.Duration(conf.ConnLifetimeM) * time.Minute,
		Debug:        *conf.DebugMode,
		Migrate:      migrate,
	}
}

func InitDBConnection() {
	if err := db.Connect(DBOptions(*config.Conf.Database.MigrateOnStart)); err != nil {
		panic(err.Error())
	}
	if *config.Conf.Database.SeedOnStart {
		db.InitPreload()
	}
}
