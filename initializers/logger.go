package initializers

import (
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/fiberlog"
)

func jsonFormatter() *log.JSONFormatter {
	return &log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime: "@timestamp",
			log.FieldKeyMsg:  "message",
		},
	}
}

// InitLogger request bodies are not logged, they carry personal data of portal users
func InitLogger() *fiberlog.Config {
	log.SetFormatter(jsonFormatter())
	log.SetLevel(log.InfoLevel)

	requestLogger := log.New()
	requestLogger.SetFormatter(jsonFormatter())
	requestLogger.SetLevel(log.InfoLevel)
	return &fiberlog.Config{
		Logger: requestLogger,
		Tags: []string{
			fiberlog.TagMethod,
			fiberlog.TagRoute,
			fiberlog.TagPath,
			fiberlog.TagStatus,
			fiberlog.TagLatency,
			fiberlog.TagIP,
			fiberlog.TagUserID,
			fiberlog.RequestID,
		},
	}
}

// ApplyLogLevel switches both loggers once the configuration is loaded, unknown levels keep info
func ApplyLogLevel(level string, loggerConfig *fiberlog.Config) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).WithField("level", level).Warn("unknown log level, using info")
		return
	}
	log.SetLevel(parsed)
	if loggerConfig != nil && loggerConfig.Logger != nil {
		loggerConfig.Logger.SetLevel(parsed)
	}
}
