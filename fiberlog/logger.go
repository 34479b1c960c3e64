package fiberlog

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

func fields(ftm map[string]FuncTag, c *fiber.Ctx, d *data) log.Fields {
	f := make(log.Fields, len(ftm))
	for k, ft := range ftm {
		value := ft(c, d)
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		f[k] = value
	}
	return f
}

// New logs one entry per api call, the level follows the response status
func New(config ...Config) fiber.Handler {
	cfg := ConfigDefault
	if len(config) > 0 {
		cfg = config[0]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	pid := os.Getpid()
	ftm := getFuncTagMap(cfg, &data{pid: pid})
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		d := &data{pid: pid, start: time.Now()}
		if chainErr := c.Next(); chainErr != nil {
			// resolve the status now so the entry shows what the client gets
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		d.end = time.Now()

		entry := logger.WithFields(fields(ftm, c, d))
		switch status := c.Response().StatusCode(); {
		case status >= fiber.StatusInternalServerError:
			entry.Error("api request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("api request rejected")
		default:
			entry.Info("api request")
		}
		return nil
	}
}
