package initializers

import (
	"spice-portal-backend/config"
	"spice-portal-backend/lib/smtp"
)

func InitSmtp() {
	smtp.Connect(smtp.Config{
		User:       config.Conf.Smtp.User,
		Password:   config.Conf.Smtp.Password,
		Host:       config.Conf.Smtp.Host,
		Port:       config.Conf.Smtp.Port,
		From:       config.Conf.Smtp.From,
		TLSEnabled: *config.Conf.Smtp.TLSEnabled,
	})
}
