package smtp

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	log "github.com/sirupsen/logrus"
)

var Instance Provider

type Provider interface {
	SendEMail(to, subject, message string) error
}

type Config struct {
	User       string
	Password   string
	Host       string
	Port       string
	From       string
	TLSEnabled bool
}

func Connect(cfg Config) {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	Instance = &impl{cfg: cfg}
}

type impl struct {
	cfg Config
}

func (i impl) SendEMail(to, subject, message string) (err error) {
	logger := log.
		WithField("recipient", to).
		WithField("subject", subject)
	if i.cfg.User == "" || i.cfg.Host == "" || i.cfg.Port == "" {
		logger.Warn("e-mail not sent, smtp client is not configured")
		return nil
	}
	auth := sasl.NewPlainClient("", i.cfg.User, i.cfg.Password)
	body := strings.NewReader(buildMessage(i.cfg.From, to, subject, message))

	addr := i.cfg.Host + ":" + i.cfg.Port
	if i.cfg.TLSEnabled {
		err = smtp.SendMailTLS(addr, auth, i.cfg.From, []string{to}, body)
	} else {
		err = smtp.SendMail(addr, auth, i.cfg.From, []string{to}, body)
	}
	if err != nil {
		logger.WithError(err).Error("error sending e-mail")
		return err
	}
	logger.Info("e-mail sent")
	return nil
}

func buildMessage(from, to, subject, message string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: Spice Portal - %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(message, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return sb.String()
}
