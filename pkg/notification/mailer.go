package notification

import (
	"strconv"

	"WasteGuard-Backend/internal/utils"

	"gopkg.in/gomail.v2"
)

type (
	// Mailer delivers an alert by email. Used alongside push so users
	// without a registered device still hear about expiring products.
	Mailer interface {
		SendExpiryAlert(to, title, body string) error
	}

	smtpMailer struct {
		host       string
		port       int
		senderName string
		authEmail  string
		password   string
	}
)

func NewSMTPMailer() Mailer {
	port, _ := strconv.Atoi(utils.GetConfig("SMTP_PORT"))
	return &smtpMailer{
		host:       utils.GetConfig("SMTP_HOST"),
		port:       port,
		senderName: utils.GetConfig("SMTP_SENDER_NAME"),
		authEmail:  utils.GetConfig("SMTP_AUTH_EMAIL"),
		password:   utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

func (m *smtpMailer) SendExpiryAlert(to, title, body string) error {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.senderName)
	mail.SetHeader("To", to)
	mail.SetHeader("Subject", title)
	mail.SetBody("text/html", "<p>"+body+"</p>")

	dialer := gomail.NewDialer(m.host, m.port, m.authEmail, m.password)
	return dialer.DialAndSend(mail)
}

// NopMailer drops every message.
type NopMailer struct{}

func (NopMailer) SendExpiryAlert(string, string, string) error { return nil }
