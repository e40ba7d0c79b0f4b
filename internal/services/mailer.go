package services

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/config"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
)

// NoopMailer is used when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) Send(context.Context, string, string, string) error { return nil }

// SMTPMailer sends plain-text mail, upgrading with STARTTLS when offered.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewMailer(env config.Env) Mailer {
	if !env.SMTPConfigured() {
		utils.LogEvent("", "notify", "mailer", "smtp not configured, mail disabled")
		return NoopMailer{}
	}
	from := env.SMTPFrom
	if from == "" {
		from = env.SMTPUser
	}
	return SMTPMailer{Host: env.SMTPHost, Port: env.SMTPPort, User: env.SMTPUser, Pass: env.SMTPPass, From: from}
}

func (m SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
