// Package mail transmits assembled reports over SMTP.
package mail

import (
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is a fully assembled report email.
type Message struct {
	Subject  string
	HTMLBody string
	From     string
	To       []string
}

// ServerConfig is the per-user SMTP endpoint.
type ServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Sender delivers messages. Failures are logged and reported as false, never
// raised: the pipeline decides how to record them.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

// SplitRecipients splits a comma-separated address list, trimming whitespace
// and dropping empty entries.
func SplitRecipients(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		if a := strings.TrimSpace(addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Send transmits the message. Port 465 means implicit TLS from connect; any
// other port dials plaintext and upgrades via STARTTLS before authenticating.
func (s *Sender) Send(msg Message, server ServerConfig) bool {
	if len(msg.To) == 0 {
		s.log.Error("no recipients configured", zap.String("from", msg.From))
		return false
	}
	if server.Host == "" || server.Port == 0 {
		s.log.Error("smtp server not configured", zap.String("from", msg.From))
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	d := gomail.NewDialer(server.Host, server.Port, server.Username, server.Password)
	d.SSL = server.Port == 465

	if err := d.DialAndSend(m); err != nil {
		s.log.Error("email send failed",
			zap.String("host", server.Host),
			zap.Int("port", server.Port),
			zap.Strings("to", msg.To),
			zap.Error(err),
		)
		return false
	}

	s.log.Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Strings("to", msg.To),
	)
	return true
}
