package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPSender delivers ChannelEmail jobs.
type SMTPSender struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(from, fromName, host, port, user, pass string) *SMTPSender {
	return &SMTPSender{
		From:     from,
		FromName: fromName,
		Host:     host,
		Port:     port,
		User:     user,
		Pass:     pass,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(_ context.Context, job Job) error {
	if job.To == "" {
		return fmt.Errorf("email job %s has no recipient", job.ID)
	}

	var auth smtp.Auth
	if s.User != "" && s.Pass != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	addr := s.Host + ":" + s.Port
	return s.sendMail(addr, auth, s.From, []string{job.To}, s.message(job))
}

func (s *SMTPSender) message(job Job) []byte {
	msg := fmt.Sprintf("From: %s <%s>\r\n", s.FromName, s.From)
	msg += fmt.Sprintf("To: %s\r\n", job.To)
	msg += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	msg += "Content-Type: text/plain; charset=UTF-8\r\n"
	msg += "\r\n" + job.Body
	return []byte(msg)
}
