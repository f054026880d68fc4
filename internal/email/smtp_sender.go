package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPSender envia correos via SMTP respetando el deadline del contexto.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		useTLS:   useTLS,
	}, nil
}

func (s *SMTPSender) SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	return s.send(ctx, toEmail, verificationMessage(code, expiresAt))
}

func (s *SMTPSender) SendWelcome(ctx context.Context, toEmail, fullName, memberID string) error {
	return s.send(ctx, toEmail, welcomeMessage(fullName, memberID))
}

func (s *SMTPSender) SendLoginOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	return s.send(ctx, toEmail, loginOTPMessage(code, expiresAt))
}

func (s *SMTPSender) send(ctx context.Context, toEmail string, m message) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Corta I/O bloqueado si el contexto se cancela sin deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if s.useTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.host})
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if !s.useTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return err
			}
		}
	}
	if s.username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return err
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(buildMessage(s.from, s.fromName, toEmail, m.subject, m.body))); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

type message struct {
	subject string
	body    string
}

func verificationMessage(code string, expiresAt time.Time) message {
	return message{
		subject: "Verify your email",
		body: fmt.Sprintf(
			"Your verification code is %s.\nIt expires at %s UTC.\n",
			code,
			expiresAt.UTC().Format(time.RFC3339),
		),
	}
}

func welcomeMessage(fullName, memberID string) message {
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = "member"
	}
	return message{
		subject: "Welcome",
		body:    fmt.Sprintf("Welcome, %s.\nYour member ID is %s.\n", name, memberID),
	}
}

func loginOTPMessage(code string, expiresAt time.Time) message {
	return message{
		subject: "Your login code",
		body: fmt.Sprintf(
			"Your login code is %s.\nIt expires at %s UTC.\n",
			code,
			expiresAt.UTC().Format(time.RFC3339),
		),
	}
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
