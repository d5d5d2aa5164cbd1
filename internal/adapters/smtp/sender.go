// Package smtp delivers replies through an SMTP relay and accepts inbound
// mail on a local SMTP listener.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/mailmsg"
	"go.uber.org/zap"
)

// Sender relays replies through an SMTP server
type Sender struct {
	host     string
	addr     string
	username string
	password string
	from     string
	startTLS bool
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSender creates a new SMTP sender
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{
		host:     cfg.Host,
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		startTLS: cfg.StartTLS,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Send composes a plain text message and relays it
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	raw, err := mailmsg.Compose(s.from, to, subject, body, s.now())
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := s.now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	var c *smtp.Client
	if s.startTLS {
		c, err = smtp.NewClientStartTLS(conn, &tls.Config{ServerName: s.host})
		if err != nil {
			conn.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	} else {
		c = smtp.NewClient(conn)
	}
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("SMTP server does not support authentication")
		}
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := c.Mail(s.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(to, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(raw); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has been accepted at this point
		s.logger.Warn("QUIT command failed", zap.Error(err))
	}

	s.logger.Info("Mail sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("relay", s.addr))
	return nil
}
