package smtp

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/mailmsg"
	"go.uber.org/zap"
)

// Deliverer accepts parsed inbound messages
type Deliverer interface {
	Deliver(msg core.Message) string
}

// AuthConfig enables PLAIN authentication on the intake listener
type AuthConfig struct {
	Username string
	Password string
}

func (a AuthConfig) enabled() bool {
	return a.Username != ""
}

// IntakeServer accepts mail over SMTP and hands it to an inbox, so the
// triage loop can sit behind an MTA as a delivery target
type IntakeServer struct {
	server *smtp.Server
	logger *zap.Logger
}

// NewIntakeServer creates a new intake server
func NewIntakeServer(addr, domain string, auth AuthConfig, inbox Deliverer, logger *zap.Logger) *IntakeServer {
	if domain == "" {
		domain = "localhost"
	}

	server := smtp.NewServer(&backend{inbox: inbox, auth: auth, logger: logger})
	server.Addr = addr
	server.Domain = domain
	server.AllowInsecureAuth = true
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = 30 * 1024 * 1024
	server.MaxRecipients = 50

	return &IntakeServer{server: server, logger: logger}
}

// Start listens on the configured address in the background
func (s *IntakeServer) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.Serve(l); err != nil {
			s.logger.Error("SMTP intake error", zap.Error(err))
		}
	}()
	return nil
}

// Serve accepts connections on l until the server is stopped
func (s *IntakeServer) Serve(l net.Listener) error {
	s.logger.Info("SMTP intake listening", zap.String("address", l.Addr().String()))
	if err := s.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the intake server
func (s *IntakeServer) Stop() error {
	return s.server.Close()
}

type backend struct {
	inbox  Deliverer
	auth   AuthConfig
	logger *zap.Logger
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend       *backend
	from          string
	to            []string
	authenticated bool
}

func (s *session) AuthMechanisms() []string {
	if s.backend.auth.enabled() {
		return []string{sasl.Plain}
	}
	return nil
}

func (s *session) Auth(mech string) (sasl.Server, error) {
	if !s.backend.auth.enabled() {
		return nil, smtp.ErrAuthUnsupported
	}
	if mech != sasl.Plain {
		return nil, errors.New("unsupported authentication mechanism")
	}
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.backend.auth.Username || password != s.backend.auth.Password {
			return smtp.ErrAuthFailed
		}
		s.authenticated = true
		return nil
	}), nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	if s.backend.auth.enabled() && !s.authenticated {
		return smtp.ErrAuthRequired
	}
	s.from = normalizeAddress(from)
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.backend.auth.enabled() && !s.authenticated {
		return smtp.ErrAuthRequired
	}
	s.to = append(s.to, normalizeAddress(to))
	return nil
}

func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	msg, err := mailmsg.Parse(bytes.NewReader(raw))
	if err != nil {
		s.backend.logger.Warn("Rejecting unparseable message",
			zap.String("from", s.from),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	if msg.From == "" {
		msg.From = s.from
	}
	if len(msg.To) == 0 {
		msg.To = append(msg.To, s.to...)
	}

	id := s.backend.inbox.Deliver(*msg)
	s.backend.logger.Info("Message accepted",
		zap.String("message_id", id),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject))
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error {
	return nil
}

func normalizeAddress(addr string) string {
	return strings.TrimSpace(strings.ToLower(addr))
}
