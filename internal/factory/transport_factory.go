package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/gmail"
	"github.com/mikey/llm-mail-triage/internal/adapters/inbox"
	"github.com/mikey/llm-mail-triage/internal/adapters/smtp"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// Transport is the mail transport together with the SMTP intake server
// feeding it, if any
type Transport struct {
	core.MailTransport
	Intake *smtp.IntakeServer
}

// TransportFactory creates mail transports based on configuration
type TransportFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTransportFactory creates a new transport factory
func NewTransportFactory(cfg *config.Config, logger *zap.Logger) *TransportFactory {
	return &TransportFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTransport creates the transport selected by transport.type
func (f *TransportFactory) CreateTransport(ctx context.Context) (*Transport, error) {
	transportType := f.cfg.GetTransport().Type
	f.logger.Info("Creating mail transport", zap.String("type", transportType))

	switch transportType {
	case "stub":
		return &Transport{MailTransport: inbox.NewStubTransport(f.logger)}, nil
	case "demo":
		return &Transport{MailTransport: inbox.NewDemoTransport(f.logger)}, nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		box := inbox.NewMemoryInbox(f.logger)
		intake := smtp.NewIntakeServer(
			smtpCfg.IntakeAddress,
			smtpCfg.IntakeDomain,
			smtp.AuthConfig{Username: smtpCfg.IntakeUsername, Password: smtpCfg.IntakePassword},
			box,
			f.logger,
		)
		return &Transport{
			MailTransport: &inbox.Transport{MemoryInbox: box, Sender: smtp.NewSender(smtpCfg, f.logger)},
			Intake:        intake,
		}, nil
	case "gmail":
		t, err := gmail.NewFromFiles(ctx, f.cfg.GetGmail(), f.logger)
		if err != nil {
			return nil, err
		}
		return &Transport{MailTransport: t}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}
