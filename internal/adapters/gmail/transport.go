// Package gmail implements the mail transport on top of the Gmail API
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/adapters/googleauth"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/mailmsg"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user        = "me"
	unreadLabel = "UNREAD"
)

// Scopes are the OAuth scopes the transport needs
var Scopes = []string{gmailapi.GmailModifyScope, gmailapi.GmailSendScope}

// Transport reads unread mail from and sends mail through a Gmail account
type Transport struct {
	svc        *gmailapi.Service
	query      string
	maxResults int64
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.Mutex
	sender string
}

var _ core.MailTransport = (*Transport)(nil)

// New creates a transport around an existing Gmail service
func New(svc *gmailapi.Service, cfg config.GmailConfig, logger *zap.Logger) *Transport {
	return &Transport{
		svc:        svc,
		query:      cfg.Query,
		maxResults: cfg.MaxResults,
		sender:     cfg.Sender,
		logger:     logger,
		now:        time.Now,
	}
}

// NewFromFiles authorizes with the saved OAuth token and creates a transport
func NewFromFiles(ctx context.Context, cfg config.GmailConfig, logger *zap.Logger) (*Transport, error) {
	client, err := googleauth.Client(ctx, cfg.CredentialsFile, cfg.TokenFile, Scopes...)
	if err != nil {
		return nil, err
	}
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return New(svc, cfg, logger), nil
}

// ListUnread fetches messages matching the configured query, oldest first
func (t *Transport) ListUnread(ctx context.Context) ([]core.Message, error) {
	call := t.svc.Users.Messages.List(user).Q(t.query).Context(ctx)
	if t.maxResults > 0 {
		call = call.MaxResults(t.maxResults)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]core.Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := t.fetch(ctx, ref.Id)
		if err != nil {
			t.logger.Warn("Skipping unreadable message",
				zap.String("message_id", ref.Id),
				zap.Error(err))
			continue
		}
		messages = append(messages, *msg)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})
	return messages, nil
}

func (t *Transport) fetch(ctx context.Context, id string) (*core.Message, error) {
	raw, err := t.svc.Users.Messages.Get(user, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	data, err := base64.URLEncoding.DecodeString(raw.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	msg, err := mailmsg.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	msg.ID = raw.Id
	if raw.InternalDate > 0 {
		msg.ReceivedAt = time.UnixMilli(raw.InternalDate)
	}
	return msg, nil
}

// MarkRead removes the UNREAD label
func (t *Transport) MarkRead(ctx context.Context, id string) error {
	_, err := t.svc.Users.Messages.Modify(user, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{unreadLabel},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Send composes a message from the account address and sends it
func (t *Transport) Send(ctx context.Context, to, subject, body string) error {
	from, err := t.from(ctx)
	if err != nil {
		return err
	}
	raw, err := mailmsg.Compose(from, to, subject, body, t.now())
	if err != nil {
		return err
	}

	sent, err := t.svc.Users.Messages.Send(user, &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	t.logger.Info("Mail sent",
		zap.String("gmail_id", sent.Id),
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// from returns the configured sender, or the account address when none is set
func (t *Transport) from(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sender != "" {
		return t.sender, nil
	}
	profile, err := t.svc.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	t.sender = profile.EmailAddress
	return t.sender, nil
}
