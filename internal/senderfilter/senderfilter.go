// Package senderfilter decides which senders never get an automated reply,
// such as our own mailbox or no-reply robots, so the triage loop cannot
// answer itself.
package senderfilter

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

var defaultLocalParts = []string{"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon", "postmaster"}

// Checker matches senders against ignored domains and addresses
type Checker struct {
	domains    map[string]struct{}
	senders    map[string]struct{}
	localParts map[string]struct{}
	logger     *zap.Logger
}

// NewChecker creates a checker. Domains and senders are matched
// case-insensitively; automated local parts (noreply, mailer-daemon, ...)
// are always ignored.
func NewChecker(domains, senders []string, logger *zap.Logger) *Checker {
	c := &Checker{
		domains:    toSet(domains),
		senders:    toSet(senders),
		localParts: toSet(defaultLocalParts),
		logger:     logger,
	}

	if (len(c.domains) > 0 || len(c.senders) > 0) && logger != nil {
		logger.Info("Initialized sender filter",
			zap.Strings("ignored_domains", domains),
			zap.Strings("ignored_senders", senders))
	}
	return c
}

// Address extracts the bare lower-case address from a From header value
// such as "Anna Svensson <anna@example.se>"
func Address(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.Trim(from, "<>"))
}

// IsIgnored reports whether mail from this sender should be left alone
func (c *Checker) IsIgnored(from string) bool {
	addr := Address(from)
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	local, domain := addr[:at], addr[at+1:]

	reason := ""
	if _, ok := c.senders[addr]; ok {
		reason = "sender"
	} else if _, ok := c.domains[domain]; ok {
		reason = "domain"
	} else if _, ok := c.localParts[local]; ok {
		reason = "automated_sender"
	}
	if reason == "" {
		return false
	}

	if c.logger != nil {
		c.logger.Debug("Sender is ignored",
			zap.String("sender", addr),
			zap.String("reason", reason))
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
