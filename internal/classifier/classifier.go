// Package classifier turns an inbound message into a routing decision by
// asking the oracle for a structured verdict.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
	"go.uber.org/zap"
)

const purpose = "classify"

// Options configures a Classifier
type Options struct {
	BusinessName string
	Temperature  float32
	Location     *time.Location
}

// Classifier labels messages with a core.Decision
type Classifier struct {
	oracle   *core.OracleService
	catalog  *catalog.Catalog
	text     *utils.TextProcessor
	observer core.OracleObserver
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// verdict is the JSON object the oracle is asked to produce
type verdict struct {
	Type               string          `json:"type"`
	Products           json.RawMessage `json:"products"`
	ProjectDescription string          `json:"project_description"`
	MeetingTime        string          `json:"meeting_time"`
}

// New creates a classifier. observer may be nil.
func New(oracle *core.OracleService, cat *catalog.Catalog, text *utils.TextProcessor, observer core.OracleObserver, opts Options, logger *zap.Logger) *Classifier {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Classifier{
		oracle:   oracle,
		catalog:  cat,
		text:     text,
		observer: observer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Classify never fails: oracle errors, undecodable output and unknown labels
// all produce an OtherDecision.
func (c *Classifier) Classify(ctx context.Context, msg *core.Message) core.Decision {
	var v verdict
	if err := c.oracle.JSON(ctx, purpose, c.prompt(msg), c.opts.Temperature, &v); err != nil {
		c.logger.Warn("Classification failed, falling back to other",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return core.OtherDecision{}
	}

	category, ok := core.ParseCategory(v.Type)
	if !ok {
		if c.observer != nil {
			c.observer.DecodeFailure(purpose)
		}
		c.logger.Warn("Oracle returned an unknown category",
			zap.String("message_id", msg.ID),
			zap.String("label", v.Type))
		return core.OtherDecision{}
	}

	var d core.Decision
	switch category {
	case core.CategorySupport:
		d = core.SupportDecision{}
	case core.CategorySales:
		d = core.SalesDecision{Products: productHints(v.Products)}
	case core.CategoryEstimate:
		desc := strings.TrimSpace(v.ProjectDescription)
		if desc == "" {
			desc = strings.TrimSpace(msg.Body)
		}
		d = core.EstimateDecision{ProjectDescription: desc}
	case core.CategoryMeeting:
		d = core.MeetingDecision{Time: strings.TrimSpace(v.MeetingTime)}
	default:
		d = core.OtherDecision{}
	}

	c.logger.Info("Message classified",
		zap.String("message_id", msg.ID),
		zap.String("category", string(d.Category())))
	return d
}

// productHints accepts either {"id": qty} or a bare list of ids (qty 1)
func productHints(raw json.RawMessage) map[string]int {
	if len(raw) == 0 {
		return map[string]int{}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return core.Quantities(obj)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		out := make(map[string]int, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				out[id]++
			}
		}
		return out
	}
	return map[string]int{}
}

func (c *Classifier) prompt(msg *core.Message) string {
	now := c.now().In(c.opts.Location)
	return fmt.Sprintf(`Du är en kontorsassistent för %s. Klassificera följande e-post.

Från: %s
Ämne: %s
Meddelande:
%s

Kategorier:
- "support": klagomål eller reklamation
- "sales": offertförfrågan, prisfråga eller köp av produkter
- "estimate": förfrågan om materialberäkning för ett byggprojekt
- "meeting": mötesbokning
- "other": övrigt

Svara ENDAST med ett JSON-objekt:
{"type": "<kategori>", "products": {"<produkt_id>": <antal>}, "project_description": "<text>", "meeting_time": "<YYYY-MM-DDTHH:MM>"}

- "products" fylls i för sales med produkt-id ur sortimentet: %s
- "project_description" fylls i för estimate
- "meeting_time" fylls i för meeting. Dagens datum är %s (%s), tidszon %s. Lämna tomt om ingen tid anges.
Inga förklaringar, endast JSON.`,
		c.opts.BusinessName,
		msg.From,
		msg.Subject,
		c.text.PrepareBody(msg.Body),
		strings.Join(c.catalog.IDs(), ", "),
		now.Format("2006-01-02"),
		now.Weekday(),
		c.opts.Location)
}
