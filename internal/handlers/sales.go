package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/mikey/llm-mail-triage/internal/utils"
	"go.uber.org/zap"
)

// Line is one priced row of a quote or estimate
type Line struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	LineTotal int    `json:"line_total"`
}

// Order is the product extraction for a sales message after it has been
// checked against the catalog
type Order struct {
	Found       map[string]int    `json:"found"`
	NotFound    map[string]int    `json:"not_found"`
	Suggestions map[string]string `json:"suggestions"`
}

// QuoteDraft is a priced quote, persisted or not
type QuoteDraft struct {
	Index   int      `json:"index"`
	Lines   []Line   `json:"lines"`
	Unknown []string `json:"unknown,omitempty"`
	Total   int      `json:"total"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// SalesHandler extracts the ordered products from a message, prices them
// and records the quote for follow-up
type SalesHandler struct {
	catalog *catalog.Catalog
	quotes  QuoteLog
	oracle  *core.OracleService
	text    *utils.TextProcessor
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(cat *catalog.Catalog, quotes QuoteLog, oracle *core.OracleService, text *utils.TextProcessor, opts Options, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{
		catalog: cat,
		quotes:  quotes,
		oracle:  oracle,
		text:    text,
		opts:    opts.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

// Handle prices the products requested in msg. A quote is only recorded
// when at least one catalog product was identified; otherwise the reply
// asks the customer to clarify.
func (h *SalesHandler) Handle(ctx context.Context, msg *core.Message, d core.SalesDecision) (*core.HandlerResult, error) {
	order := h.Extract(ctx, msg, d.Products)
	result := &core.HandlerResult{
		Category:     core.CategorySales,
		ReplySubject: quoteSubjectPrefix + msg.Subject,
	}

	if len(order.Found) == 0 {
		result.ReplyBody = salesClarification(h.opts.BusinessName)
		result.Summary = "sales request without identifiable products"
		for id := range order.NotFound {
			result.Diagnostics = append(result.Diagnostics, "not in catalog: "+id)
		}
		sort.Strings(result.Diagnostics)
		return result, nil
	}

	lines, _, total := h.price(order.Found)
	result.ReplyBody = quoteBody(h.opts.BusinessName, lines, h.notices(order), total)

	customer := senderfilter.Address(msg.From)
	index, err := h.quotes.Append(core.Quote{
		Customer:  customer,
		Subject:   msg.Subject,
		Products:  order.Found,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.logger.Error("Failed to record quote",
			zap.String("message_id", msg.ID),
			zap.String("customer", customer),
			zap.Error(err))
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("quote not recorded: %v", err))
	} else {
		result.SideEffects = append(result.SideEffects, fmt.Sprintf("quote #%d recorded", index))
	}

	result.Summary = fmt.Sprintf("quote for %s: %d products, %d SEK", customer, len(lines), total)
	return result, nil
}

// Extract asks the oracle which catalog products msg refers to and checks
// the answer against the catalog. Found ids the catalog does not know are
// moved to NotFound, and every suggestion that names a catalog product is
// added to Found with the missing product's quantity. Output that does not
// decode as a whole yields an empty order.
func (h *SalesHandler) Extract(ctx context.Context, msg *core.Message, hints map[string]int) Order {
	order := Order{
		Found:       map[string]int{},
		NotFound:    map[string]int{},
		Suggestions: map[string]string{},
	}

	var raw struct {
		Found       map[string]any `json:"found"`
		NotFound    map[string]any `json:"not_found"`
		Suggestions map[string]any `json:"suggestions"`
	}
	if err := h.oracle.JSON(ctx, "sales", h.prompt(msg, hints), h.opts.StructuredTemperature, &raw); err != nil {
		h.logger.Warn("Product extraction failed",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return order
	}

	order.NotFound = core.Quantities(raw.NotFound)
	for id, qty := range core.Quantities(raw.Found) {
		if canonical, ok := h.catalog.Canonical(id); ok {
			order.Found[canonical] += qty
		} else {
			order.NotFound[id] += qty
		}
	}

	for missing, v := range raw.Suggestions {
		suggested, ok := v.(string)
		if !ok {
			continue
		}
		canonical, ok := h.catalog.Canonical(strings.TrimSpace(suggested))
		if !ok {
			continue
		}
		qty := order.NotFound[missing]
		if qty <= 0 {
			qty = 1
		}
		order.Found[canonical] += qty
		order.Suggestions[missing] = canonical
	}
	return order
}

// CreateQuote prices products directly and records the quote. Unknown ids
// are left out of the quote and reported.
func (h *SalesHandler) CreateQuote(customer, subject string, products map[string]int) (*QuoteDraft, error) {
	known := make(map[string]int, len(products))
	var unknown []string
	for id, qty := range products {
		if qty <= 0 {
			continue
		}
		if canonical, ok := h.catalog.Canonical(id); ok {
			known[canonical] += qty
		} else {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	if len(known) == 0 {
		return nil, errors.New("no catalog products in quote")
	}

	lines, _, total := h.price(known)
	var notices []string
	if len(unknown) > 0 {
		notices = append(notices, "Följande produkter kunde inte hittas: "+strings.Join(unknown, ", "))
	}
	draft := &QuoteDraft{
		Lines:   lines,
		Unknown: unknown,
		Total:   total,
		Subject: quoteSubjectPrefix + subject,
		Body:    quoteBody(h.opts.BusinessName, lines, notices, total),
	}

	index, err := h.quotes.Append(core.Quote{
		Customer:  senderfilter.Address(customer),
		Subject:   subject,
		Products:  known,
		CreatedAt: h.now(),
	})
	if err != nil {
		return draft, fmt.Errorf("failed to record quote: %w", err)
	}
	draft.Index = index
	return draft, nil
}

// price returns the quote lines sorted by product id, the ids without a
// price and the total
func (h *SalesHandler) price(products map[string]int) ([]Line, []string, int) {
	return priceLines(h.catalog, products)
}

func priceLines(cat *catalog.Catalog, products map[string]int) ([]Line, []string, int) {
	total, unknown := cat.Total(products)

	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var lines []Line
	for _, id := range ids {
		price, ok := cat.Price(id)
		if !ok {
			continue
		}
		qty := products[id]
		lines = append(lines, Line{ProductID: id, Quantity: qty, UnitPrice: price, LineTotal: price * qty})
	}
	return lines, unknown, total
}

func (h *SalesHandler) notices(order Order) []string {
	missing := make([]string, 0, len(order.NotFound))
	for id := range order.NotFound {
		missing = append(missing, id)
	}
	sort.Strings(missing)

	notices := make([]string, 0, len(missing))
	for _, id := range missing {
		if suggested, ok := order.Suggestions[id]; ok {
			notices = append(notices, fmt.Sprintf("Vi kunde inte hitta %s, men föreslår %s istället.", id, suggested))
		} else {
			notices = append(notices, fmt.Sprintf("Vi kunde tyvärr inte hitta %s i sortimentet.", id))
		}
	}
	return notices
}

func (h *SalesHandler) prompt(msg *core.Message, hints map[string]int) string {
	hint := "inga"
	if len(hints) > 0 {
		parts := make([]string, 0, len(hints))
		for id, qty := range hints {
			parts = append(parts, fmt.Sprintf("%s: %d", id, qty))
		}
		sort.Strings(parts)
		hint = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`Du är en säljassistent på %s. Läs kundens mail och ta reda på vilka produkter och antal kunden vill ha.

Ämne: %s
Meddelande:
%s

Tidigare identifierade produkter: %s

Sortiment (produkt-id): %s

Svara ENDAST med ett JSON-objekt:
{
  "found": {"<produkt_id ur sortimentet>": <antal>},
  "not_found": {"<efterfrågad produkt som saknas>": <antal>},
  "suggestions": {"<saknad produkt>": "<närmaste produkt_id ur sortimentet>"}
}
Använd exakt de produkt-id som finns i sortimentet. Om antal inte anges, använd 1.
Inga förklaringar, endast JSON.`,
		h.opts.BusinessName,
		msg.Subject,
		h.text.PrepareBody(msg.Body),
		hint,
		strings.Join(h.catalog.IDs(), ", "))
}
