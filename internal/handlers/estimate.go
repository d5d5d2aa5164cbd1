package handlers

import (
	"bytes"
	"context"
	"encoding/json"
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

// defaultArea holds the products of a flat, ungrouped estimate
const defaultArea = "Material"

// Area is one building part of an estimate
type Area struct {
	Name  string `json:"name"`
	Lines []Line `json:"lines"`
}

// Estimate is a priced material estimate grouped per building part
type Estimate struct {
	Description string   `json:"description"`
	Areas       []Area   `json:"areas"`
	Unknown     []string `json:"unknown,omitempty"`
	Total       int      `json:"total"`
}

// Products sums the quantities of every known product across areas
func (e *Estimate) Products() map[string]int {
	out := make(map[string]int)
	for _, area := range e.Areas {
		for _, l := range area.Lines {
			out[l.ProductID] += l.Quantity
		}
	}
	return out
}

// EstimateHandler produces material estimates for building projects
type EstimateHandler struct {
	catalog *catalog.Catalog
	quotes  QuoteLog
	oracle  *core.OracleService
	text    *utils.TextProcessor
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewEstimateHandler creates a new estimate handler
func NewEstimateHandler(cat *catalog.Catalog, quotes QuoteLog, oracle *core.OracleService, text *utils.TextProcessor, opts Options, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		catalog: cat,
		quotes:  quotes,
		oracle:  oracle,
		text:    text,
		opts:    opts.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

// Handle estimates the project described in msg. Nothing is recorded as a
// quote unless auto promotion is enabled.
func (h *EstimateHandler) Handle(ctx context.Context, msg *core.Message, d core.EstimateDecision) (*core.HandlerResult, error) {
	description := d.ProjectDescription
	if strings.TrimSpace(description) == "" {
		description = msg.Body
	}

	result := &core.HandlerResult{
		Category:     core.CategoryEstimate,
		ReplySubject: estimateSubjectPrefix + msg.Subject,
	}

	est, err := h.Estimate(ctx, description)
	if err != nil {
		result.ReplyBody = estimateFallback(h.opts.BusinessName)
		result.Summary = "material estimate unavailable"
		result.Diagnostics = append(result.Diagnostics, err.Error())
		return result, nil
	}

	result.ReplyBody = estimateBody(h.opts.BusinessName, est)
	for _, id := range est.Unknown {
		result.Diagnostics = append(result.Diagnostics, "unknown product excluded: "+id)
	}
	result.Summary = fmt.Sprintf("material estimate for %s: %d areas, %d kr", senderfilter.Address(msg.From), len(est.Areas), est.Total)

	if h.opts.AutoPromote {
		index, err := h.Promote(msg.From, msg.Subject, est)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, err.Error())
		} else {
			result.SideEffects = append(result.SideEffects, fmt.Sprintf("estimate promoted to quote #%d", index))
		}
	}
	return result, nil
}

// Estimate asks the oracle for a material breakdown of description and
// prices it against the catalog
func (h *EstimateHandler) Estimate(ctx context.Context, description string) (*Estimate, error) {
	var raw json.RawMessage
	if err := h.oracle.JSON(ctx, "estimate", h.prompt(description), h.opts.StructuredTemperature, &raw); err != nil {
		return nil, fmt.Errorf("failed to estimate materials: %w", err)
	}

	areas, err := decodeAreas(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate materials: %w", err)
	}

	est := &Estimate{Description: description}
	unknown := map[string]struct{}{}
	for _, a := range areas {
		products := make(map[string]int, len(a.products))
		for id, qty := range a.products {
			if canonical, ok := h.catalog.Canonical(id); ok {
				products[canonical] += qty
			} else {
				unknown[id] = struct{}{}
			}
		}
		lines, _, total := priceLines(h.catalog, products)
		if len(lines) == 0 {
			continue
		}
		est.Areas = append(est.Areas, Area{Name: a.name, Lines: lines})
		est.Total += total
	}
	for id := range unknown {
		est.Unknown = append(est.Unknown, id)
	}
	sort.Strings(est.Unknown)

	if len(est.Areas) == 0 {
		return nil, errors.New("estimate contains no catalog products")
	}
	return est, nil
}

// Promote records est as a quote so it is followed up like any other
func (h *EstimateHandler) Promote(customer, subject string, est *Estimate) (int, error) {
	products := est.Products()
	if len(products) == 0 {
		return 0, errors.New("estimate has no products to quote")
	}
	index, err := h.quotes.Append(core.Quote{
		Customer:  senderfilter.Address(customer),
		Subject:   subject,
		Products:  products,
		CreatedAt: h.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to promote estimate: %w", err)
	}
	h.logger.Info("Estimate promoted to quote",
		zap.String("customer", senderfilter.Address(customer)),
		zap.Int("quote_index", index))
	return index, nil
}

type rawArea struct {
	name     string
	products map[string]int
}

// decodeAreas reads {"area": {"product": qty}} keeping the area order of
// the response. Top-level numeric values form the implicit Material area.
func decodeAreas(raw json.RawMessage) ([]rawArea, error) {
	keys, err := objectKeys(raw)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOracleDecode, err)
	}

	var areas []rawArea
	flat := map[string]any{}
	for _, key := range keys {
		value := bytes.TrimSpace(fields[key])
		if len(value) > 0 && value[0] == '{' {
			var obj map[string]any
			if err := json.Unmarshal(value, &obj); err != nil {
				continue
			}
			areas = append(areas, rawArea{name: key, products: core.Quantities(obj)})
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err == nil {
			flat[key] = v
		}
	}
	if products := core.Quantities(flat); len(products) > 0 {
		areas = append(areas, rawArea{name: defaultArea, products: products})
	}
	return areas, nil
}

// objectKeys returns the keys of a JSON object in document order
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOracleDecode, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected an object", core.ErrOracleDecode)
	}

	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrOracleDecode, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", core.ErrOracleDecode, tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrOracleDecode, err)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (h *EstimateHandler) prompt(description string) string {
	return fmt.Sprintf(`Du är en byggnadsteknisk assistent på %s. Läs följande beskrivning av ett byggprojekt
och uppskatta materialåtgången baserat på standardbyggteknik i Sverige.

Beskrivning:
%s

Använd produktsortimentet: %s

Följ dessa riktlinjer:
- Ytterväggar: regel_45x145 cc600 + isolering + vindskydd
- Innerväggar: regel_45x70 eller 45x95 + gipsskiva
- Tak: takläkt + råspont + takpapp + isolering
- Golv: golvreglar + golvspånskiva eller plywood
- Inkludera endast produkter som behövs för projektet

Returnera ett JSON-objekt grupperat per byggdel, till exempel:
{
  "Stomme/Väggar": {"regel_45x145_3m": 24, "plywood_12mm": 15},
  "Tak": {"takpapp_rulle": 2},
  "Fästdon": {"spiklåda_70mm": 2}
}

Använd lämpliga byggdelar för projektet (t.ex. Stomme/Väggar, Tak, Golv, Fästdon, Isolering, Panel/Fasad).
Inga förklaringar, inga kommentarer, endast JSON.`,
		h.opts.BusinessName,
		h.text.PrepareBody(description),
		strings.Join(h.catalog.IDs(), ", "))
}
