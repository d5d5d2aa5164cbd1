package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mikey/llm-mail-triage/internal/handlers"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/mikey/llm-mail-triage/internal/store"
	"go.uber.org/zap"
)

// Reply statuses of manual sends
const (
	statusSent   = "sent"
	statusFailed = "failed"
	statusDryRun = "dry_run"
)

func (a *API) handleSearchCatalog(w http.ResponseWriter, r *http.Request) {
	items := a.deps.Catalog.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "products": items})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	canonical, ok := a.deps.Catalog.Canonical(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "product not found",
			"suggestions": a.deps.Catalog.Suggest(id, 5),
		})
		return
	}
	product, _ := a.deps.Catalog.Lookup(canonical)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      canonical,
		"price":     product.Price,
		"unit_size": product.UnitSize,
	})
}

func (a *API) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var (
		complaints []store.IndexedComplaint
		err        error
	)
	switch status {
	case "open":
		complaints, err = a.deps.Complaints.Open()
	case "":
		var all []store.IndexedComplaint
		loaded, lerr := a.deps.Complaints.Load()
		for i, c := range loaded {
			all = append(all, store.IndexedComplaint{Index: i, Complaint: c})
		}
		complaints, err = all, lerr
	default:
		writeError(w, http.StatusBadRequest, "status must be empty or open")
		return
	}
	if err != nil {
		a.logger.Error("Failed to load complaints", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load complaints")
		return
	}
	if complaints == nil {
		complaints = []store.IndexedComplaint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(complaints), "complaints": complaints})
}

func (a *API) handleCloseComplaint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	closed, err := a.deps.Complaints.Close(index)
	if err != nil {
		a.logger.Error("Failed to close complaint", zap.Int("complaint_index", index), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to close complaint")
		return
	}
	if !closed {
		writeError(w, http.StatusNotFound, "complaint not found or already closed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "status": "closed"})
}

func (a *API) handleListQuotes(w http.ResponseWriter, _ *http.Request) {
	quotes, err := a.deps.Quotes.Load()
	if err != nil {
		a.logger.Error("Failed to load quotes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load quotes")
		return
	}
	indexed := make([]store.IndexedQuote, 0, len(quotes))
	for i, q := range quotes {
		indexed = append(indexed, store.IndexedQuote{Index: i, Quote: q})
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(indexed), "quotes": indexed})
}

type createQuoteRequest struct {
	Customer string         `json:"customer"`
	Subject  string         `json:"subject"`
	Products map[string]int `json:"products"`
}

func (a *API) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	customer := senderfilter.Address(req.Customer)
	if customer == "" || len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "customer and products are required")
		return
	}

	draft, err := a.deps.QuoteCreator.CreateQuote(customer, req.Subject, req.Products)
	if draft == nil {
		msg := "no catalog products in request"
		if err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if err != nil {
		a.logger.Error("Failed to record quote", zap.String("customer", customer), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record quote")
		return
	}

	resp := map[string]any{"quote": draft}
	resp["reply_status"], resp["error"] = a.send(r, customer, draft.Subject, draft.Body)
	writeJSON(w, http.StatusCreated, resp)
}

type estimateRequest struct {
	Description string `json:"description"`
	Customer    string `json:"customer"`
	Subject     string `json:"subject"`
	Promote     bool   `json:"promote"`
}

func (a *API) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	customer := senderfilter.Address(req.Customer)
	if req.Promote && customer == "" {
		writeError(w, http.StatusBadRequest, "customer is required to promote an estimate")
		return
	}

	est, err := a.deps.Estimator.Estimate(r.Context(), req.Description)
	if err != nil {
		a.logger.Warn("Estimate failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := map[string]any{"estimate": est}
	if req.Promote {
		index, err := a.deps.Estimator.Promote(customer, req.Subject, est)
		if err != nil {
			a.logger.Error("Failed to promote estimate", zap.String("customer", customer), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to promote estimate")
			return
		}
		resp["quote_index"] = index
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	customer := senderfilter.Address(chi.URLParam(r, "customer"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := a.deps.Conversations.Recent(customer, limit)
	if err != nil {
		a.logger.Error("Failed to load conversation", zap.String("customer", customer), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer, "count": len(entries), "entries": entries})
}

func (a *API) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	customer := senderfilter.Address(chi.URLParam(r, "customer"))
	cleared, err := a.deps.Conversations.Clear(customer)
	if err != nil {
		a.logger.Error("Failed to clear conversation", zap.String("customer", customer), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear conversation")
		return
	}
	if !cleared {
		writeError(w, http.StatusNotFound, "no conversation for customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleClearAllConversations(w http.ResponseWriter, _ *http.Request) {
	if err := a.deps.Conversations.ClearAll(); err != nil {
		a.logger.Error("Failed to clear conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear conversations")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type followupRequest struct {
	ThresholdDays *int `json:"threshold_days"`
}

func (a *API) handleRunFollowups(w http.ResponseWriter, r *http.Request) {
	threshold := a.opts.ThresholdDays
	var req followupRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ThresholdDays != nil {
		if *req.ThresholdDays < 0 {
			writeError(w, http.StatusBadRequest, "threshold_days must not be negative")
			return
		}
		threshold = *req.ThresholdDays
	}

	report, err := a.deps.Followups.CheckForFollowups(r.Context(), a.now(), threshold)
	if err != nil {
		a.logger.Error("Follow-up scan failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "report": report})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleRunDispatch(w http.ResponseWriter, r *http.Request) {
	report, err := a.deps.Dispatcher.RunOnce(r.Context())
	if err != nil {
		a.logger.Error("Dispatch run failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "report": report})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type meetingRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (a *API) handleBookMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.DurationMinutes < 0 {
		writeError(w, http.StatusBadRequest, "duration_minutes must not be negative")
		return
	}
	start, err := handlers.ParseMeetingTime(req.Start, a.opts.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := a.deps.Meetings.Book(r.Context(), req.Title, req.Description, start, req.DurationMinutes)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"link": link, "start": start})
}

type mailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (a *API) handleSendMail(w http.ResponseWriter, r *http.Request) {
	var req mailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	to := senderfilter.Address(req.To)
	if to == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "to and body are required")
		return
	}

	status, errMsg := a.send(r, to, req.Subject, req.Body)
	code := http.StatusOK
	if status == statusFailed {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{"status": status, "error": errMsg})
}

// send delivers a message unless the API runs in dry-run mode
func (a *API) send(r *http.Request, to, subject, body string) (status string, errMsg any) {
	if a.opts.DryRun {
		return statusDryRun, nil
	}
	if err := a.deps.Sender.Send(r.Context(), to, subject, body); err != nil {
		a.logger.Error("Failed to send mail", zap.String("to", to), zap.Error(err))
		return statusFailed, err.Error()
	}
	return statusSent, nil
}
