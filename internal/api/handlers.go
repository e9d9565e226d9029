package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rendis/triago/internal/lookup"
	"github.com/rendis/triago/pkg/schema"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInvoke runs one executor pass over the posted record and returns
// the updated record. The caller must round-trip the response into the
// next call to keep the conversation.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var rec schema.TriageRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid triage record payload")
		return
	}

	out, result, err := s.deps.Executor.Invoke(r.Context(), rec)
	if err != nil {
		s.deps.Logger.Error("pass failed", "error", err)
		writeError(w, http.StatusInternalServerError, "triage pass failed")
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		TriageRecord: out,
		PassID:  result.PassID,
		Outcome: string(result.Outcome),
	})
}

// invokeResponse wraps the updated record with pass metadata. The record
// fields are inlined so existing clients can round-trip the body as-is.
type invokeResponse struct {
	schema.TriageRecord
	PassID  string `json:"pass_id"`
	Outcome string `json:"outcome"`
}

// handleOrderGet returns a single order by exact ID.
func (s *Server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	order, ok := s.deps.Registry.OrderByID(orderID)
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleOrderSearch lists orders matching email, free-text query, and an
// optional expr filter.
func (s *Server) handleOrderSearch(w http.ResponseWriter, r *http.Request) {
	params := lookup.SearchParams{
		CustomerEmail: r.URL.Query().Get("customer_email"),
		Query:         r.URL.Query().Get("q"),
		Filter:        r.URL.Query().Get("filter"),
	}

	results, err := s.deps.Searcher.Search(params)
	if err != nil {
		var terr *schema.TriagoError
		if asTriagoError(err, &terr) && terr.Code == schema.ErrCodeValidation {
			writeError(w, http.StatusBadRequest, terr.Message)
			return
		}
		s.deps.Logger.Error("order search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "order search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleClassify classifies raw ticket text against the keyword table,
// without touching a triage record. Unlike the workflow's classify step it
// reports "unknown" with low confidence when no rule matches.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TicketText string `json:"ticket_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	text := strings.ToLower(payload.TicketText)
	for _, rule := range s.deps.Registry.Rules() {
		if rule.Keyword != "" && strings.Contains(text, strings.ToLower(rule.Keyword)) {
			writeJSON(w, http.StatusOK, map[string]any{
				"issue_type": rule.IssueType,
				"confidence": 0.85,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issue_type": "unknown",
		"confidence": 0.1,
	})
}

// handleReplyDraft renders a reply directly from an issue type and an
// inline order payload.
func (s *Server) handleReplyDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IssueType schema.IssueType `json:"issue_type"`
		Order     *schema.Order    `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"reply_text": s.deps.Renderer.Draft(payload.IssueType, payload.Order),
	})
}

// handleRefDataQuery runs a jq program over one reference table.
func (s *Server) handleRefDataQuery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Table   string `json:"table"`
		Program string `json:"program"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := s.deps.Query.Query(r.Context(), payload.Table, payload.Program)
	if err != nil {
		var terr *schema.TriagoError
		if asTriagoError(err, &terr) && terr.Code == schema.ErrCodeValidation {
			writeError(w, http.StatusBadRequest, terr.Message)
			return
		}
		s.deps.Logger.Error("refdata query failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "query evaluation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// handleRefDataReload re-reads the reference tables from disk, keeping
// the current snapshot on failure.
func (s *Server) handleRefDataReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Registry.Reload(); err != nil {
		s.deps.Logger.Error("refdata reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reference data reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
