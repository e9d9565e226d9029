package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/rendis/triago/pkg/schema"
)

// StepID identifies a step in the triage workflow graph.
type StepID string

// Workflow steps, in graph order.
const (
	StepIngest      StepID = "ingest"
	StepClassify    StepID = "classify_issue"
	StepFetchOrder  StepID = "fetch_order"
	StepPropose     StepID = "propose_recommendation"
	StepAdminReview StepID = "admin_review"
	StepDraftReply  StepID = "draft_reply"
)

// Terminal identifiers. The driver loop halts when a step routes to one
// of these; they are never executed.
const (
	StepDone          StepID = "done"
	StepAwaitingInput StepID = "awaiting_ticket"
	StepAwaitingAdmin StepID = "awaiting_admin"
)

// IsTerminal reports whether id halts the driver loop.
func IsTerminal(id StepID) bool {
	return id == StepDone || id == StepAwaitingInput || id == StepAwaitingAdmin
}

// orderIDPattern extracts order tokens like ORD1234 from ticket text.
var orderIDPattern = regexp.MustCompile(`(?i)\b(ORD\d{4})\b`)

// Fixed user-facing strings. These are part of the workflow contract:
// callers and tests match on them verbatim.
const (
	msgNoTicket       = "I did not receive a ticket. Please paste the customer message."
	msgMissingOrderID = "Order id is missing. Please provide the order ID."
	msgAskOrderID     = "Hi there, can you share your order id so I can look this up and help you quickly?"

	recAskCorrectOrder = "Ask the customer for the correct order id and confirm their email address."
	recEscalate        = "Escalate to a human agent for further review."
	recRejected        = "Ask for clarification and escalate to a human agent."

	replyRejected = "Thanks for reaching out. I reviewed your request, but I need a bit more information before I can proceed. " +
		"Can you confirm what went wrong and share any details like photos, error messages, or what troubleshooting you tried? " +
		"If needed, I will escalate this to a specialist."
)

// recommendations is the total mapping from issue type to proposed action.
// Unknown issue types fall through to recEscalate.
var recommendations = map[schema.IssueType]string{
	schema.IssueRefundRequest:    "Confirm eligibility and initiate refund. Share expected timeline.",
	schema.IssueLateDelivery:     "Share current shipping status and set expectation for delivery timing.",
	schema.IssueMissingItem:      "Open a missing item investigation and offer replacement or reship.",
	schema.IssueDamagedItem:      "Apologize and offer replacement. Ask for photo if needed.",
	schema.IssueDuplicateCharge:  "Confirm duplicate charge and refund the extra amount.",
	schema.IssueWrongItem:        "Arrange replacement and provide return instructions for the incorrect item.",
	schema.IssueDefectiveProduct: "Confirm warranty coverage and offer replacement or repair.",
}

// stepIngest trims the ticket text, records the customer message once, and
// extracts the order ID. Re-entrant: a replayed record never gains a
// duplicate customer entry and never has its order ID overwritten.
func (e *Executor) stepIngest(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	ticket := strings.TrimSpace(rec.TicketText)
	if ticket == "" {
		rec.Append(schema.RoleAssistant, msgNoTicket)
		return rec, routeAfterIngest(rec)
	}

	rec.TicketText = ticket

	if !rec.HasCustomerMessage(ticket) {
		rec.Append(schema.RoleCustomer, ticket)
	}

	if rec.OrderID == "" {
		if m := orderIDPattern.FindStringSubmatch(ticket); m != nil {
			rec.OrderID = strings.ToUpper(m[1])
		}
	}

	return rec, routeAfterIngest(rec)
}

// stepClassify assigns the issue type by scanning the keyword table in
// table order; the first keyword found as a substring wins. Tickets that
// match no rule fall back to refund_request when the text mentions
// "refund", else defective_product. Skipped when already classified.
func (e *Executor) stepClassify(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	if rec.IssueType != "" {
		return rec, routeAfterClassify(rec)
	}

	text := strings.ToLower(rec.TicketText)

	var issue schema.IssueType
	for _, rule := range e.data.Rules() {
		kw := strings.ToLower(rule.Keyword)
		if kw != "" && strings.Contains(text, kw) {
			issue = rule.IssueType
			break
		}
	}

	if issue == "" {
		if strings.Contains(text, "refund") {
			issue = schema.IssueRefundRequest
		} else {
			issue = schema.IssueDefectiveProduct
		}
	}

	rec.IssueType = issue
	rec.Append(schema.RoleAssistant, fmt.Sprintf("The issue is classified as %s.", issue))
	return rec, routeAfterClassify(rec)
}

// stepFetchOrder invokes the lookup tool and stores its result verbatim as
// evidence. Skipped when evidence is already present. Without an order ID
// it records negative evidence and prompts for one instead of failing.
func (e *Executor) stepFetchOrder(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	if rec.Evidence.Order != nil {
		return rec, StepPropose
	}

	if rec.OrderID == "" {
		rec.Evidence.Order = &schema.OrderEvidence{Found: false, Reason: "No order ID provided"}
		rec.Append(schema.RoleAssistant, msgMissingOrderID)
		return rec, StepPropose
	}

	rec.Messages = append(rec.Messages, schema.Message{
		Role:    schema.RoleAssistant,
		Content: "Fetching order details.",
		ToolCall: &schema.ToolCall{
			ID:   "call_" + uuid.New().String(),
			Name: "fetch_order",
			Args: map[string]any{"order_id": rec.OrderID},
		},
	})

	ev := e.lookup.Fetch(rec.OrderID)
	rec.Evidence.Order = &ev

	if ev.Found {
		rec.Append(schema.RoleAssistant, fmt.Sprintf("Order %s located.", rec.OrderID))
	} else {
		rec.Append(schema.RoleAssistant, fmt.Sprintf("Order %s was not found.", rec.OrderID))
	}
	return rec, StepPropose
}

// stepPropose chooses the recommended action from the issue type and the
// gathered evidence, then raises the admin gate. Skipped when a
// recommendation already exists.
func (e *Executor) stepPropose(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	if rec.Recommendation != "" {
		return rec, StepAdminReview
	}

	issue := rec.IssueType
	if issue == "" {
		issue = schema.IssueOther
	}

	var action string
	switch {
	case rec.Evidence.Order == nil || !rec.Evidence.Order.Found:
		action = recAskCorrectOrder
	default:
		var ok bool
		action, ok = recommendations[issue]
		if !ok {
			action = recEscalate
		}
	}

	rec.Recommendation = action
	rec.SetNeedsAdmin(true)
	rec.Append(schema.RoleAssistant, fmt.Sprintf("Proposed action: %s", action))
	rec.Append(schema.RoleAssistant, fmt.Sprintf("Needs admin: %t", *rec.NeedsAdmin))
	return rec, StepAdminReview
}

// stepAdminReview applies the caller-supplied decision. Anything other
// than approve/reject leaves the record awaiting a decision; reject
// overwrites the recommendation with the fixed escalation text.
func (e *Executor) stepAdminReview(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	decision := rec.NormalizedDecision()
	if decision != schema.DecisionApprove && decision != schema.DecisionReject {
		rec.SetNeedsAdmin(true)
		return rec, routeAfterAdmin(rec, e.cfg.GatePolicy)
	}

	rec.SetNeedsAdmin(false)
	notes := strings.TrimSpace(rec.AdminNotes)
	rec.Append(schema.RoleAdmin, fmt.Sprintf("Decision: %s. Notes: %s", decision, notes))

	if decision == schema.DecisionReject {
		rec.Recommendation = recRejected
	}

	return rec, routeAfterAdmin(rec, e.cfg.GatePolicy)
}

// stepDraftReply produces the terminal customer-facing draft. A rejected
// recommendation always yields the fixed clarification text; otherwise the
// renderer fills the issue-type template when the order was found.
// Skipped when a draft already exists.
func (e *Executor) stepDraftReply(_ context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID) {
	if rec.ReplyDraft != "" {
		return rec, StepDone
	}

	if rec.NormalizedDecision() == schema.DecisionReject {
		rec.ReplyDraft = replyRejected
		rec.Append(schema.RoleAssistant, replyRejected)
		return rec, StepDone
	}

	issue := rec.IssueType
	if issue == "" {
		issue = schema.IssueOther
	}

	var draft string
	if rec.Evidence.Order != nil && rec.Evidence.Order.Found {
		draft = e.renderer.Render(issue, rec.Evidence.Order.Order)
	} else {
		draft = msgAskOrderID
	}

	rec.ReplyDraft = draft
	rec.Append(schema.RoleAssistant, draft)
	return rec, StepDone
}
