package schema

import "strings"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
	RoleAdmin     Role = "admin"
)

// AdminDecision values accepted by the admin review step.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// IssueType classifies a support ticket.
type IssueType string

const (
	IssueRefundRequest    IssueType = "refund_request"
	IssueLateDelivery     IssueType = "late_delivery"
	IssueMissingItem      IssueType = "missing_item"
	IssueDamagedItem      IssueType = "damaged_item"
	IssueDuplicateCharge  IssueType = "duplicate_charge"
	IssueWrongItem        IssueType = "wrong_item"
	IssueDefectiveProduct IssueType = "defective_product"
	IssueOther            IssueType = "other"
)

// KnownIssueTypes is the closed set of issue types the classifier may assign.
var KnownIssueTypes = []IssueType{
	IssueRefundRequest,
	IssueLateDelivery,
	IssueMissingItem,
	IssueDamagedItem,
	IssueDuplicateCharge,
	IssueWrongItem,
	IssueDefectiveProduct,
	IssueOther,
}

// ToolCall records an in-process tool invocation attached to a message.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one entry in the triage transcript. Entries of different
// shapes (customer text, assistant text, admin decisions, tool calls)
// share the role/content projection; tool-call entries additionally
// carry a ToolCall.
type Message struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// Order is a single record in the order reference table.
type Order struct {
	OrderID      string  `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Email        string  `json:"email"`
	Status       string  `json:"status,omitempty"`
	Item         string  `json:"item,omitempty"`
	Total        float64 `json:"total,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	PlacedAt     string  `json:"placed_at,omitempty"`
}

// OrderEvidence is the order lookup result, stored verbatim in the record.
type OrderEvidence struct {
	Found   bool   `json:"found"`
	Order   *Order `json:"order,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Evidence is the side channel of facts gathered during triage.
type Evidence struct {
	Order *OrderEvidence `json:"order,omitempty"`
}

// TriageRecord is the mutable state threaded through every workflow step.
// The caller owns durability: the record returned by one pass must be
// supplied unchanged as the input of the next pass.
type TriageRecord struct {
	Messages       []Message `json:"messages"`
	TicketText     string    `json:"ticket_text"`
	OrderID        string    `json:"order_id,omitempty"`
	IssueType      IssueType `json:"issue_type,omitempty"`
	Evidence       Evidence  `json:"evidence"`
	Recommendation string    `json:"recommendation,omitempty"`
	NeedsAdmin     *bool     `json:"needs_admin,omitempty"`
	AdminDecision  string    `json:"admin_decision,omitempty"`
	AdminNotes     string    `json:"admin_notes,omitempty"`
	ReplyDraft     string    `json:"reply_draft,omitempty"`
}

// Clone returns a deep copy of the record. Steps operate on copies so a
// failed pass never leaves the caller's record half mutated.
func (r TriageRecord) Clone() TriageRecord {
	out := r
	out.Messages = make([]Message, len(r.Messages))
	copy(out.Messages, r.Messages)
	for i, m := range out.Messages {
		if m.ToolCall != nil {
			tc := *m.ToolCall
			if tc.Args != nil {
				args := make(map[string]any, len(tc.Args))
				for k, v := range tc.Args {
					args[k] = v
				}
				tc.Args = args
			}
			out.Messages[i].ToolCall = &tc
		}
	}
	if r.NeedsAdmin != nil {
		v := *r.NeedsAdmin
		out.NeedsAdmin = &v
	}
	if r.Evidence.Order != nil {
		ev := *r.Evidence.Order
		if ev.Order != nil {
			o := *ev.Order
			ev.Order = &o
		}
		out.Evidence.Order = &ev
	}
	return out
}

// Append adds a message to the transcript.
func (r *TriageRecord) Append(role Role, content string) {
	r.Messages = append(r.Messages, Message{Role: role, Content: content})
}

// HasCustomerMessage reports whether the transcript already contains a
// customer entry with exactly this content. Used by ingest to stay
// idempotent across replays.
func (r *TriageRecord) HasCustomerMessage(content string) bool {
	for _, m := range r.Messages {
		if m.Role == RoleCustomer && m.Content == content {
			return true
		}
	}
	return false
}

// NormalizedDecision returns the admin decision trimmed and lower-cased.
func (r *TriageRecord) NormalizedDecision() string {
	return strings.ToLower(strings.TrimSpace(r.AdminDecision))
}

// SetNeedsAdmin sets the needs_admin flag.
func (r *TriageRecord) SetNeedsAdmin(v bool) {
	r.NeedsAdmin = &v
}

// AwaitingAdmin reports whether a recommendation is waiting on a decision.
func (r *TriageRecord) AwaitingAdmin() bool {
	return r.NeedsAdmin != nil && *r.NeedsAdmin
}
