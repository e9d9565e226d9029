package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone_DeepCopies(t *testing.T) {
	needs := true
	rec := TriageRecord{
		TicketText: "refund ORD1234",
		Messages: []Message{
			{Role: RoleCustomer, Content: "refund ORD1234"},
			{Role: RoleAssistant, Content: "Fetching order details.", ToolCall: &ToolCall{
				ID:   "call_1",
				Name: "fetch_order",
				Args: map[string]any{"order_id": "ORD1234"},
			}},
		},
		NeedsAdmin: &needs,
		Evidence: Evidence{Order: &OrderEvidence{
			Found: true,
			Order: &Order{OrderID: "ORD1234", CustomerName: "Liam Carter"},
		}},
	}

	clone := rec.Clone()
	require.Equal(t, rec, clone)

	// Mutating the clone must not leak into the original.
	clone.Messages[0].Content = "changed"
	clone.Messages[1].ToolCall.Args["order_id"] = "ORD9999"
	*clone.NeedsAdmin = false
	clone.Evidence.Order.Order.CustomerName = "Someone Else"

	assert.Equal(t, "refund ORD1234", rec.Messages[0].Content)
	assert.Equal(t, "ORD1234", rec.Messages[1].ToolCall.Args["order_id"])
	assert.True(t, *rec.NeedsAdmin)
	assert.Equal(t, "Liam Carter", rec.Evidence.Order.Order.CustomerName)
}

func TestClone_AppendDoesNotShareBacking(t *testing.T) {
	rec := TriageRecord{Messages: make([]Message, 1, 4)}
	rec.Messages[0] = Message{Role: RoleCustomer, Content: "hello"}

	clone := rec.Clone()
	clone.Append(RoleAssistant, "reply")

	assert.Len(t, rec.Messages, 1)
	assert.Len(t, clone.Messages, 2)
}

func TestHasCustomerMessage(t *testing.T) {
	rec := TriageRecord{Messages: []Message{
		{Role: RoleCustomer, Content: "refund please"},
		{Role: RoleAssistant, Content: "on it"},
	}}

	assert.True(t, rec.HasCustomerMessage("refund please"))
	assert.False(t, rec.HasCustomerMessage("on it"), "role must be customer")
	assert.False(t, rec.HasCustomerMessage("refund"), "content must match exactly")
}

func TestNormalizedDecision(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"approve", "approve"},
		{"  APPROVE  ", "approve"},
		{"Reject", "reject"},
		{"", ""},
		{"APPROVED?", "approved?"},
	}

	for _, tt := range tests {
		rec := TriageRecord{AdminDecision: tt.in}
		assert.Equal(t, tt.want, rec.NormalizedDecision(), "%q", tt.in)
	}
}

func TestAwaitingAdmin(t *testing.T) {
	var rec TriageRecord
	assert.False(t, rec.AwaitingAdmin(), "unset flag")

	rec.SetNeedsAdmin(false)
	assert.False(t, rec.AwaitingAdmin())

	rec.SetNeedsAdmin(true)
	assert.True(t, rec.AwaitingAdmin())
}
