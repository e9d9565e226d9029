package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/triago/internal/lookup"
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/internal/reply"
	"github.com/rendis/triago/pkg/schema"
)

// fixtureSet builds a small reference data snapshot for executor tests.
// Rule order matters: refund_request precedes late_delivery.
func fixtureSet() *refdata.Set {
	rules := []refdata.KeywordRule{
		{Keyword: "refund", IssueType: schema.IssueRefundRequest},
		{Keyword: "never delivered", IssueType: schema.IssueLateDelivery},
		{Keyword: "damaged", IssueType: schema.IssueDamagedItem},
	}
	orders := []schema.Order{
		{OrderID: "ORD1234", CustomerName: "Liam Carter", Email: "liam.carter@example.com", Total: 249},
		{OrderID: "ORD2045", CustomerName: "Sofia Alvarez", Email: "sofia.alvarez@example.com", Total: 34.5},
	}
	templates := []refdata.ReplyTemplate{
		{IssueType: schema.IssueRefundRequest, Template: "Hi {{customer_name}}, refund for {{order_id}} is underway."},
		{IssueType: schema.IssueDamagedItem, Template: "Hi {{customer_name}}, sorry {{order_id}} arrived damaged."},
	}
	return refdata.NewSet(rules, orders, templates)
}

func newTestExecutor(t *testing.T, cfg Config) *Executor {
	t.Helper()
	set := fixtureSet()
	tool := lookup.NewTool(set)
	renderer := reply.NewRenderer(set)
	return NewExecutor(set, tool, renderer, cfg, nil)
}

func TestInvoke_EmptyTicket(t *testing.T) {
	e := newTestExecutor(t, Config{})

	out, result, err := e.Invoke(context.Background(), schema.TriageRecord{TicketText: ""})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAwaitingTicket, result.Outcome)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, schema.RoleAssistant, out.Messages[0].Role)
	assert.Equal(t, msgNoTicket, out.Messages[0].Content)

	// No other field may be populated.
	assert.Empty(t, out.OrderID)
	assert.Empty(t, out.IssueType)
	assert.Nil(t, out.Evidence.Order)
	assert.Empty(t, out.Recommendation)
	assert.Nil(t, out.NeedsAdmin)
	assert.Empty(t, out.ReplyDraft)
}

func TestInvoke_FirstPass(t *testing.T) {
	e := newTestExecutor(t, Config{})
	rec := schema.TriageRecord{
		TicketText: "My order ORD1234 was never delivered, please refund me",
	}

	out, result, err := e.Invoke(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAwaitingAdmin, result.Outcome)
	assert.Equal(t, "ORD1234", out.OrderID)
	// "refund" precedes "never delivered" in the rule table.
	assert.Equal(t, schema.IssueRefundRequest, out.IssueType)

	require.NotNil(t, out.Evidence.Order)
	assert.True(t, out.Evidence.Order.Found)
	require.NotNil(t, out.Evidence.Order.Order)
	assert.Equal(t, "Liam Carter", out.Evidence.Order.Order.CustomerName)

	require.NotNil(t, out.NeedsAdmin)
	assert.True(t, *out.NeedsAdmin)
	assert.Empty(t, out.ReplyDraft)

	assert.Equal(t, []StepID{StepIngest, StepClassify, StepFetchOrder, StepPropose, StepAdminReview}, result.Visited)
}

func TestInvoke_SecondPass_Approve(t *testing.T) {
	e := newTestExecutor(t, Config{})
	first, _, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "My order ORD1234 was never delivered, please refund me",
	})
	require.NoError(t, err)

	first.AdminDecision = "approve"
	first.AdminNotes = "ok"

	out, result, err := e.Invoke(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	require.NotNil(t, out.NeedsAdmin)
	assert.False(t, *out.NeedsAdmin)
	assert.Equal(t, "Hi Liam Carter, refund for ORD1234 is underway.", out.ReplyDraft)

	// The transcript records the decision and the draft.
	n := len(out.Messages)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, schema.RoleAdmin, out.Messages[n-2].Role)
	assert.Equal(t, "Decision: approve. Notes: ok", out.Messages[n-2].Content)
	assert.Equal(t, out.ReplyDraft, out.Messages[n-1].Content)
}

func TestInvoke_SecondPass_Reject(t *testing.T) {
	e := newTestExecutor(t, Config{})
	first, _, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "My order ORD1234 arrived damaged and broken",
	})
	require.NoError(t, err)

	first.AdminDecision = "reject"
	first.AdminNotes = "need more info"

	out, result, err := e.Invoke(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, recRejected, out.Recommendation)
	assert.Equal(t, replyRejected, out.ReplyDraft)
	assert.NotContains(t, out.ReplyDraft, "damaged")
}

func TestInvoke_AdminGateWithholdsDraft(t *testing.T) {
	e := newTestExecutor(t, Config{})

	for _, decision := range []string{"", "maybe", "APPROVED?", "yes"} {
		rec := schema.TriageRecord{
			TicketText:    "please refund order ORD1234",
			AdminDecision: decision,
		}
		out, result, err := e.Invoke(context.Background(), rec)
		require.NoError(t, err)

		assert.Equal(t, OutcomeAwaitingAdmin, result.Outcome, "decision %q", decision)
		assert.Empty(t, out.ReplyDraft, "decision %q", decision)
		require.NotNil(t, out.NeedsAdmin, "decision %q", decision)
		assert.True(t, *out.NeedsAdmin, "decision %q", decision)
	}
}

func TestInvoke_SoftGateAlwaysDrafts(t *testing.T) {
	e := newTestExecutor(t, Config{GatePolicy: GateSoft})

	out, result, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "please refund order ORD1234",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	require.NotNil(t, out.NeedsAdmin)
	assert.True(t, *out.NeedsAdmin)
	assert.NotEmpty(t, out.ReplyDraft)
}

func TestInvoke_UnknownOrder(t *testing.T) {
	e := newTestExecutor(t, Config{})

	first, _, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "refund order ORD9999 please",
	})
	require.NoError(t, err)

	require.NotNil(t, first.Evidence.Order)
	assert.False(t, first.Evidence.Order.Found)
	assert.Equal(t, "ORD9999", first.Evidence.Order.OrderID)
	assert.Equal(t, recAskCorrectOrder, first.Recommendation)

	first.AdminDecision = "approve"
	out, _, err := e.Invoke(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, msgAskOrderID, out.ReplyDraft)
}

func TestInvoke_NoOrderIDSkipsFetch(t *testing.T) {
	e := newTestExecutor(t, Config{})

	out, result, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "I want a refund",
	})
	require.NoError(t, err)

	assert.NotContains(t, result.Visited, StepFetchOrder)
	assert.Nil(t, out.Evidence.Order)
	assert.Equal(t, recAskCorrectOrder, out.Recommendation)
}

func TestInvoke_ReplayIsIdempotent(t *testing.T) {
	e := newTestExecutor(t, Config{})

	first, _, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "refund order ORD1234 please",
	})
	require.NoError(t, err)

	// Replaying the resting record without a decision changes nothing:
	// every populated field guards its step.
	second, result, err := e.Invoke(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAwaitingAdmin, result.Outcome)
	assert.Equal(t, first, second)
}

func TestInvoke_InputRecordNotMutated(t *testing.T) {
	e := newTestExecutor(t, Config{})

	in := schema.TriageRecord{TicketText: "refund order ORD1234 please"}
	_, _, err := e.Invoke(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, in.Messages)
	assert.Empty(t, in.OrderID)
	assert.Empty(t, in.IssueType)
}

func TestInvoke_ToolCallRecorded(t *testing.T) {
	e := newTestExecutor(t, Config{})

	out, _, err := e.Invoke(context.Background(), schema.TriageRecord{
		TicketText: "refund order ORD1234 please",
	})
	require.NoError(t, err)

	var toolCalls []schema.ToolCall
	for _, m := range out.Messages {
		if m.ToolCall != nil {
			toolCalls = append(toolCalls, *m.ToolCall)
		}
	}
	require.Len(t, toolCalls, 1)
	assert.Equal(t, "fetch_order", toolCalls[0].Name)
	assert.Equal(t, "ORD1234", toolCalls[0].Args["order_id"])
	assert.NotEmpty(t, toolCalls[0].ID)
}
