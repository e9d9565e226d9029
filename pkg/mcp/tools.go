package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/triago/pkg/schema"
)

// handleInvoke runs one executor pass over the supplied record.
func (s *TriagoServer) handleInvoke(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recordRaw := mcp.ParseStringMap(req, "record", nil)
	if recordRaw == nil {
		return mcp.NewToolResultError("record is required"), nil
	}

	data, err := json.Marshal(recordRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record: %v", err)), nil
	}
	var rec schema.TriageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record: %v", err)), nil
	}

	out, result, invErr := s.executor.Invoke(ctx, rec)
	if invErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("triage pass failed: %v", invErr)), nil
	}

	return marshalResult(map[string]any{
		"record":  out,
		"pass_id": result.PassID,
		"outcome": result.Outcome,
	})
}

// handleOrderGet fetches one order by exact ID.
func (s *TriagoServer) handleOrderGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID, err := req.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError("order_id is required"), nil
	}

	order, ok := s.registry.OrderByID(orderID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("order not found: %s", orderID)), nil
	}
	return marshalResult(order)
}

// handleClassify classifies raw ticket text against the keyword table.
func (s *TriagoServer) handleClassify(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketText, err := req.RequireString("ticket_text")
	if err != nil {
		return mcp.NewToolResultError("ticket_text is required"), nil
	}

	text := strings.ToLower(ticketText)
	for _, rule := range s.registry.Rules() {
		if rule.Keyword != "" && strings.Contains(text, strings.ToLower(rule.Keyword)) {
			return marshalResult(map[string]any{
				"issue_type": rule.IssueType,
				"confidence": 0.85,
			})
		}
	}
	return marshalResult(map[string]any{
		"issue_type": "unknown",
		"confidence": 0.1,
	})
}

// handleReplyDraft renders a reply template directly.
func (s *TriagoServer) handleReplyDraft(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueType, err := req.RequireString("issue_type")
	if err != nil {
		return mcp.NewToolResultError("issue_type is required"), nil
	}

	var order *schema.Order
	if orderRaw := mcp.ParseStringMap(req, "order", nil); orderRaw != nil {
		data, mErr := json.Marshal(orderRaw)
		if mErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid order: %v", mErr)), nil
		}
		order = &schema.Order{}
		if uErr := json.Unmarshal(data, order); uErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid order: %v", uErr)), nil
		}
	}

	return marshalResult(map[string]string{
		"reply_text": s.renderer.Draft(schema.IssueType(issueType), order),
	})
}

// marshalResult serializes a value as a JSON tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
