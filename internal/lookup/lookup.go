// Package lookup implements the order lookup tool: an exact-key fetch
// against the order reference table, plus the search used by the debug
// HTTP surface. No retries, no partial matches, no side effects.
package lookup

import (
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/pkg/schema"
)

// Tool resolves order IDs against the reference data provider.
type Tool struct {
	data refdata.Provider
}

// NewTool creates a lookup Tool over the given provider.
func NewTool(data refdata.Provider) *Tool {
	return &Tool{data: data}
}

// Fetch returns the lookup result for an order ID. The result is stored
// verbatim in the triage record's evidence: {found:true, order} on a hit,
// {found:false, order_id} on a miss.
func (t *Tool) Fetch(orderID string) schema.OrderEvidence {
	order, ok := t.data.OrderByID(orderID)
	if !ok {
		return schema.OrderEvidence{Found: false, OrderID: orderID}
	}
	return schema.OrderEvidence{Found: true, Order: &order}
}
