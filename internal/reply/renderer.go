// Package reply renders customer-facing reply drafts from issue-type
// templates with literal placeholder substitution.
package reply

import (
	"strings"

	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/pkg/schema"
)

// Template placeholder tokens.
const (
	PlaceholderCustomerName = "{{customer_name}}"
	PlaceholderOrderID      = "{{order_id}}"
)

// GenericAcknowledgment is returned when no template matches the issue type.
const GenericAcknowledgment = "Hi there, thanks for reaching out. We are looking into your request and will get back to you shortly."

// Renderer fills reply templates from the reference data provider.
type Renderer struct {
	data refdata.Provider
}

// NewRenderer creates a Renderer over the given provider.
func NewRenderer(data refdata.Provider) *Renderer {
	return &Renderer{data: data}
}

// Render looks up the template for an issue type and substitutes the
// customer name and order ID. A missing template yields the generic
// acknowledgment. Blank order fields fall back to "there" / "your order".
// The customer-name placeholder is substituted before the order-id
// placeholder; the tokens are distinct, so order cannot change the result,
// but it is fixed for determinism.
func (r *Renderer) Render(issue schema.IssueType, order *schema.Order) string {
	template, ok := r.data.Template(issue)
	if !ok {
		return GenericAcknowledgment
	}

	customerName := "there"
	orderID := "your order"
	if order != nil {
		if v := strings.TrimSpace(order.CustomerName); v != "" {
			customerName = order.CustomerName
		}
		if v := strings.TrimSpace(order.OrderID); v != "" {
			orderID = order.OrderID
		}
	}

	out := strings.ReplaceAll(template, PlaceholderCustomerName, customerName)
	out = strings.ReplaceAll(out, PlaceholderOrderID, orderID)
	return out
}

// defaultDraftTemplate is the fallback for the direct draft endpoint.
const defaultDraftTemplate = "Hi {{customer_name}}, we are reviewing order {{order_id}}."

// Draft renders a reply for the direct /reply/draft debug endpoint. It
// keeps the endpoint's own fallback behavior ("Customer" and an empty
// order id) and must not be conflated with the workflow's Render.
func (r *Renderer) Draft(issue schema.IssueType, order *schema.Order) string {
	template, ok := r.data.Template(issue)
	if !ok {
		template = defaultDraftTemplate
	}

	customerName := "Customer"
	orderID := ""
	if order != nil {
		if order.CustomerName != "" {
			customerName = order.CustomerName
		}
		orderID = order.OrderID
	}

	out := strings.ReplaceAll(template, PlaceholderCustomerName, customerName)
	out = strings.ReplaceAll(out, PlaceholderOrderID, orderID)
	return out
}
