package refdata

import (
	"github.com/rendis/triago/pkg/schema"
)

// KeywordRule maps a keyword substring to an issue type. Rules are matched
// in file order; the first keyword found in the ticket text wins.
type KeywordRule struct {
	Keyword   string           `json:"keyword"`
	IssueType schema.IssueType `json:"issue_type"`
}

// ReplyTemplate maps an issue type to a customer-facing reply template.
// Templates carry the literal placeholders {{customer_name}} and {{order_id}}.
type ReplyTemplate struct {
	IssueType schema.IssueType `json:"issue_type"`
	Template  string           `json:"template"`
}

// Provider exposes read-only access to the three reference tables.
// The executor and its steps receive a Provider instead of reaching for
// package-level state, so tests can inject fixture data.
type Provider interface {
	// Rules returns the keyword rules in file order.
	Rules() []KeywordRule

	// OrderByID returns the order with the given ID, exact match only.
	OrderByID(orderID string) (schema.Order, bool)

	// Orders returns all orders in file order.
	Orders() []schema.Order

	// Template returns the reply template for an issue type.
	Template(issue schema.IssueType) (string, bool)
}

// Set is one immutable snapshot of all three reference tables.
type Set struct {
	rules     []KeywordRule
	orders    []schema.Order
	templates []ReplyTemplate

	orderIndex    map[string]int
	templateIndex map[schema.IssueType]string
}

// NewSet builds a Set from already-decoded tables. Used directly by tests;
// production code goes through Load.
func NewSet(rules []KeywordRule, orders []schema.Order, templates []ReplyTemplate) *Set {
	s := &Set{
		rules:         rules,
		orders:        orders,
		templates:     templates,
		orderIndex:    make(map[string]int, len(orders)),
		templateIndex: make(map[schema.IssueType]string, len(templates)),
	}
	for i, o := range orders {
		s.orderIndex[o.OrderID] = i
	}
	for _, t := range templates {
		s.templateIndex[t.IssueType] = t.Template
	}
	return s
}

// Rules returns the keyword rules in file order.
func (s *Set) Rules() []KeywordRule {
	return s.rules
}

// OrderByID returns the order with the given ID, exact match only.
func (s *Set) OrderByID(orderID string) (schema.Order, bool) {
	i, ok := s.orderIndex[orderID]
	if !ok {
		return schema.Order{}, false
	}
	return s.orders[i], true
}

// Orders returns all orders in file order.
func (s *Set) Orders() []schema.Order {
	return s.orders
}

// Template returns the reply template for an issue type.
func (s *Set) Template(issue schema.IssueType) (string, bool) {
	t, ok := s.templateIndex[issue]
	return t, ok
}

// Templates returns all reply templates in file order.
func (s *Set) Templates() []ReplyTemplate {
	return s.templates
}
