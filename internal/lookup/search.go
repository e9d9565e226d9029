package lookup

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rendis/triago/pkg/schema"
)

// SearchParams are the supported order search criteria. All are optional;
// an order matches when every supplied criterion matches.
type SearchParams struct {
	// CustomerEmail matches the order email exactly, case-insensitive.
	CustomerEmail string

	// Query matches when the order ID or the customer name appears in it,
	// case-insensitive.
	Query string

	// Filter is an expr boolean expression evaluated with the order fields
	// available under "order", e.g. `order.total > 100`.
	Filter string
}

// Searcher runs order searches for the debug HTTP surface. It bypasses the
// workflow entirely and must not be conflated with the fetch-order step.
// Thread-safe: compiled *vm.Program objects are cached and reused.
type Searcher struct {
	tool *Tool

	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewSearcher creates a Searcher sharing the Tool's provider.
func NewSearcher(tool *Tool) *Searcher {
	return &Searcher{
		tool:  tool,
		cache: make(map[string]*vm.Program),
	}
}

// Search returns the orders matching the given criteria, in table order.
func (s *Searcher) Search(params SearchParams) ([]schema.Order, error) {
	var prg *vm.Program
	if params.Filter != "" {
		var err error
		prg, err = s.getOrCompile(params.Filter)
		if err != nil {
			return nil, err
		}
	}

	matches := make([]schema.Order, 0)
	for _, o := range s.tool.data.Orders() {
		if params.CustomerEmail != "" && !strings.EqualFold(o.Email, params.CustomerEmail) {
			continue
		}
		if params.Query != "" && !queryMatches(o, params.Query) {
			continue
		}
		if prg != nil {
			ok, err := s.evalFilter(prg, params.Filter, o)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matches = append(matches, o)
	}
	return matches, nil
}

// queryMatches reports whether the free-text query mentions this order,
// by order ID or customer name.
func queryMatches(o schema.Order, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, strings.ToLower(o.OrderID)) ||
		strings.Contains(q, strings.ToLower(o.CustomerName))
}

// evalFilter runs a compiled filter against one order. The order is
// exposed as a plain map under "order" so expressions can use optional
// chaining over any field.
func (s *Searcher) evalFilter(prg *vm.Program, filter string, o schema.Order) (bool, error) {
	env := map[string]any{"order": orderEnv(o)}
	out, err := vm.Run(prg, env)
	if err != nil {
		return false, schema.NewErrorf(schema.ErrCodeQuery,
			"filter evaluation failed for %q: %s", filter, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"filter": filter, "order_id": o.OrderID})
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, schema.NewErrorf(schema.ErrCodeValidation,
			"filter %q must evaluate to a boolean, got %T", filter, out)
	}
	return ok, nil
}

// orderEnv converts an order to generic JSON values for the expr env.
func orderEnv(o schema.Order) map[string]any {
	raw, err := json.Marshal(o)
	if err != nil {
		return map[string]any{"order_id": o.OrderID}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"order_id": o.OrderID}
	}
	return m
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (s *Searcher) getOrCompile(filter string) (*vm.Program, error) {
	s.mu.RLock()
	if prg, ok := s.cache[filter]; ok {
		s.mu.RUnlock()
		return prg, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := s.cache[filter]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(filter,
		expr.Env(map[string]any{"order": map[string]any{}}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"invalid filter expression %q: %s", filter, err.Error()).WithCause(err)
	}

	s.cache[filter] = prg
	return prg, nil
}
