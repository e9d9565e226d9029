package refdata

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/rendis/triago/pkg/schema"
)

// QueryEngine evaluates jq programs over the reference tables. It backs
// the /refdata/query debug endpoint for inspecting the loaded data.
// Thread-safe: compiled *Code objects are cached and reused across goroutines.
type QueryEngine struct {
	registry *Registry

	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewQueryEngine creates a QueryEngine over the given registry.
func NewQueryEngine(registry *Registry) *QueryEngine {
	return &QueryEngine{
		registry: registry,
		cache:    make(map[string]*gojq.Code),
	}
}

// Query compiles (or retrieves from cache) a jq program and evaluates it
// against the named table (orders, issues, or replies). The table is
// supplied as the program input after a JSON round trip, so programs see
// plain maps and slices.
//
// jq programs can produce multiple outputs. When there is exactly one
// output, it is returned directly; multiple outputs are collected into a
// slice.
func (e *QueryEngine) Query(ctx context.Context, table, program string) (any, error) {
	if program == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq program")
	}

	input, err := e.tableInput(table)
	if err != nil {
		return nil, err
	}

	code, err := e.getOrCompile(program)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, input)

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeQuery,
				"jq evaluation failed for %q: %s", program, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"program": program, "table": table})
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// tableInput materializes one reference table as generic JSON values.
func (e *QueryEngine) tableInput(table string) (any, error) {
	set := e.registry.Current()

	var src any
	switch table {
	case "orders":
		src = set.Orders()
	case "issues":
		src = set.Rules()
	case "replies":
		src = set.Templates()
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown table: %s", table)
	}

	raw, err := json.Marshal(src)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeQuery, "serialize table %s: %s", table, err.Error()).WithCause(err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeQuery, "deserialize table %s: %s", table, err.Error()).WithCause(err)
	}
	return out, nil
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (e *QueryEngine) getOrCompile(program string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[program]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if code, ok := e.cache[program]; ok {
		return code, nil
	}

	parsed, err := gojq.Parse(program)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeQuery, "parse jq program %q: %s", program, err.Error()).WithCause(err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeQuery, "compile jq program %q: %s", program, err.Error()).WithCause(err)
	}

	e.cache[program] = code
	return code, nil
}
