package refdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/triago/pkg/schema"
)

// Reference data file names, resolved against the configured data directory.
const (
	OrdersFile  = "orders.json"
	IssuesFile  = "issues.json"
	RepliesFile = "replies.json"
)

// JSON Schemas for the three reference files. Embedded as constants to
// avoid filesystem dependencies.
const issuesSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://triago.dev/schemas/issues.json",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["keyword", "issue_type"],
    "properties": {
      "keyword": { "type": "string", "minLength": 1 },
      "issue_type": { "type": "string", "minLength": 1 }
    },
    "additionalProperties": false
  }
}`

const ordersSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://triago.dev/schemas/orders.json",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["order_id", "customer_name", "email"],
    "properties": {
      "order_id": { "type": "string", "pattern": "^ORD[0-9]{4}$" },
      "customer_name": { "type": "string" },
      "email": { "type": "string" },
      "status": { "type": "string" },
      "item": { "type": "string" },
      "total": { "type": "number" },
      "currency": { "type": "string" },
      "placed_at": { "type": "string" }
    },
    "additionalProperties": false
  }
}`

const repliesSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://triago.dev/schemas/replies.json",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["issue_type", "template"],
    "properties": {
      "issue_type": { "type": "string", "minLength": 1 },
      "template": { "type": "string", "minLength": 1 }
    },
    "additionalProperties": false
  }
}`

var fileSchemas = map[string]string{
	IssuesFile:  issuesSchemaJSON,
	OrdersFile:  ordersSchemaJSON,
	RepliesFile: repliesSchemaJSON,
}

// Load reads, validates, and indexes the three reference tables from dir.
// Failures are fatal at startup and carry distinct codes per failure kind:
// missing file, unreadable file, or invalid content.
func Load(dir string) (*Set, error) {
	var rules []KeywordRule
	if err := loadTable(dir, IssuesFile, &rules); err != nil {
		return nil, err
	}

	var orders []schema.Order
	if err := loadTable(dir, OrdersFile, &orders); err != nil {
		return nil, err
	}

	var templates []ReplyTemplate
	if err := loadTable(dir, RepliesFile, &templates); err != nil {
		return nil, err
	}

	for i, o := range orders {
		if _, dup := findOrder(orders[:i], o.OrderID); dup {
			return nil, schema.NewErrorf(schema.ErrCodeRefDataInvalid,
				"%s: duplicate order_id %s", OrdersFile, o.OrderID)
		}
	}

	return NewSet(rules, orders, templates), nil
}

// loadTable reads one JSON file, validates it against its schema, and
// decodes it into out.
func loadTable(dir, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema.NewErrorf(schema.ErrCodeRefDataNotFound, "data file not found: %s", name).WithCause(err)
		}
		return schema.NewErrorf(schema.ErrCodeRefDataUnreadable, "read data file %s: %s", name, err.Error()).WithCause(err)
	}

	if err := validateTable(name, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return schema.NewErrorf(schema.ErrCodeRefDataInvalid, "invalid JSON in %s: %s", name, err.Error()).WithCause(err)
	}
	return nil
}

// validateTable checks raw file content against the embedded JSON Schema.
func validateTable(name string, data []byte) error {
	schemaJSON, ok := fileSchemas[name]
	if !ok {
		return schema.NewErrorf(schema.ErrCodeValidation, "no schema registered for %s", name)
	}

	c := jsonschema.NewCompiler()
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("unmarshal %s schema: %w", name, err)
	}
	id := "https://triago.dev/schemas/" + name
	if err := c.AddResource(id, schemaDoc); err != nil {
		return fmt.Errorf("add %s schema resource: %w", name, err)
	}
	compiled, err := c.Compile(id)
	if err != nil {
		return fmt.Errorf("compile %s schema: %w", name, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeRefDataInvalid, "invalid JSON in %s: %s", name, err.Error()).WithCause(err)
	}
	if err := compiled.Validate(doc); err != nil {
		return schema.NewErrorf(schema.ErrCodeRefDataInvalid, "%s failed schema validation: %s", name, err.Error()).WithCause(err)
	}
	return nil
}

func findOrder(orders []schema.Order, id string) (schema.Order, bool) {
	for _, o := range orders {
		if o.OrderID == id {
			return o, true
		}
	}
	return schema.Order{}, false
}
