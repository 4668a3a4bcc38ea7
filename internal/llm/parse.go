package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zombor/recibos/internal/extraction"
)

// ErrNoJSON is returned when a reply holds no JSON object
var ErrNoJSON = errors.New("no JSON object found in response")

const fieldsSchema = `{
  "type": "object",
  "properties": {
    "merchantName":  {"type": ["string", "null"], "maxLength": 200},
    "totalValue":    {"type": ["number", "string", "null"]},
    "dateDetected":  {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "categoria":     {"type": ["string", "null"], "maxLength": 60},
    "ivaDedutivel":  {"type": ["boolean", "string", "null"]},
    "valorTotalIVA": {"type": ["number", "string", "null"]}
  }
}`

var schema = jsonschema.MustCompileString("fields.json", fieldsSchema)

// ParseFields extracts the structured fields from a model reply. Fields
// that fail the schema are dropped one by one instead of failing the whole
// reply. A non-ISO date is given one more chance through the date rules.
func ParseFields(content string) (*extraction.Fields, error) {
	text := strings.TrimSpace(content)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, ErrNoJSON
	}
	text = text[start : end+1]

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return nil, fmt.Errorf("validating reply: %w", err)
		}
		for _, field := range invalidFields(verr) {
			if field == "dateDetected" {
				if s, ok := raw[field].(string); ok {
					if d, ok := extraction.ExtractDate(s); ok {
						raw[field] = d
						continue
					}
				}
			}
			slog.Debug("Dropping invalid field from model reply", "field", field, "value", raw[field])
			delete(raw, field)
		}
	}

	f := &extraction.Fields{}
	if s, ok := raw["merchantName"].(string); ok && strings.TrimSpace(s) != "" {
		f.MerchantName = &s
	}
	if v, ok := toNumber(raw["totalValue"]); ok {
		f.TotalValue = &v
	}
	if s, ok := raw["dateDetected"].(string); ok && s != "" {
		f.DateDetected = &s
	}
	if s, ok := raw["categoria"].(string); ok && s != "" {
		c := extraction.Category(s)
		f.Categoria = &c
	}
	if b, ok := toBool(raw["ivaDedutivel"]); ok {
		f.IVADedutivel = &b
	}
	if v, ok := toNumber(raw["valorTotalIVA"]); ok {
		f.ValorTotalIVA = &v
	}
	return f, nil
}

// invalidFields lists the top-level properties named by a validation error tree
func invalidFields(verr *jsonschema.ValidationError) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		loc := strings.TrimPrefix(e.InstanceLocation, "/")
		if loc != "" {
			field := strings.SplitN(loc, "/", 2)[0]
			if !seen[field] {
				seen[field] = true
				out = append(out, field)
			}
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return out
}

// toNumber accepts JSON numbers and amount strings such as "23,45 €"
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		return extraction.ParseCurrency(n)
	}
	return 0, false
}

// toBool accepts JSON booleans and their common string spellings
func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "sim", "yes":
			return true, true
		case "nao", "não", "no":
			return false, true
		}
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, true
		}
	}
	return false, false
}
