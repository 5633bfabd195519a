package retrieval

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind classifies a filter value by its JSON shape.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindBool
	KindList
)

// Value is a single filter value. Exactly one field is meaningful depending
// on Kind.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	List   []interface{}
}

// Filter is one column constraint extracted from a tool call.
type Filter struct {
	Column string
	Value  Value
}

// FilterSpec is the validated, order-preserving result of parsing the
// arguments of a retrieval tool call. Filters appear in the order the model
// emitted them.
type FilterSpec struct {
	Filters        []Filter
	OrderBy        string
	OrderDirection string
	Limit          int
	Offset         int
}

// filterColumns are the catalog columns a tool call may constrain.
var filterColumns = map[string]bool{
	"title":             true,
	"release_date":      true,
	"popularity":        true,
	"vote_average":      true,
	"adult":             true,
	"original_language": true,
}

// ParseFilterSpec decodes raw tool-call arguments into a FilterSpec. Keys are
// kept in their original order. Unknown keys are rejected so a hallucinated
// column can never reach the query builder.
func ParseFilterSpec(raw []byte) (*FilterSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse filter arguments: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse filter arguments: expected a JSON object")
	}

	spec := &FilterSpec{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse filter arguments: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parse filter arguments: expected object key")
		}

		var rawValue json.RawMessage
		if err := dec.Decode(&rawValue); err != nil {
			return nil, fmt.Errorf("parse filter value for %q: %w", key, err)
		}

		switch key {
		case "order_by":
			if err := json.Unmarshal(rawValue, &spec.OrderBy); err != nil {
				return nil, fmt.Errorf("order_by must be a string: %w", err)
			}
		case "order_direction":
			if err := json.Unmarshal(rawValue, &spec.OrderDirection); err != nil {
				return nil, fmt.Errorf("order_direction must be a string: %w", err)
			}
		case "limit":
			if err := json.Unmarshal(rawValue, &spec.Limit); err != nil {
				return nil, fmt.Errorf("limit must be an integer: %w", err)
			}
		case "offset":
			if err := json.Unmarshal(rawValue, &spec.Offset); err != nil {
				return nil, fmt.Errorf("offset must be an integer: %w", err)
			}
		default:
			if !filterColumns[key] {
				return nil, fmt.Errorf("unknown filter column %q", key)
			}
			value, err := decodeValue(rawValue)
			if err != nil {
				return nil, fmt.Errorf("parse filter value for %q: %w", key, err)
			}
			spec.Filters = append(spec.Filters, Filter{Column: key, Value: value})
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse filter arguments: %w", err)
	}
	return spec, nil
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindText, Text: s}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Value{}, err
		}
		if len(items) == 0 {
			return Value{}, fmt.Errorf("empty list")
		}
		list := make([]interface{}, 0, len(items))
		for _, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return Value{}, err
			}
			switch v.Kind {
			case KindText:
				list = append(list, v.Text)
			case KindNumber:
				list = append(list, v.Number)
			case KindBool:
				list = append(list, v.Bool)
			default:
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
		}
		return Value{Kind: KindList, List: list}, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case 'n':
		return Value{}, fmt.Errorf("null is not a valid filter value")
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindNumber, Number: n}, nil
	}
}
