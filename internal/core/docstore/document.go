package docstore

import (
	"encoding/json"
	"fmt"
	"math"
)

// Clone returns a deep copy of the document. A nil document stays nil.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return map[string]interface{}(Document(t).Clone())
	case Document:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Normalize converts doc into its JSON shape so every backend observes the same
// value types (float64 numbers, []interface{} lists).
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}

// GetInt reads an integer field. Missing or non-numeric fields read as 0.
func (d Document) GetInt(field string) int {
	switch v := d[field].(type) {
	case float64:
		return int(math.Round(v))
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// GetString reads a string field, returning "" if absent or not a string.
func (d Document) GetString(field string) string {
	s, _ := d[field].(string)
	return s
}

// GetStrings reads a list-of-strings field. Non-string entries are skipped.
func (d Document) GetStrings(field string) []string {
	switch v := d[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]interface{}:
		// Realtime Database returns sparse arrays as objects keyed by index
		out := make([]string, 0, len(v))
		for i := 0; i < len(v); i++ {
			if s, ok := v[fmt.Sprint(i)].(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Encode converts an entity into a document using its json tags.
func Encode(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	return doc, nil
}

// Decode fills v from a document using v's json tags.
func Decode(doc Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
